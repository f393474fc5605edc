package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ValueSentinel/internal/model"
)

const quoteSummaryJSON = `{"quoteSummary":{"result":[{
  "price":{"regularMarketPrice":{"raw":150.5},"marketCap":{"raw":2000000000},"shortName":"Acme","currency":"USD"},
  "summaryDetail":{"trailingPE":{"raw":12.1},"dividendYield":{"raw":0.031},"fiftyTwoWeekHigh":{"raw":200},"fiftyTwoWeekLow":{"raw":120}},
  "defaultKeyStatistics":{"trailingEps":{"raw":12.4},"bookValue":{"raw":80},"sharesOutstanding":{"raw":1000000}},
  "financialData":{"returnOnEquity":{"raw":0.18},"debtToEquity":{"raw":45.2},"currentRatio":{"raw":2.1}},
  "assetProfile":{"sector":"Industrials","industry":"Machinery"},
  "incomeStatementHistory":{"incomeStatementHistory":[
    {"endDate":{"raw":1700000000},"totalRevenue":{"raw":1200},"operatingIncome":{"raw":300}},
    {"endDate":{"raw":1660000000},"totalRevenue":{"raw":1000},"operatingIncome":{"raw":250}}
  ]}
}],"error":null}}`

const chartJSON = `{"chart":{"result":[{"timestamp":[1700086400,1700000000,1700172800],
  "indicators":{"quote":[{"close":[101.0,100.0,null]}]}}],"error":null}}`

func TestYahooFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/ACME"):
			_, _ = w.Write([]byte(quoteSummaryJSON))
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/ACME"):
			assert.Equal(t, "1y", r.URL.Query().Get("range"))
			_, _ = w.Write([]byte(chartJSON))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL

	snap, err := f.FetchSnapshot(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "ACME", snap.Ticker)
	assert.Equal(t, "Industrials", snap.Sector)
	assert.Equal(t, 150.5, snap.Price.Float64)
	assert.InDelta(t, 3.1, snap.DividendYield.Float64, 1e-9)
	assert.InDelta(t, 18.0, snap.ROE.Float64, 1e-9)
	assert.Equal(t, 45.2, snap.DebtToEquity.Float64)
	assert.False(t, snap.PB.Valid)
	assert.Equal(t, []float64{1000, 1200}, snap.Revenues)
	assert.Equal(t, 300.0, snap.OperatingIncome.Float64)

	history, err := f.FetchHistory(context.Background(), "ACME", Period1Y)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101}, history.Closes())

	_, err = f.FetchSnapshot(context.Background(), "MISSING")
	var fe *model.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "snapshot", fe.Op)
}

func TestRemoteFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/snapshot":
			_, _ = w.Write([]byte(`{"ticker":"XYZ","price":42.5,"eps":null,"roe":11}`))
		case "/api/v1/history":
			_, _ = w.Write([]byte(`[{"timestamp":1700086400,"close":2},{"timestamp":1700000000,"close":1}]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	f := NewRemoteFetcher(srv.URL+"/", "secret", "", time.Second)

	snap, err := f.FetchSnapshot(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, 42.5, snap.Price.Float64)
	assert.False(t, snap.EPS.Valid)
	assert.Equal(t, 11.0, snap.ROE.Float64)

	history, err := f.FetchHistory(context.Background(), "XYZ", Period2Y)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, history.Closes())
}
