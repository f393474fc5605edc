package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal ticker to Yahoo symbol
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"BRK.B": "BRK-B",
			"BF.B":  "BF-B",
		},
	}
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(ticker string) string {
	t := strings.ToUpper(ticker)
	if mapped, ok := f.SymbolMap[t]; ok {
		return mapped
	}
	return t
}

// yahooValue is Yahoo's {"raw": 1.2, "fmt": "1.20"} number wrapper.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

func (v yahooValue) float() null.Float { return null.FloatFromPtr(v.Raw) }

// percent converts a Yahoo fraction (0.12) into percent (12).
func (v yahooValue) percent() null.Float {
	if v.Raw == nil {
		return null.Float{}
	}
	return null.FloatFrom(*v.Raw * 100)
}

type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				RegularMarketPrice yahooValue `json:"regularMarketPrice"`
				MarketCap          yahooValue `json:"marketCap"`
				ShortName          string     `json:"shortName"`
				Currency           string     `json:"currency"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE       yahooValue `json:"trailingPE"`
				ForwardPE        yahooValue `json:"forwardPE"`
				PriceToSales     yahooValue `json:"priceToSalesTrailing12Months"`
				DividendYield    yahooValue `json:"dividendYield"`
				PayoutRatio      yahooValue `json:"payoutRatio"`
				FiftyTwoWeekHigh yahooValue `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow  yahooValue `json:"fiftyTwoWeekLow"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				TrailingEps         yahooValue `json:"trailingEps"`
				BookValue           yahooValue `json:"bookValue"`
				PriceToBook         yahooValue `json:"priceToBook"`
				PegRatio            yahooValue `json:"pegRatio"`
				EnterpriseToEbitda  yahooValue `json:"enterpriseToEbitda"`
				SharesOutstanding   yahooValue `json:"sharesOutstanding"`
				HeldPercentInsiders yahooValue `json:"heldPercentInsiders"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				CurrentPrice     yahooValue `json:"currentPrice"`
				GrossMargins     yahooValue `json:"grossMargins"`
				OperatingMargins yahooValue `json:"operatingMargins"`
				ProfitMargins    yahooValue `json:"profitMargins"`
				ReturnOnEquity   yahooValue `json:"returnOnEquity"`
				ReturnOnAssets   yahooValue `json:"returnOnAssets"`
				DebtToEquity     yahooValue `json:"debtToEquity"`
				CurrentRatio     yahooValue `json:"currentRatio"`
				RevenueGrowth    yahooValue `json:"revenueGrowth"`
				EarningsGrowth   yahooValue `json:"earningsGrowth"`
				FreeCashflow     yahooValue `json:"freeCashflow"`
				TotalRevenue     yahooValue `json:"totalRevenue"`
			} `json:"financialData"`
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			IncomeStatementHistory struct {
				Statements []struct {
					EndDate         yahooValue `json:"endDate"`
					TotalRevenue    yahooValue `json:"totalRevenue"`
					OperatingIncome yahooValue `json:"operatingIncome"`
				} `json:"incomeStatementHistory"`
			} `json:"incomeStatementHistory"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func (f *YahooFetcher) FetchSnapshot(ctx context.Context, ticker string) (model.RawSnapshot, error) {
	modules := "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile,incomeStatementHistory"
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(ticker)), modules)

	body, err := f.get(ctx, u)
	if err != nil {
		return model.RawSnapshot{}, model.NewFetchError(ticker, "snapshot", err)
	}

	var qs yahooQuoteSummary
	if err := json.Unmarshal(body, &qs); err != nil {
		return model.RawSnapshot{}, model.NewFetchError(ticker, "snapshot", fmt.Errorf("yahoo decode: %w", err))
	}
	if qs.QuoteSummary.Error != nil {
		return model.RawSnapshot{}, model.NewFetchError(ticker, "snapshot",
			fmt.Errorf("yahoo api error: %s", qs.QuoteSummary.Error.Description))
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return model.RawSnapshot{}, model.NewFetchError(ticker, "snapshot", fmt.Errorf("yahoo: no data returned"))
	}

	r := qs.QuoteSummary.Result[0]
	snap := model.RawSnapshot{
		Ticker:   strings.ToUpper(ticker),
		Name:     r.Price.ShortName,
		Currency: r.Price.Currency,
		Sector:   r.AssetProfile.Sector,
		Industry: r.AssetProfile.Industry,

		Price:             r.Price.RegularMarketPrice.float(),
		MarketCap:         r.Price.MarketCap.float(),
		EPS:               r.DefaultKeyStatistics.TrailingEps.float(),
		BookValuePerShare: r.DefaultKeyStatistics.BookValue.float(),
		SharesOutstanding: r.DefaultKeyStatistics.SharesOutstanding.float(),

		PETrailing: r.SummaryDetail.TrailingPE.float(),
		PEForward:  r.SummaryDetail.ForwardPE.float(),
		PB:         r.DefaultKeyStatistics.PriceToBook.float(),
		PS:         r.SummaryDetail.PriceToSales.float(),
		PEG:        r.DefaultKeyStatistics.PegRatio.float(),
		EVEBITDA:   r.DefaultKeyStatistics.EnterpriseToEbitda.float(),

		GrossMargin:     r.FinancialData.GrossMargins.percent(),
		OperatingMargin: r.FinancialData.OperatingMargins.percent(),
		NetMargin:       r.FinancialData.ProfitMargins.percent(),
		ROE:             r.FinancialData.ReturnOnEquity.percent(),
		ROA:             r.FinancialData.ReturnOnAssets.percent(),
		DebtToEquity:    r.FinancialData.DebtToEquity.float(),
		CurrentRatio:    r.FinancialData.CurrentRatio.float(),
		RevenueGrowth:   r.FinancialData.RevenueGrowth.percent(),
		EarningsGrowth:  r.FinancialData.EarningsGrowth.percent(),

		DividendYield:    r.SummaryDetail.DividendYield.percent(),
		PayoutRatio:      r.SummaryDetail.PayoutRatio.percent(),
		FreeCashFlow:     r.FinancialData.FreeCashflow.float(),
		TotalRevenue:     r.FinancialData.TotalRevenue.float(),
		InsiderOwnership: r.DefaultKeyStatistics.HeldPercentInsiders.percent(),

		High52w: r.SummaryDetail.FiftyTwoWeekHigh.float(),
		Low52w:  r.SummaryDetail.FiftyTwoWeekLow.float(),
	}
	if !snap.Price.Valid {
		snap.Price = r.FinancialData.CurrentPrice.float()
	}

	// Yahoo lists statements newest first.
	stmts := r.IncomeStatementHistory.Statements
	sort.SliceStable(stmts, func(i, j int) bool {
		return stmts[i].EndDate.float().ValueOrZero() < stmts[j].EndDate.float().ValueOrZero()
	})
	for _, s := range stmts {
		if s.TotalRevenue.Raw != nil {
			snap.Revenues = append(snap.Revenues, *s.TotalRevenue.Raw)
		}
	}
	if n := len(stmts); n > 0 {
		snap.OperatingIncome = stmts[n-1].OperatingIncome.float()
	}
	return snap, nil
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, ticker, period string) (model.PriceHistory, error) {
	if period == "" {
		period = Period1Y
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(ticker)), url.QueryEscape(period))

	body, err := f.get(ctx, u)
	if err != nil {
		return model.PriceHistory{}, model.NewFetchError(ticker, "history", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.PriceHistory{}, model.NewFetchError(ticker, "history", fmt.Errorf("yahoo decode: %w", err))
	}
	if chart.Chart.Error != nil {
		return model.PriceHistory{}, model.NewFetchError(ticker, "history",
			fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description))
	}

	history := model.PriceHistory{Ticker: strings.ToUpper(ticker), FetchedAt: time.Now()}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return history, nil
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // null bars (holidays, halts)
		}
		history.Points = append(history.Points, model.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	sort.Slice(history.Points, func(i, j int) bool { return history.Points[i].Date.Before(history.Points[j].Date) })
	return history, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
