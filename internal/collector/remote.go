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

	"ValueSentinel/internal/model"
)

// RemoteFetcher implements Fetcher against a self-hosted snapshot service that
// already speaks the RawSnapshot JSON shape.
type RemoteFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRemoteFetcher creates a new fetcher with optional proxy support.
func NewRemoteFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RemoteFetcher {
	return &RemoteFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *RemoteFetcher) Name() string { return "remote" }

// remoteBar is the expected JSON shape of one history point.
type remoteBar struct {
	Timestamp int64   `json:"timestamp"`
	Close     float64 `json:"close"`
}

func (f *RemoteFetcher) FetchSnapshot(ctx context.Context, ticker string) (model.RawSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/snapshot?ticker=%s", f.BaseURL, url.QueryEscape(ticker))
	var snap model.RawSnapshot
	if err := f.getJSON(ctx, endpoint, &snap); err != nil {
		return model.RawSnapshot{}, model.NewFetchError(ticker, "snapshot", err)
	}
	if snap.Ticker == "" {
		snap.Ticker = strings.ToUpper(ticker)
	}
	return snap, nil
}

func (f *RemoteFetcher) FetchHistory(ctx context.Context, ticker, period string) (model.PriceHistory, error) {
	endpoint := fmt.Sprintf("%s/api/v1/history?ticker=%s&period=%s",
		f.BaseURL, url.QueryEscape(ticker), url.QueryEscape(period))
	var bars []remoteBar
	if err := f.getJSON(ctx, endpoint, &bars); err != nil {
		return model.PriceHistory{}, model.NewFetchError(ticker, "history", err)
	}

	history := model.PriceHistory{
		Ticker:    strings.ToUpper(ticker),
		Points:    make([]model.PricePoint, len(bars)),
		FetchedAt: time.Now(),
	}
	for i, b := range bars {
		history.Points[i] = model.PricePoint{Date: time.Unix(b.Timestamp, 0).UTC(), Close: b.Close}
	}
	// Ensure chronological order
	sort.Slice(history.Points, func(i, j int) bool { return history.Points[i].Date.Before(history.Points[j].Date) })
	return history, nil
}

func (f *RemoteFetcher) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
