package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRefreshInProgress is returned when a refresh is requested while another run is active.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrInvalidParams is returned for inconsistent valuation parameters.
	ErrInvalidParams = errors.New("invalid valuation parameters")
)

// FetchError reports that the snapshot source failed for one ticker.
type FetchError struct {
	Ticker string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Op, e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps err as a FetchError unless it already is one.
func NewFetchError(ticker, op string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Ticker: ticker, Op: op, Err: err}
}

// NotCachedError reports a ticker that has never been stored.
type NotCachedError struct {
	Ticker string
}

func (e *NotCachedError) Error() string {
	return fmt.Sprintf("%s is not cached; run a refresh first", e.Ticker)
}

// InvalidCriterionError reports an unknown metric or malformed criterion.
type InvalidCriterionError struct {
	Input  string
	Reason string
}

func (e *InvalidCriterionError) Error() string {
	if e.Input == "" {
		return "invalid criterion: " + e.Reason
	}
	return fmt.Sprintf("invalid criterion %q: %s", e.Input, e.Reason)
}

// UnknownPresetError reports a preset name that is not registered.
type UnknownPresetError struct {
	Name      string
	Available []string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
