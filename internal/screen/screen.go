package screen

import (
	"fmt"
	"strings"

	"ValueSentinel/internal/model"
)

// SortKey orders screen results by one metric.
type SortKey struct {
	Metric     Metric `json:"metric"`
	Descending bool   `json:"descending"`
}

func (k SortKey) String() string {
	if !k.Metric.Valid() {
		return "ticker"
	}
	if k.Descending {
		return "-" + k.Metric.String()
	}
	return k.Metric.String()
}

// ParseSort accepts "roe", "-roe", "roe:desc" or "roe:asc". Empty means ticker order.
func ParseSort(s string) (*SortKey, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "ticker") {
		return nil, nil
	}
	desc := false
	if strings.HasPrefix(s, "-") {
		desc = true
		s = s[1:]
	}
	if name, dir, ok := strings.Cut(s, ":"); ok {
		switch strings.ToLower(dir) {
		case "desc":
			desc = true
		case "asc":
			desc = false
		default:
			return nil, &model.InvalidCriterionError{Input: s, Reason: "sort direction must be asc or desc"}
		}
		s = name
	}
	m, err := ParseMetric(s)
	if err != nil {
		return nil, &model.InvalidCriterionError{Input: s, Reason: "unknown sort metric"}
	}
	return &SortKey{Metric: m, Descending: desc}, nil
}

// Screen is an ordered set of criteria plus optional ordering and limit.
// Build one with NewScreen so every criterion is validated up front.
type Screen struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Criteria    []Criterion `json:"criteria"`
	Sort        *SortKey    `json:"sort,omitempty"`
	Limit       int         `json:"limit,omitempty"`
}

// NewScreen validates criteria and returns an immutable Screen.
func NewScreen(name string, criteria []Criterion, sort *SortKey, limit int) (Screen, error) {
	for _, c := range criteria {
		if err := c.Validate(); err != nil {
			return Screen{}, err
		}
	}
	if sort != nil && !sort.Metric.Valid() {
		return Screen{}, &model.InvalidCriterionError{Input: sort.String(), Reason: "unknown sort metric"}
	}
	if limit < 0 {
		return Screen{}, &model.InvalidCriterionError{Input: fmt.Sprint(limit), Reason: "limit must not be negative"}
	}
	s := Screen{
		Name:     name,
		Criteria: append([]Criterion(nil), criteria...),
		Limit:    limit,
	}
	if sort != nil {
		k := *sort
		s.Sort = &k
	}
	return s, nil
}

// ParseScreen builds a custom screen from textual criteria and an optional sort.
func ParseScreen(name string, exprs []string, sort string, limit int) (Screen, error) {
	criteria := make([]Criterion, 0, len(exprs))
	for _, e := range exprs {
		c, err := ParseCriterion(e)
		if err != nil {
			return Screen{}, err
		}
		criteria = append(criteria, c)
	}
	key, err := ParseSort(sort)
	if err != nil {
		return Screen{}, err
	}
	return NewScreen(name, criteria, key, limit)
}

// Validate re-checks a Screen that was not built by NewScreen.
func (s Screen) Validate() error {
	_, err := NewScreen(s.Name, s.Criteria, s.Sort, s.Limit)
	return err
}

// WithSort returns a copy ordered by key.
func (s Screen) WithSort(key *SortKey) Screen {
	c := s
	c.Criteria = append([]Criterion(nil), s.Criteria...)
	if key == nil {
		c.Sort = nil
		return c
	}
	k := *key
	c.Sort = &k
	return c
}
