package screen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"ValueSentinel/internal/model"
)

// Operator is a comparison applied between a metric and a threshold.
type Operator string

const (
	OpGTE    Operator = ">="
	OpLTE    Operator = "<="
	OpGT     Operator = ">"
	OpLT     Operator = "<"
	OpEQ     Operator = "="
	OpWithin Operator = "within"
)

// equalEpsilon absorbs floating noise for OpEQ.
const equalEpsilon = 1e-9

func (op Operator) valid() bool {
	switch op {
	case OpGTE, OpLTE, OpGT, OpLT, OpEQ, OpWithin:
		return true
	}
	return false
}

// Criterion is a single threshold check on one metric.
type Criterion struct {
	Metric    Metric   `json:"metric"`
	Op        Operator `json:"op"`
	Value     float64  `json:"value"`
	Tolerance float64  `json:"tolerance,omitempty"` // percent, OpWithin only
}

// Min builds a `metric >= v` criterion.
func Min(m Metric, v float64) Criterion { return Criterion{Metric: m, Op: OpGTE, Value: v} }

// Max builds a `metric <= v` criterion.
func Max(m Metric, v float64) Criterion { return Criterion{Metric: m, Op: OpLTE, Value: v} }

// Above builds a `metric > v` criterion.
func Above(m Metric, v float64) Criterion { return Criterion{Metric: m, Op: OpGT, Value: v} }

// Below builds a `metric < v` criterion.
func Below(m Metric, v float64) Criterion { return Criterion{Metric: m, Op: OpLT, Value: v} }

// Within builds a criterion passing when the metric is within pct percent of v.
func Within(m Metric, v, pct float64) Criterion {
	return Criterion{Metric: m, Op: OpWithin, Value: v, Tolerance: pct}
}

func (c Criterion) String() string {
	if c.Op == OpWithin {
		return fmt.Sprintf("%s within %g%% of %g", c.Metric, c.Tolerance, c.Value)
	}
	return fmt.Sprintf("%s %s %g", c.Metric, c.Op, c.Value)
}

// Validate reports a malformed criterion.
func (c Criterion) Validate() error {
	if !c.Metric.Valid() {
		return &model.InvalidCriterionError{Input: c.String(), Reason: "unknown metric"}
	}
	if !c.Op.valid() {
		return &model.InvalidCriterionError{Input: c.String(), Reason: fmt.Sprintf("unknown operator %q", c.Op)}
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return &model.InvalidCriterionError{Input: c.String(), Reason: "threshold must be finite"}
	}
	if c.Op == OpWithin && (c.Tolerance < 0 || math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0)) {
		return &model.InvalidCriterionError{Input: c.String(), Reason: "tolerance must be a finite non-negative percent"}
	}
	return nil
}

// Check applies the criterion to a value. Undefined values never pass.
func (c Criterion) Check(v null.Float) bool {
	if !v.Valid || math.IsNaN(v.Float64) {
		return false
	}
	x := v.Float64
	switch c.Op {
	case OpGTE:
		return x >= c.Value
	case OpLTE:
		return x <= c.Value
	case OpGT:
		return x > c.Value
	case OpLT:
		return x < c.Value
	case OpEQ:
		return math.Abs(x-c.Value) <= equalEpsilon
	case OpWithin:
		return math.Abs(x-c.Value) <= math.Abs(c.Value)*c.Tolerance/100+equalEpsilon
	}
	return false
}

// ParseCriterion parses expressions such as "pe<=15", "rsi_14 < 30",
// "dividend_yield>=3" or "price~100:5" (within 5% of 100).
func ParseCriterion(expr string) (Criterion, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Criterion{}, &model.InvalidCriterionError{Input: expr, Reason: "empty expression"}
	}

	// Longest operators first so ">=" is not read as ">".
	for _, op := range []string{">=", "<=", "~", ">", "<", "="} {
		idx := strings.Index(s, op)
		if idx <= 0 {
			continue
		}
		metric, err := ParseMetric(s[:idx])
		if err != nil {
			return Criterion{}, &model.InvalidCriterionError{Input: expr, Reason: "unknown metric"}
		}
		rhs := strings.TrimSpace(s[idx+len(op):])

		c := Criterion{Metric: metric, Op: Operator(op)}
		if op == "~" {
			c.Op = OpWithin
			target, tol, ok := strings.Cut(rhs, ":")
			if !ok {
				return Criterion{}, &model.InvalidCriterionError{Input: expr, Reason: "within expects value:percent"}
			}
			if c.Tolerance, err = parseNumber(tol); err != nil {
				return Criterion{}, &model.InvalidCriterionError{Input: expr, Reason: "bad tolerance"}
			}
			rhs = target
		}
		if c.Value, err = parseNumber(rhs); err != nil {
			return Criterion{}, &model.InvalidCriterionError{Input: expr, Reason: "bad threshold"}
		}
		if err := c.Validate(); err != nil {
			return Criterion{}, err
		}
		return c, nil
	}
	return Criterion{}, &model.InvalidCriterionError{Input: expr, Reason: "missing operator"}
}

// parseNumber accepts plain numbers plus K/M/B/T suffixes and a trailing percent sign.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	mult := 1.0
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'k', 'K':
			mult = 1e3
		case 'm', 'M':
			mult = 1e6
		case 'b', 'B':
			mult = 1e9
		case 't', 'T':
			mult = 1e12
		}
		if mult != 1 {
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return v * mult, nil
}
