package engine

import (
	"errors"
	"fmt"
	"math"

	"TraderGenie/internal/domain/models"
)

// ErrMalformedCondition marks a condition that can never be evaluated.
var ErrMalformedCondition = errors.New("malformed condition")

// IndicatorSource resolves indicator keys. models.Snapshot and
// models.IndicatorMap both satisfy it.
type IndicatorSource interface {
	Lookup(k models.IndicatorKey) (models.IndicatorValue, bool)
}

// Evaluation is the outcome of one rule set against one indicator source.
type Evaluation struct {
	Passed     bool
	Confidence int
	Matched    []string
	Evaluated  int
}

// Evaluate applies rs to src. Conditions whose key is absent, and malformed
// conditions, count toward neither the matched nor the evaluated tally.
// Confidence is round(matched/evaluated*100) for both AND and OR.
func Evaluate(rs models.RuleSet, src IndicatorSource) Evaluation {
	var (
		evaluated int
		matched   []string
	)

	for _, c := range rs.Conditions {
		if ValidateCondition(c) != nil {
			continue
		}
		actual, ok := src.Lookup(c.Indicator)
		if !ok {
			continue
		}
		evaluated++
		if match(c, actual) {
			matched = append(matched, reason(c, actual))
		}
	}

	if evaluated == 0 {
		return Evaluation{Matched: []string{}}
	}
	if matched == nil {
		matched = []string{}
	}

	out := Evaluation{
		Confidence: int(math.RoundToEven(float64(len(matched)) / float64(evaluated) * 100)),
		Matched:    matched,
		Evaluated:  evaluated,
	}
	if rs.Logic == models.LogicOr {
		out.Passed = len(matched) > 0
	} else {
		out.Passed = len(matched) == evaluated
	}
	return out
}

func match(c models.Condition, actual models.IndicatorValue) bool {
	switch c.Operator {
	case models.OpGT:
		return actual.Float() > c.Value.Float()
	case models.OpGTE:
		return actual.Float() >= c.Value.Float()
	case models.OpLT:
		return actual.Float() < c.Value.Float()
	case models.OpLTE:
		return actual.Float() <= c.Value.Float()
	case models.OpEQ:
		if actual.IsBool && c.Value.Kind == models.ValueBool {
			return actual.Bool == c.Value.Bool
		}
		return actual.Float() == c.Value.Float()
	case models.OpBetween:
		lo, hi, ok := c.Value.Pair()
		v := actual.Float()
		return ok && v >= lo && v <= hi
	default:
		return false
	}
}

func reason(c models.Condition, actual models.IndicatorValue) string {
	return fmt.Sprintf("%s (actual: %s)", c.String(), actual.String())
}

// ValidateCondition reports whether c can be evaluated at all.
func ValidateCondition(c models.Condition) error {
	if !c.Indicator.Known() {
		return fmt.Errorf("%w: unknown indicator %q", ErrMalformedCondition, c.Indicator)
	}
	switch c.Operator {
	case models.OpGT, models.OpGTE, models.OpLT, models.OpLTE, models.OpEQ:
		if c.Value.Kind != models.ValueNumber && c.Value.Kind != models.ValueBool {
			return fmt.Errorf("%w: %s needs a scalar value", ErrMalformedCondition, c.Indicator)
		}
	case models.OpBetween:
		if _, _, ok := c.Value.Pair(); !ok {
			return fmt.Errorf("%w: %s between needs an ordered [low, high] pair", ErrMalformedCondition, c.Indicator)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrMalformedCondition, c.Operator)
	}
	return nil
}

// ValidateRuleSet is the intake check for user-authored strategies.
func ValidateRuleSet(rs models.RuleSet) error {
	if !rs.Logic.Valid() {
		return fmt.Errorf("%w: logic must be AND or OR, got %q", ErrMalformedCondition, rs.Logic)
	}
	if len(rs.Conditions) == 0 {
		return fmt.Errorf("%w: rule set has no conditions", ErrMalformedCondition)
	}
	for i, c := range rs.Conditions {
		if err := ValidateCondition(c); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return nil
}
