package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// StrategyType tags the family a strategy belongs to.
type StrategyType string

const (
	StrategyTrend     StrategyType = "trend"
	StrategyReversal  StrategyType = "reversal"
	StrategyBreakout  StrategyType = "breakout"
	StrategyMemeShort StrategyType = "meme_short"
	StrategyCustom    StrategyType = "custom"
)

// Valid reports whether t is one of the fixed strategy types.
func (t StrategyType) Valid() bool {
	switch t {
	case StrategyTrend, StrategyReversal, StrategyBreakout, StrategyMemeShort, StrategyCustom:
		return true
	default:
		return false
	}
}

// Logic is the combination mode of a rule set.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

func (l Logic) Valid() bool { return l == LogicAnd || l == LogicOr }

// Operator is a condition comparison operator.
type Operator string

const (
	OpGT      Operator = ">"
	OpGTE     Operator = ">="
	OpLT      Operator = "<"
	OpLTE     Operator = "<="
	OpEQ      Operator = "=="
	OpBetween Operator = "between"
)

func (o Operator) Valid() bool {
	switch o {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ, OpBetween:
		return true
	default:
		return false
	}
}

// ValueKind is the JSON shape a condition value was given in.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueNumber
	ValueBool
	ValueList
)

// ConditionValue is a scalar threshold, a boolean, or a list (a 2-element
// ordered pair for between).
type ConditionValue struct {
	Kind ValueKind
	Num  float64
	Bool bool
	List []float64
}

func Number(v float64) ConditionValue { return ConditionValue{Kind: ValueNumber, Num: v} }

func Flag(v bool) ConditionValue { return ConditionValue{Kind: ValueBool, Bool: v} }

func Range(lo, hi float64) ConditionValue { return ConditionValue{Kind: ValueList, List: []float64{lo, hi}} }

// Float returns the numeric view; booleans map to 1 and 0.
func (v ConditionValue) Float() float64 {
	if v.Kind == ValueBool {
		if v.Bool {
			return 1
		}
		return 0
	}
	return v.Num
}

// Pair returns the bounds of a well-formed between value.
func (v ConditionValue) Pair() (lo, hi float64, ok bool) {
	if v.Kind != ValueList || len(v.List) != 2 || v.List[0] > v.List[1] {
		return 0, 0, false
	}
	return v.List[0], v.List[1], true
}

func (v ConditionValue) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueList:
		parts := make([]string, len(v.List))
		for i, x := range v.List {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "null"
	}
}

func (v ConditionValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Num)
	case ValueBool:
		return json.Marshal(v.Bool)
	case ValueList:
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a number, a boolean or a list of numbers. Any other
// shape decodes to ValueNone and is rejected by rule-set validation.
func (v *ConditionValue) UnmarshalJSON(b []byte) error {
	*v = ConditionValue{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case 't', 'f':
		var x bool
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		*v = Flag(x)
	case '[':
		var xs []float64
		if err := json.Unmarshal(b, &xs); err != nil {
			return nil
		}
		*v = ConditionValue{Kind: ValueList, List: xs}
	case '"', '{':
		return nil
	default:
		var x float64
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		*v = Number(x)
	}
	return nil
}

// Condition is one comparison against a named indicator.
type Condition struct {
	Indicator IndicatorKey   `json:"indicator" validate:"required"`
	Operator  Operator       `json:"operator" validate:"required"`
	Value     ConditionValue `json:"value"`
}

func (c Condition) String() string {
	return string(c.Indicator) + " " + string(c.Operator) + " " + c.Value.String()
}

// RuleSet is an ordered list of conditions combined with AND or OR.
type RuleSet struct {
	Conditions []Condition `json:"conditions" validate:"required,min=1,dive"`
	Logic      Logic       `json:"logic" validate:"required,oneof=AND OR"`
}

type RiskParams struct {
	RiskPercent float64 `json:"risk_percent" default:"1" validate:"gt=0,lte=100"`
	RewardRatio float64 `json:"reward_ratio" default:"2" validate:"gt=0,lte=20"`
}

// Filters gate an asset before any rule work; zero means unset.
type Filters struct {
	MinMarketCap float64 `json:"min_market_cap,omitempty" validate:"gte=0"`
	MaxMarketCap float64 `json:"max_market_cap,omitempty" validate:"gte=0"`
	MinVolume    float64 `json:"min_volume,omitempty" validate:"gte=0"`
}

// Allows reports whether the asset passes every configured filter.
func (f Filters) Allows(a RawAssetSnapshot) bool {
	if f.MinMarketCap > 0 && a.MarketCap < f.MinMarketCap {
		return false
	}
	if f.MaxMarketCap > 0 && a.MarketCap > f.MaxMarketCap {
		return false
	}
	if f.MinVolume > 0 && a.Volume24h < f.MinVolume {
		return false
	}
	return true
}

// Strategy is a declarative trading strategy. It is read-only to the scan path.
type Strategy struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        StrategyType `json:"type"`
	Timeframes  []string     `json:"timeframes"`
	EntryRules  RuleSet      `json:"entry_rules"`
	ExitRules   *RuleSet     `json:"exit_rules,omitempty"`
	RiskParams  RiskParams   `json:"risk_params"`
	Filters     Filters      `json:"filters"`
	IsActive    bool         `json:"is_active"`
	IsBuiltin   bool         `json:"is_builtin"`
	AIGenerated bool         `json:"ai_generated"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Clone returns a deep copy so callers cannot mutate shared definitions.
func (s Strategy) Clone() Strategy {
	out := s
	out.Timeframes = append([]string(nil), s.Timeframes...)
	out.EntryRules = s.EntryRules.clone()
	if s.ExitRules != nil {
		rs := s.ExitRules.clone()
		out.ExitRules = &rs
	}
	return out
}

// PrimaryTimeframe is the first declared timeframe, or "1h".
func (s Strategy) PrimaryTimeframe() string {
	if len(s.Timeframes) == 0 {
		return "1h"
	}
	return s.Timeframes[0]
}

func (rs RuleSet) clone() RuleSet {
	out := RuleSet{Logic: rs.Logic, Conditions: make([]Condition, len(rs.Conditions))}
	for i, c := range rs.Conditions {
		c.Value.List = append([]float64(nil), c.Value.List...)
		out.Conditions[i] = c
	}
	return out
}
