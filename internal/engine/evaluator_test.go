package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TraderGenie/internal/domain/models"
)

func trendContinuation() models.RuleSet {
	return models.RuleSet{
		Logic: models.LogicAnd,
		Conditions: []models.Condition{
			{Indicator: models.IndPriceChange24h, Operator: models.OpGT, Value: models.Number(0)},
			{Indicator: models.IndPriceAboveEMA, Operator: models.OpEQ, Value: models.Flag(true)},
			{Indicator: models.IndVolumeTrend, Operator: models.OpGT, Value: models.Number(1.0)},
		},
	}
}

func TestEvaluate_TrendContinuationAllMatch(t *testing.T) {
	snap := DeriveIndicators(models.RawAssetSnapshot{PriceChangePct24h: 5, Volume24h: 1000})

	ev := Evaluate(trendContinuation(), snap)

	assert.True(t, ev.Passed)
	assert.Equal(t, 100, ev.Confidence)
	assert.Equal(t, 3, ev.Evaluated)
	require.Len(t, ev.Matched, 3)
	assert.Equal(t, "price_change_24h > 0 (actual: 5)", ev.Matched[0])
	assert.Equal(t, "price_above_ema == true (actual: true)", ev.Matched[1])
	assert.Equal(t, "volume_trend > 1 (actual: 1.2)", ev.Matched[2])
}

func TestEvaluate_TrendContinuationNegativeDay(t *testing.T) {
	snap := DeriveIndicators(models.RawAssetSnapshot{PriceChangePct24h: -2, Volume24h: 1000})

	ev := Evaluate(trendContinuation(), snap)

	assert.False(t, ev.Passed)
	// only volume_trend matches: 1 of 3
	assert.Equal(t, 33, ev.Confidence)
	assert.Len(t, ev.Matched, 1)
}

func TestEvaluate_AndRequiresEveryEvaluatedCondition(t *testing.T) {
	ind := models.IndicatorMap{
		models.IndRSIEstimate: models.NumValue(25),
		models.IndMarketCap:   models.NumValue(1e9),
	}
	rs := models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
		{Indicator: models.IndRSIEstimate, Operator: models.OpLT, Value: models.Number(30)},
		{Indicator: models.IndMarketCap, Operator: models.OpGTE, Value: models.Number(2e9)},
	}}

	ev := Evaluate(rs, ind)
	assert.False(t, ev.Passed)
	assert.Equal(t, 50, ev.Confidence)

	rs.Logic = models.LogicOr
	ev = Evaluate(rs, ind)
	assert.True(t, ev.Passed)
	assert.Equal(t, 50, ev.Confidence)
}

func TestEvaluate_AbsentKeysAreSkipped(t *testing.T) {
	ind := models.IndicatorMap{models.IndPriceChange24h: models.NumValue(3)}

	ev := Evaluate(trendContinuation(), ind)

	assert.True(t, ev.Passed)
	assert.Equal(t, 100, ev.Confidence)
	assert.Equal(t, 1, ev.Evaluated)
}

func TestEvaluate_NothingEvaluable(t *testing.T) {
	tests := []struct {
		name string
		rs   models.RuleSet
		src  IndicatorSource
	}{
		{"empty rule set", models.RuleSet{Logic: models.LogicAnd}, models.Snapshot{}},
		{"empty rule set or", models.RuleSet{Logic: models.LogicOr}, models.Snapshot{}},
		{"all keys absent", trendContinuation(), models.IndicatorMap{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(tt.rs, tt.src)
			assert.False(t, ev.Passed)
			assert.Zero(t, ev.Confidence)
			assert.Empty(t, ev.Matched)
			assert.NotNil(t, ev.Matched)
		})
	}
}

func TestEvaluate_MalformedConditionsDoNotCount(t *testing.T) {
	snap := DeriveIndicators(models.RawAssetSnapshot{CurrentPrice: 105, High24h: 110, Low24h: 100})
	rs := models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
		{Indicator: models.IndPricePosition, Operator: models.OpBetween, Value: models.Range(0.4, 0.6)},
		{Indicator: models.IndPricePosition, Operator: "~=", Value: models.Number(0.5)},
		{Indicator: models.IndPricePosition, Operator: models.OpBetween, Value: models.Number(0.5)},
		{Indicator: models.IndPricePosition, Operator: models.OpBetween, Value: models.Range(0.6, 0.4)},
		{Indicator: models.IndPricePosition, Operator: models.OpGT, Value: models.ConditionValue{}},
	}}

	ev := Evaluate(rs, snap)

	assert.True(t, ev.Passed)
	assert.Equal(t, 100, ev.Confidence)
	assert.Equal(t, 1, ev.Evaluated)
	assert.Equal(t, []string{"price_position between [0.4, 0.6] (actual: 0.5)"}, ev.Matched)
}

func TestEvaluate_Operators(t *testing.T) {
	ind := models.IndicatorMap{
		models.IndRSIEstimate:   models.NumValue(30),
		models.IndRSIOversold:   models.BoolValue(false),
		models.IndVolumeSpike:   models.BoolValue(true),
		models.IndPricePosition: models.NumValue(0.1),
	}
	tests := []struct {
		name string
		cond models.Condition
		want bool
	}{
		{"gt", models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpGT, Value: models.Number(30)}, false},
		{"gte", models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpGTE, Value: models.Number(30)}, true},
		{"lt", models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpLT, Value: models.Number(30)}, false},
		{"lte", models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpLTE, Value: models.Number(30)}, true},
		{"eq number", models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpEQ, Value: models.Number(30)}, true},
		{"eq bool false", models.Condition{Indicator: models.IndRSIOversold, Operator: models.OpEQ, Value: models.Flag(false)}, true},
		{"eq bool true", models.Condition{Indicator: models.IndVolumeSpike, Operator: models.OpEQ, Value: models.Flag(true)}, true},
		{"eq bool as number", models.Condition{Indicator: models.IndVolumeSpike, Operator: models.OpEQ, Value: models.Number(1)}, true},
		{"between inclusive low", models.Condition{Indicator: models.IndPricePosition, Operator: models.OpBetween, Value: models.Range(0.1, 0.3)}, true},
		{"between inclusive high", models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpBetween, Value: models.Range(20, 30)}, true},
		{"between outside", models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpBetween, Value: models.Range(31, 40)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{tt.cond}}, ind)
			assert.Equal(t, tt.want, ev.Passed)
			assert.Equal(t, 1, ev.Evaluated)
		})
	}
}

func TestEvaluate_ConfidenceRounding(t *testing.T) {
	ind := models.IndicatorMap{models.IndRSIEstimate: models.NumValue(50)}
	pass := models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpGT, Value: models.Number(0)}
	fail := models.Condition{Indicator: models.IndRSIEstimate, Operator: models.OpLT, Value: models.Number(0)}

	rs := models.RuleSet{Logic: models.LogicOr, Conditions: []models.Condition{pass, pass, fail}}
	assert.Equal(t, 67, Evaluate(rs, ind).Confidence)

	rs.Conditions = []models.Condition{pass, pass, pass, pass, pass, pass, pass, fail}
	// 7/8 = 87.5 rounds half to even
	assert.Equal(t, 88, Evaluate(rs, ind).Confidence)

	rs.Conditions = []models.Condition{pass, fail, fail, fail, fail, fail, fail, fail}
	// 1/8 = 12.5 rounds half to even
	assert.Equal(t, 12, Evaluate(rs, ind).Confidence)
}

func TestValidateRuleSet(t *testing.T) {
	require.NoError(t, ValidateRuleSet(trendContinuation()))

	tests := []struct {
		name string
		rs   models.RuleSet
	}{
		{"bad logic", models.RuleSet{Logic: "XOR", Conditions: trendContinuation().Conditions}},
		{"no conditions", models.RuleSet{Logic: models.LogicAnd}},
		{"unknown operator", models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			{Indicator: models.IndRSIEstimate, Operator: "!=", Value: models.Number(1)},
		}}},
		{"unknown indicator", models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			{Indicator: "macd", Operator: models.OpGT, Value: models.Number(1)},
		}}},
		{"between scalar", models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			{Indicator: models.IndRSIEstimate, Operator: models.OpBetween, Value: models.Number(1)},
		}}},
		{"between three values", models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			{Indicator: models.IndRSIEstimate, Operator: models.OpBetween, Value: models.ConditionValue{Kind: models.ValueList, List: []float64{1, 2, 3}}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleSet(tt.rs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedCondition))
		})
	}
}
