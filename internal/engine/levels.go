package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"TraderGenie/internal/domain/models"
)

const (
	// LevelPrecision keeps sub-cent assets meaningful.
	LevelPrecision      = 8
	riskRewardPrecision = 2
	volatilityFactor    = 0.5
	secondTargetFactor  = 1.5
)

// ComputeLevels places stop and targets around price using half the 24h
// range as the volatility proxy. Short directions mirror long ones.
func ComputeLevels(price float64, dir models.Direction, rrRatio, high, low float64) models.TradeLevels {
	p := decimal.NewFromFloat(price)
	vp := decimal.NewFromFloat(math.Max(0, (high-low)*volatilityFactor))
	rr := decimal.NewFromFloat(rrRatio)
	reward := vp.Mul(rr)
	reward2 := reward.Mul(decimal.NewFromFloat(secondTargetFactor))

	var sl, tp, tp2 decimal.Decimal
	if dir.IsShort() {
		sl, tp, tp2 = p.Add(vp), p.Sub(reward), p.Sub(reward2)
	} else {
		sl, tp, tp2 = p.Sub(vp), p.Add(reward), p.Add(reward2)
	}

	lv := models.TradeLevels{
		Entry:       round(p, LevelPrecision),
		StopLoss:    round(sl, LevelPrecision),
		TakeProfit:  round(tp, LevelPrecision),
		TakeProfit2: round(tp2, LevelPrecision),
	}
	lv.RiskReward = RiskReward(lv.Entry, lv.StopLoss, lv.TakeProfit)
	return lv
}

// RiskReward is |tp-entry| / |sl-entry|, or 0 when the stop sits on entry.
func RiskReward(entry, sl, tp float64) float64 {
	e := decimal.NewFromFloat(entry)
	risk := decimal.NewFromFloat(sl).Sub(e).Abs()
	if risk.IsZero() {
		return 0
	}
	reward := decimal.NewFromFloat(tp).Sub(e).Abs()
	return round(reward.Div(risk), riskRewardPrecision)
}

func round(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}
