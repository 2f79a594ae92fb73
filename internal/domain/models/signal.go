package models

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the side of a trading signal.
type Direction string

const (
	DirectionBuy   Direction = "BUY"
	DirectionSell  Direction = "SELL"
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// IsShort reports whether levels for d are placed below entry on the target side.
func (d Direction) IsShort() bool { return d == DirectionSell || d == DirectionShort }

// ConfidenceTier buckets a 0-100 confidence score.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "HIGH"
	TierMedium ConfidenceTier = "MEDIUM"
	TierLow    ConfidenceTier = "LOW"
)

func TierFor(score int) ConfidenceTier {
	switch {
	case score >= 80:
		return TierHigh
	case score >= 60:
		return TierMedium
	default:
		return TierLow
	}
}

// TradeLevels are the computed entry, stop and targets for one signal.
type TradeLevels struct {
	Entry       float64 `json:"entry_price"`
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit  float64 `json:"take_profit"`
	TakeProfit2 float64 `json:"take_profit_2"`
	RiskReward  float64 `json:"risk_reward"`
}

// Signal is the immutable output of one passing (asset, strategy) pair.
type Signal struct {
	ID           uuid.UUID      `json:"id"`
	AssetID      string         `json:"coin_id"`
	Symbol       string         `json:"symbol"`
	Name         string         `json:"name"`
	StrategyID   string         `json:"strategy_id"`
	StrategyName string         `json:"strategy_name"`
	Direction    Direction      `json:"signal_type"`
	Score        int            `json:"confidence_score"`
	Confidence   ConfidenceTier `json:"confidence"`
	TradeLevels
	MatchedConditions []string     `json:"matched_conditions"`
	Warnings          []string     `json:"warnings"`
	Invalidation      string       `json:"invalidation"`
	Timeframe         string       `json:"timeframe"`
	Indicators        IndicatorMap `json:"indicators,omitempty"`
	CreatedAt         time.Time    `json:"timestamp"`
}

// ScanResult is a ranked signal list plus scan metadata.
type ScanResult struct {
	Signals        []Signal  `json:"signals"`
	ScannedAssets  int       `json:"scanned_coins"`
	StrategiesUsed int       `json:"strategies_used"`
	Degraded       bool      `json:"degraded"`
	Stale          bool      `json:"stale"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
