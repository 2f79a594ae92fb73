package engine

import (
	"math"

	"TraderGenie/internal/domain/models"
)

const (
	nearHighThreshold   = 0.9
	nearLowThreshold    = 0.1
	rsiMidpoint         = 50.0
	rsiSlope            = 2.0
	rsiOversoldLevel    = 30.0
	rsiOverboughtLevel  = 70.0
	volumeAverageFactor = 1.2
	volumeSpikeLevel    = 2.0
	volumeDecayLevel    = 0.8
	volumeExhaustLevel  = 0.5
	volumeRevivalLevel  = 1.5
	stallHourlyBand     = 1.0
	stallDailyMove      = 15.0
)

// DeriveIndicators computes the indicator snapshot for one asset. It is pure
// and never fails; zero raw fields yield the degenerate defaults.
func DeriveIndicators(a models.RawAssetSnapshot) models.Snapshot {
	s := models.Snapshot{
		CurrentPrice:   a.CurrentPrice,
		PriceChange24h: a.PriceChangePct24h,
		PriceChange1h:  a.PriceChangePct1h,
		High24h:        a.High24h,
		Low24h:         a.Low24h,
		Volume24h:      a.Volume24h,
		MarketCap:      a.MarketCap,
	}

	s.PricePosition = pricePosition(a.CurrentPrice, a.High24h, a.Low24h)
	s.PriceNearHigh = s.PricePosition >= nearHighThreshold
	s.PriceNearLow = s.PricePosition <= nearLowThreshold

	s.RSIEstimate = clamp(rsiMidpoint+rsiSlope*a.PriceChangePct24h, 0, 100)
	s.RSIOversold = s.RSIEstimate < rsiOversoldLevel
	s.RSIOverbought = s.RSIEstimate > rsiOverboughtLevel

	// average volume is estimated as volume/1.2, so any traded volume gives 1.2
	if a.Volume24h > 0 {
		s.VolumeRatio = volumeAverageFactor
	}
	s.VolumeSpike = s.VolumeRatio >= volumeSpikeLevel
	s.VolumeDecay = s.VolumeRatio < volumeDecayLevel
	s.VolumeExhaustion = s.VolumeRatio < volumeExhaustLevel
	s.VolumeRevival = s.VolumeRatio > volumeRevivalLevel

	s.PriceAboveEMA = a.PriceChangePct24h > 0
	s.PriceStall = math.Abs(a.PriceChangePct1h) < stallHourlyBand && a.PriceChangePct24h > stallDailyMove

	return s
}

func pricePosition(cur, high, low float64) float64 {
	rng := high - low
	if rng <= 0 || math.IsNaN(rng) {
		return 0.5
	}
	return clamp((cur-low)/rng, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
