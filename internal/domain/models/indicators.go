package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// IndicatorKey names one entry of the closed indicator vocabulary.
type IndicatorKey string

const (
	IndCurrentPrice     IndicatorKey = "current_price"
	IndPriceChange24h   IndicatorKey = "price_change_24h"
	IndPriceChange1h    IndicatorKey = "price_change_1h"
	IndHigh24h          IndicatorKey = "high_24h"
	IndLow24h           IndicatorKey = "low_24h"
	IndVolume24h        IndicatorKey = "volume_24h"
	IndMarketCap        IndicatorKey = "market_cap"
	IndPricePosition    IndicatorKey = "price_position"
	IndPriceNearHigh    IndicatorKey = "price_near_high"
	IndPriceNearLow     IndicatorKey = "price_near_low"
	IndRSIEstimate      IndicatorKey = "rsi_estimate"
	IndRSIOversold      IndicatorKey = "rsi_oversold"
	IndRSIOverbought    IndicatorKey = "rsi_overbought"
	IndVolumeRatio      IndicatorKey = "volume_ratio"
	IndVolumeTrend      IndicatorKey = "volume_trend"
	IndVolumeSpike      IndicatorKey = "volume_spike"
	IndVolumeDecay      IndicatorKey = "volume_decay"
	IndVolumeExhaustion IndicatorKey = "volume_exhaustion"
	IndVolumeRevival    IndicatorKey = "volume_revival"
	IndPriceAboveEMA    IndicatorKey = "price_above_ema"
	IndPriceStall       IndicatorKey = "price_stall"
)

// IndicatorKeys lists the vocabulary in a stable order.
var IndicatorKeys = []IndicatorKey{
	IndCurrentPrice, IndPriceChange24h, IndPriceChange1h, IndHigh24h, IndLow24h,
	IndVolume24h, IndMarketCap, IndPricePosition, IndPriceNearHigh, IndPriceNearLow,
	IndRSIEstimate, IndRSIOversold, IndRSIOverbought, IndVolumeRatio, IndVolumeTrend,
	IndVolumeSpike, IndVolumeDecay, IndVolumeExhaustion, IndVolumeRevival,
	IndPriceAboveEMA, IndPriceStall,
}

// Known reports whether k belongs to the vocabulary.
func (k IndicatorKey) Known() bool {
	switch k {
	case IndCurrentPrice, IndPriceChange24h, IndPriceChange1h, IndHigh24h, IndLow24h,
		IndVolume24h, IndMarketCap, IndPricePosition, IndPriceNearHigh, IndPriceNearLow,
		IndRSIEstimate, IndRSIOversold, IndRSIOverbought, IndVolumeRatio, IndVolumeTrend,
		IndVolumeSpike, IndVolumeDecay, IndVolumeExhaustion, IndVolumeRevival,
		IndPriceAboveEMA, IndPriceStall:
		return true
	default:
		return false
	}
}

// IndicatorValue is either a number or a boolean.
type IndicatorValue struct {
	Num    float64
	Bool   bool
	IsBool bool
}

func NumValue(v float64) IndicatorValue { return IndicatorValue{Num: v} }

func BoolValue(v bool) IndicatorValue { return IndicatorValue{Bool: v, IsBool: true} }

// Float returns the numeric view; booleans map to 1 and 0.
func (v IndicatorValue) Float() float64 {
	if v.IsBool {
		if v.Bool {
			return 1
		}
		return 0
	}
	return v.Num
}

func (v IndicatorValue) String() string {
	if v.IsBool {
		return strconv.FormatBool(v.Bool)
	}
	return strconv.FormatFloat(v.Num, 'g', 6, 64)
}

func (v IndicatorValue) MarshalJSON() ([]byte, error) {
	if v.IsBool {
		return json.Marshal(v.Bool)
	}
	return json.Marshal(v.Num)
}

// UnmarshalJSON reads back what MarshalJSON writes: a boolean or a number.
func (v *IndicatorValue) UnmarshalJSON(b []byte) error {
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
		*v = BoolValue(x)
	case '"', '{', '[':
		return fmt.Errorf("indicator value must be a number or boolean, got %s", b)
	default:
		var x float64
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		*v = NumValue(x)
	}
	return nil
}

// IndicatorMap is a sparse indicator set, used for serialization and for
// evaluating rules against a partial snapshot.
type IndicatorMap map[IndicatorKey]IndicatorValue

func (m IndicatorMap) Lookup(k IndicatorKey) (IndicatorValue, bool) {
	v, ok := m[k]
	return v, ok
}

// Snapshot holds the derived indicators for one asset in one scan pass.
type Snapshot struct {
	CurrentPrice   float64
	PriceChange24h float64
	PriceChange1h  float64
	High24h        float64
	Low24h         float64
	Volume24h      float64
	MarketCap      float64

	PricePosition float64
	PriceNearHigh bool
	PriceNearLow  bool

	RSIEstimate   float64
	RSIOversold   bool
	RSIOverbought bool

	VolumeRatio      float64
	VolumeSpike      bool
	VolumeDecay      bool
	VolumeExhaustion bool
	VolumeRevival    bool

	PriceAboveEMA bool
	PriceStall    bool
}

// Lookup resolves a vocabulary key. Keys outside the vocabulary are absent.
func (s Snapshot) Lookup(k IndicatorKey) (IndicatorValue, bool) {
	switch k {
	case IndCurrentPrice:
		return NumValue(s.CurrentPrice), true
	case IndPriceChange24h:
		return NumValue(s.PriceChange24h), true
	case IndPriceChange1h:
		return NumValue(s.PriceChange1h), true
	case IndHigh24h:
		return NumValue(s.High24h), true
	case IndLow24h:
		return NumValue(s.Low24h), true
	case IndVolume24h:
		return NumValue(s.Volume24h), true
	case IndMarketCap:
		return NumValue(s.MarketCap), true
	case IndPricePosition:
		return NumValue(s.PricePosition), true
	case IndPriceNearHigh:
		return BoolValue(s.PriceNearHigh), true
	case IndPriceNearLow:
		return BoolValue(s.PriceNearLow), true
	case IndRSIEstimate:
		return NumValue(s.RSIEstimate), true
	case IndRSIOversold:
		return BoolValue(s.RSIOversold), true
	case IndRSIOverbought:
		return BoolValue(s.RSIOverbought), true
	case IndVolumeRatio, IndVolumeTrend:
		return NumValue(s.VolumeRatio), true
	case IndVolumeSpike:
		return BoolValue(s.VolumeSpike), true
	case IndVolumeDecay:
		return BoolValue(s.VolumeDecay), true
	case IndVolumeExhaustion:
		return BoolValue(s.VolumeExhaustion), true
	case IndVolumeRevival:
		return BoolValue(s.VolumeRevival), true
	case IndPriceAboveEMA:
		return BoolValue(s.PriceAboveEMA), true
	case IndPriceStall:
		return BoolValue(s.PriceStall), true
	default:
		return IndicatorValue{}, false
	}
}

// Map expands the snapshot into a keyed set.
func (s Snapshot) Map() IndicatorMap {
	out := make(IndicatorMap, len(IndicatorKeys))
	for _, k := range IndicatorKeys {
		if v, ok := s.Lookup(k); ok {
			out[k] = v
		}
	}
	return out
}
