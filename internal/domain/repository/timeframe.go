package repository

// Timeframe is a chart resolution a strategy declares interest in.
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF15m, TF1h, TF4h, TF1d:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1h }

// NormalizeTimeframes drops unsupported entries and duplicates, keeping order.
// An empty result falls back to the default timeframe.
func NormalizeTimeframes(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[Timeframe]bool, len(raw))
	for _, s := range raw {
		tf := Timeframe(s)
		if !IsValidTimeframe(tf) || seen[tf] {
			continue
		}
		seen[tf] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		out = append(out, string(DefaultTimeframe()))
	}
	return out
}
