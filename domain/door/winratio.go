package door

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// WinRatioKind distinguishes a finite win ratio from the two degenerate cases.
type WinRatioKind int

const (
	// Finite means control won at least one pair.
	Finite WinRatioKind = iota
	// Infinite means treatment won every non-tied pair and won at least one.
	Infinite
	// Undefined means no pair had a winner, every comparison tied.
	Undefined
)

func (k WinRatioKind) String() string {
	switch k {
	case Finite:
		return "finite"
	case Infinite:
		return "infinite"
	case Undefined:
		return "undefined"
	default:
		return fmt.Sprintf("WinRatioKind(%d)", int(k))
	}
}

// WinRatio is treatment wins over control wins, tagged so the zero-denominator
// cases never pass through a division.
type WinRatio struct {
	Kind  WinRatioKind
	Value float64 // meaningful only when Kind == Finite
}

// NewWinRatio derives the ratio from a tally.
func NewWinRatio(t Tally) WinRatio {
	switch {
	case t.ControlWins > 0:
		return WinRatio{Kind: Finite, Value: float64(t.TreatmentWins) / float64(t.ControlWins)}
	case t.TreatmentWins > 0:
		return WinRatio{Kind: Infinite}
	default:
		return WinRatio{Kind: Undefined}
	}
}

// IsFinite reports whether Value holds the ratio.
func (w WinRatio) IsFinite() bool { return w.Kind == Finite }

// Float64 maps the ratio onto IEEE 754: +Inf for Infinite, NaN for Undefined.
func (w WinRatio) Float64() float64 {
	switch w.Kind {
	case Finite:
		return w.Value
	case Infinite:
		return math.Inf(1)
	default:
		return math.NaN()
	}
}

// Favors returns +1 when treatment is favoured, -1 for control and 0 for equipoise.
func (w WinRatio) Favors() int {
	switch {
	case w.Kind == Infinite:
		return 1
	case w.Kind == Undefined:
		return 0
	case w.Value > 1:
		return 1
	case w.Value < 1:
		return -1
	default:
		return 0
	}
}

// Format renders the ratio with the given precision; "∞" and "undefined" for
// the degenerate kinds.
func (w WinRatio) Format(prec int) string {
	switch w.Kind {
	case Finite:
		return strconv.FormatFloat(w.Value, 'f', prec, 64)
	case Infinite:
		return "∞"
	default:
		return "undefined"
	}
}

func (w WinRatio) String() string { return w.Format(2) }

// MarshalJSON encodes Finite as a number, Infinite as "Infinity" and Undefined as null.
func (w WinRatio) MarshalJSON() ([]byte, error) {
	switch w.Kind {
	case Finite:
		return json.Marshal(w.Value)
	case Infinite:
		return []byte(`"Infinity"`), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the encodings produced by MarshalJSON.
func (w *WinRatio) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*w = WinRatio{Kind: Undefined}
		return nil
	case `"Infinity"`:
		*w = WinRatio{Kind: Infinite}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("win ratio: %w", err)
	}
	*w = WinRatio{Kind: Finite, Value: v}
	return nil
}
