// Package notation converts between musical time expressions and tick
// counts at a fixed resolution and tempo.
//
// Recognized expressions:
//
//	"4n"      quarter note ("1n" whole .. "64n"), "2n." dotted, "8t" triplet
//	"1m"      whole measures (4/4)
//	"0:1:2"   bars : quarters : sixteenths (sixteenths may be fractional)
//	"384i"    raw ticks
//	"0.5s"    wall-clock seconds at the configured tempo
//	"96"      bare integers are ticks
package notation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Defaults used when a Converter field is zero.
const (
	DefaultPPQ = 192
	DefaultBPM = 120
)

// Converter resolves time expressions against one resolution and tempo.
type Converter struct {
	PPQ int     // ticks per quarter note
	BPM float64 // quarter notes per minute
}

// New returns a Converter, substituting defaults for non-positive values.
func New(ppq int, bpm float64) *Converter {
	if ppq <= 0 {
		ppq = DefaultPPQ
	}
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	return &Converter{PPQ: ppq, BPM: bpm}
}

// TickDuration is the wall-clock length of one tick.
func (c *Converter) TickDuration() time.Duration {
	beat := time.Duration(float64(time.Minute) / c.BPM)
	return beat / time.Duration(c.PPQ)
}

// ToTicks parses a time expression. Malformed input returns an error; the
// empty string is zero ticks.
func (c *Converter) ToTicks(expr string) (int64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, nil
	}
	if strings.Contains(expr, ":") {
		return c.parseBarsBeats(expr)
	}
	if n, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return n, nil
	}

	body, suffix := expr[:len(expr)-1], expr[len(expr)-1]
	dotted := false
	if suffix == '.' {
		// Dotted form like "2n." carries the dot after the suffix.
		if len(body) < 2 {
			return 0, fmt.Errorf("notation: malformed expression %q", expr)
		}
		dotted = true
		body, suffix = body[:len(body)-1], body[len(body)-1]
	}

	switch suffix {
	case 'i':
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("notation: bad tick count %q", expr)
		}
		return n, nil
	case 'm':
		n, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return 0, fmt.Errorf("notation: bad measure count %q", expr)
		}
		return round(n * 4 * float64(c.PPQ)), nil
	case 'n', 't':
		div, err := strconv.ParseFloat(body, 64)
		if err != nil || div <= 0 {
			return 0, fmt.Errorf("notation: bad subdivision %q", expr)
		}
		ticks := 4 * float64(c.PPQ) / div
		if suffix == 't' {
			ticks *= 2.0 / 3.0
		}
		if dotted {
			ticks *= 1.5
		}
		return round(ticks), nil
	case 's':
		secs, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return 0, fmt.Errorf("notation: bad seconds %q", expr)
		}
		return round(secs * c.BPM / 60 * float64(c.PPQ)), nil
	}
	return 0, fmt.Errorf("notation: unrecognized expression %q", expr)
}

// ToNotation renders ticks as the simplest matching expression: an exact
// subdivision when one exists, whole measures, otherwise bars:quarters:
// sixteenths.
func (c *Converter) ToNotation(ticks int64) string {
	if ticks == 0 {
		return "0"
	}
	measure := int64(4 * c.PPQ)
	if ticks%measure == 0 {
		return fmt.Sprintf("%dm", ticks/measure)
	}
	for _, div := range []int64{1, 2, 4, 8, 16, 32, 64} {
		plain := round(4 * float64(c.PPQ) / float64(div))
		if ticks == plain {
			return fmt.Sprintf("%dn", div)
		}
		if ticks == round(1.5*float64(plain)) {
			return fmt.Sprintf("%dn.", div)
		}
		if ticks == round(float64(plain)*2.0/3.0) {
			return fmt.Sprintf("%dt", div)
		}
	}
	quarter := int64(c.PPQ)
	sixteenth := float64(c.PPQ) / 4
	bars := ticks / measure
	rem := ticks % measure
	quarters := rem / quarter
	rem = rem % quarter
	sixteenths := float64(rem) / sixteenth
	return fmt.Sprintf("%d:%d:%s", bars, quarters,
		strconv.FormatFloat(sixteenths, 'f', -1, 64))
}

func (c *Converter) parseBarsBeats(expr string) (int64, error) {
	fields := strings.Split(expr, ":")
	if len(fields) > 3 {
		return 0, fmt.Errorf("notation: malformed position %q", expr)
	}
	var bars, quarters int64
	var sixteenths float64
	var err error
	if bars, err = strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64); err != nil {
		return 0, fmt.Errorf("notation: bad bars in %q", expr)
	}
	if len(fields) > 1 {
		if quarters, err = strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64); err != nil {
			return 0, fmt.Errorf("notation: bad quarters in %q", expr)
		}
	}
	if len(fields) > 2 {
		if sixteenths, err = strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err != nil {
			return 0, fmt.Errorf("notation: bad sixteenths in %q", expr)
		}
	}
	ppq := float64(c.PPQ)
	return round(float64(bars)*4*ppq + float64(quarters)*ppq + sixteenths*ppq/4), nil
}

func round(f float64) int64 {
	return int64(math.Round(f))
}
