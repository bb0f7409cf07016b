// Package score loads YAML score files into ready-to-instantiate part
// specifications.
//
// A score looks like:
//
//	bpm: 120
//	ppq: 192
//	parts:
//	  - name: bass
//	    loop: true
//	    loopEnd: 1m
//	    humanize: true
//	    events:
//	      - ["0", "C2"]          # pair form: [time, value]
//	      - time: 4n             # object form: time field plus value
//	        value: E2
//	      - time: 2n             # ...or arbitrary extra fields as the value
//	        note: G2
//	        velocity: 90
//
// Times are notation expressions (see the notation package) or bare tick
// integers. Object-form inputs are copied; the caller's mapping is never
// mutated.
package score

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/partline/partline"
	"github.com/partline/partline/notation"
)

// Score is a parsed score file with its conversion context resolved.
type Score struct {
	BPM   float64
	PPQ   int
	Conv  *notation.Converter
	Parts []PartSpec
}

// PartSpec is everything needed to instantiate one part against a clock.
type PartSpec struct {
	Name   string
	Config partline.Config
	Notes  []partline.Note
}

// NewPart instantiates the spec.
func (ps PartSpec) NewPart(clock partline.Clock, callback partline.Callback) *partline.Part {
	return partline.NewPart(clock, callback, ps.Notes, ps.Config)
}

type scoreFile struct {
	BPM   float64    `yaml:"bpm"`
	PPQ   int        `yaml:"ppq"`
	Parts []partFile `yaml:"parts"`
}

type partFile struct {
	Name         string     `yaml:"name"`
	Loop         yaml.Node  `yaml:"loop"`
	LoopStart    string     `yaml:"loopStart"`
	LoopEnd      string     `yaml:"loopEnd"`
	PlaybackRate float64    `yaml:"playbackRate"`
	Probability  *float64   `yaml:"probability"`
	Humanize     yaml.Node  `yaml:"humanize"`
	Mute         bool       `yaml:"mute"`
	StartOffset  string     `yaml:"startOffset"`
	Seed         int64      `yaml:"seed"`
	Events       []eventDef `yaml:"events"`
}

// eventDef accepts either a [time, value] sequence or a mapping carrying a
// time field.
type eventDef struct {
	Time  string
	Value any
}

func (e *eventDef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("score: pair event needs [time, value], got %d items", len(node.Content))
		}
		var timeVal any
		if err := node.Content[0].Decode(&timeVal); err != nil {
			return fmt.Errorf("score: pair event time: %w", err)
		}
		e.Time = fmt.Sprint(timeVal)
		return node.Content[1].Decode(&e.Value)
	case yaml.MappingNode:
		var m map[string]any
		if err := node.Decode(&m); err != nil {
			return err
		}
		timeVal, ok := m["time"]
		if !ok {
			return fmt.Errorf("score: mapping event needs a time field")
		}
		e.Time = fmt.Sprint(timeVal)
		// Work on a copy so the decoded mapping keeps its shape elsewhere.
		rest := make(map[string]any, len(m))
		for k, v := range m {
			if k != "time" {
				rest[k] = v
			}
		}
		if v, ok := rest["value"]; ok && len(rest) == 1 {
			e.Value = v
		} else {
			e.Value = rest
		}
		return nil
	}
	return fmt.Errorf("score: event must be a [time, value] pair or a mapping with a time field")
}

// Load reads and parses a score file.
func Load(path string) (*Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("score: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses score YAML.
func Parse(data []byte) (*Score, error) {
	var sf scoreFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("score: parse: %w", err)
	}
	if sf.BPM <= 0 {
		sf.BPM = notation.DefaultBPM
	}
	if sf.PPQ <= 0 {
		sf.PPQ = notation.DefaultPPQ
	}
	conv := notation.New(sf.PPQ, sf.BPM)

	s := &Score{BPM: sf.BPM, PPQ: sf.PPQ, Conv: conv}
	for i, pf := range sf.Parts {
		spec, err := resolvePart(pf, conv)
		if err != nil {
			return nil, fmt.Errorf("score: part %d (%s): %w", i, pf.Name, err)
		}
		s.Parts = append(s.Parts, spec)
	}
	return s, nil
}

func resolvePart(pf partFile, conv *notation.Converter) (PartSpec, error) {
	cfg := partline.DefaultConfig()
	cfg.LoopEnd = int64(4 * conv.PPQ) // one measure at the score's resolution
	cfg.Seed = pf.Seed

	var err error
	if cfg.Loop, err = resolveLoop(&pf.Loop); err != nil {
		return PartSpec{}, err
	}
	if pf.LoopStart != "" {
		if cfg.LoopStart, err = conv.ToTicks(pf.LoopStart); err != nil {
			return PartSpec{}, err
		}
	}
	if pf.LoopEnd != "" {
		if cfg.LoopEnd, err = conv.ToTicks(pf.LoopEnd); err != nil {
			return PartSpec{}, err
		}
	}
	if pf.StartOffset != "" {
		if cfg.StartOffset, err = conv.ToTicks(pf.StartOffset); err != nil {
			return PartSpec{}, err
		}
	}
	if pf.PlaybackRate != 0 {
		cfg.PlaybackRate = pf.PlaybackRate
	}
	if pf.Probability != nil {
		cfg.Probability = *pf.Probability
	}
	if cfg.Humanize, err = resolveHumanize(&pf.Humanize, conv); err != nil {
		return PartSpec{}, err
	}
	cfg.Mute = pf.Mute

	spec := PartSpec{Name: pf.Name, Config: cfg}
	for _, ev := range pf.Events {
		tick, err := conv.ToTicks(ev.Time)
		if err != nil {
			return PartSpec{}, err
		}
		spec.Notes = append(spec.Notes, partline.Note{Tick: tick, Value: ev.Value})
	}
	return spec, nil
}

// resolveLoop accepts false/true/N: off, forever, or N iterations.
func resolveLoop(node *yaml.Node) (int64, error) {
	if node == nil || node.IsZero() {
		return partline.LoopOff, nil
	}
	var b bool
	if err := node.Decode(&b); err == nil {
		if b {
			return partline.LoopForever, nil
		}
		return partline.LoopOff, nil
	}
	var n int64
	if err := node.Decode(&n); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("loop count must be positive, got %d", n)
		}
		return n, nil
	}
	return 0, fmt.Errorf("loop must be a bool or an iteration count")
}

// resolveHumanize accepts false/true/duration: true means a 64th-note
// default jitter.
func resolveHumanize(node *yaml.Node, conv *notation.Converter) (int64, error) {
	if node == nil || node.IsZero() {
		return 0, nil
	}
	var b bool
	if err := node.Decode(&b); err == nil {
		if b {
			return int64(conv.PPQ / 16), nil // 64th note
		}
		return 0, nil
	}
	var s string
	if err := node.Decode(&s); err == nil {
		return conv.ToTicks(s)
	}
	var n int64
	if err := node.Decode(&n); err == nil {
		return n, nil
	}
	return 0, fmt.Errorf("humanize must be a bool or a duration")
}
