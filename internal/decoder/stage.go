package decoder

import (
	"fmt"
	"strings"
)

// Stage is a state of one pipeline invocation.
type Stage int

// Pipeline stages in the order they run. Failed is terminal and can follow
// any stage.
const (
	StageIdle Stage = iota
	StageNormalizing
	StageDetecting
	StageTransliterating
	StageAnnotating
	StageAggregated
	StageFailed
)

var stageNames = [...]string{
	StageIdle:            "idle",
	StageNormalizing:     "normalizing",
	StageDetecting:       "detecting",
	StageTransliterating: "transliterating",
	StageAnnotating:      "annotating",
	StageAggregated:      "aggregated",
	StageFailed:          "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText renders the stage name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// Terminal reports whether no further transition follows s.
func (s Stage) Terminal() bool {
	return s == StageAggregated || s == StageFailed
}

// next returns the stage that follows s on success.
func (s Stage) next() Stage {
	if s >= StageIdle && s < StageAggregated {
		return s + 1
	}
	return s
}

// Trace is the sequence of stages an invocation went through.
type Trace []Stage

func (t Trace) String() string {
	parts := make([]string, len(t))
	for i, s := range t {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// Last returns the final stage, Idle for an empty trace.
func (t Trace) Last() Stage {
	if len(t) == 0 {
		return StageIdle
	}
	return t[len(t)-1]
}
