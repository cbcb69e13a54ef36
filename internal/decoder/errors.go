package decoder

import (
	"errors"
	"fmt"

	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
	"github.com/ironsheep/inscription-decoder/internal/script"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrInvalidImage         = imaging.ErrInvalidImage
	ErrDetectionUnavailable = detection.ErrDetectionUnavailable
	ErrTableLoad            = script.ErrTableLoad
)

// Kind discriminates pipeline failures.
type Kind int

// Failure kinds.
const (
	KindInvalidImage Kind = iota + 1
	KindDetectionUnavailable
	KindTableLoad
)

func (k Kind) String() string {
	switch k {
	case KindInvalidImage:
		return "invalid_image"
	case KindDetectionUnavailable:
		return "detection_unavailable"
	case KindTableLoad:
		return "table_load"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{KindInvalidImage, KindDetectionUnavailable, KindTableLoad} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown failure kind %q", text)
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidImage:
		return ErrInvalidImage
	case KindDetectionUnavailable:
		return ErrDetectionUnavailable
	case KindTableLoad:
		return ErrTableLoad
	default:
		return nil
	}
}

// Error is the single failure returned by the pipeline.
type Error struct {
	Kind  Kind
	Stage Stage
	Trace Trace
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode failed while %s (%s): %v", e.Stage, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind, even when the cause does not wrap it.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the failure kind of err, or zero if err did not come from
// the pipeline.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// StageOf returns the stage err failed in, or Idle if err did not come from
// the pipeline.
func StageOf(err error) Stage {
	var de *Error
	if errors.As(err, &de) {
		return de.Stage
	}
	return StageIdle
}
