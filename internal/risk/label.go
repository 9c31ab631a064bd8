// Package risk maps validated vitals to a sepsis-risk label.
//
// Two base strategies exist: the deterministic SIRS rule count and a trained
// binary classifier. The combined Policy layers a single-vital Warning tier on
// top of whichever base strategy is configured.
package risk

import (
	"errors"
	"fmt"

	"vitalmine-server/internal/vitals"
)

// Label is the three-tier classification attached to each reading.
type Label string

const (
	Stable  Label = "Stable"
	Warning Label = "Warning"
	High    Label = "High"
)

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	switch l {
	case Stable, Warning, High:
		return true
	}
	return false
}

// Decision is the output of a base strategy.
type Decision struct {
	Label    Label
	Strategy string
}

// Strategy is a base risk classifier. Implementations must be safe for
// concurrent use.
type Strategy interface {
	Name() string
	Classify(v vitals.Vitals) (Decision, error)
}

// ErrClassifierUnavailable is matched by every ClassifierUnavailableError.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// ClassifierUnavailableError reports that the trained model could not produce
// a decision. It never leaves this package's Fallback.
type ClassifierUnavailableError struct {
	Reason string
	Err    error
}

func (e *ClassifierUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classifier unavailable: %s: %v", e.Reason, e.Err)
	}
	return "classifier unavailable: " + e.Reason
}

func (e *ClassifierUnavailableError) Unwrap() error { return e.Err }

func (e *ClassifierUnavailableError) Is(target error) bool {
	return target == ErrClassifierUnavailable
}
