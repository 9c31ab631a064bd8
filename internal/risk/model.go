package risk

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vitalmine-server/internal/vitals"
)

// Strategy kinds accepted by NewStrategy.
const (
	KindRule  = "rule"
	KindModel = "model"
)

// Predictor is a trained binary classifier: 1 means sick, 0 healthy.
type Predictor interface {
	Predict(temperature float64, heartRate, respRate int, wbcCount float64) (int, error)
}

// ModelStrategy wraps a Predictor. It reports ClassifierUnavailableError when
// the predictor is missing, fails, or answers outside {0,1}.
type ModelStrategy struct {
	Predictor Predictor
}

func (ModelStrategy) Name() string { return "model" }

func (m ModelStrategy) Classify(v vitals.Vitals) (d Decision, err error) {
	if m.Predictor == nil {
		return Decision{}, &ClassifierUnavailableError{Reason: "no model loaded"}
	}
	defer func() {
		if r := recover(); r != nil {
			d, err = Decision{}, &ClassifierUnavailableError{Reason: "predictor panicked", Err: fmt.Errorf("%v", r)}
		}
	}()

	out, err := m.Predictor.Predict(v.Temperature, v.HeartRate, v.RespRate, v.WBCCount)
	if err != nil {
		return Decision{}, &ClassifierUnavailableError{Reason: "predict failed", Err: err}
	}
	switch out {
	case 1:
		return Decision{Label: High, Strategy: m.Name()}, nil
	case 0:
		return Decision{Label: Stable, Strategy: m.Name()}, nil
	default:
		return Decision{}, &ClassifierUnavailableError{Reason: fmt.Sprintf("unexpected prediction %d", out)}
	}
}

// Fallback runs Primary and, on any error, answers with the SIRS rule
// strategy instead. Classify never returns an error.
type Fallback struct {
	Primary Strategy
	Rule    SIRS
	Log     *zap.Logger
}

func (f *Fallback) Name() string {
	if f.Primary == nil {
		return f.Rule.Name()
	}
	return f.Primary.Name()
}

func (f *Fallback) Classify(v vitals.Vitals) (Decision, error) {
	if f.Primary != nil {
		d, err := f.Primary.Classify(v)
		if err == nil {
			return d, nil
		}
		if f.Log != nil {
			f.Log.Warn("risk classifier fell back to SIRS rules",
				zap.String("primary", f.Primary.Name()),
				zap.Bool("classifier_unavailable", errors.Is(err, ErrClassifierUnavailable)),
				zap.Error(err),
			)
		}
	}
	d, _ := f.Rule.Classify(v)
	d.Strategy = f.Rule.Name() + "-fallback"
	return d, nil
}

// NewStrategy selects the base strategy at configuration time. The model
// strategy is only used when a predictor was loaded, and is always guarded
// by the rule fallback.
func NewStrategy(kind string, predictor Predictor, log *zap.Logger) Strategy {
	if kind == KindModel && predictor != nil {
		return &Fallback{Primary: ModelStrategy{Predictor: predictor}, Log: log}
	}
	if kind == KindModel && log != nil {
		log.Warn("model strategy requested but no model is loaded, using SIRS rules")
	}
	return SIRS{}
}
