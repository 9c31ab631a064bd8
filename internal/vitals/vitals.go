package vitals

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Physiological bounds accepted by the validator.
const (
	MinTemperature = 30.0
	MaxTemperature = 45.0
	MaxHeartRate   = 300
	MaxRespRate    = 100
	MaxWBCCount    = 1_000_000.0
)

// ErrInvalidVitals is matched by every InvalidVitalsError through errors.Is.
var ErrInvalidVitals = errors.New("invalid vitals")

// Vitals is a normalized set of the four measurements used for scoring.
type Vitals struct {
	Temperature float64 `json:"temperature"`
	HeartRate   int     `json:"heartRate"`
	RespRate    int     `json:"respRate"`
	WBCCount    float64 `json:"wbcCount"`
}

// Raw holds unparsed form values.
type Raw struct {
	Temperature string
	HeartRate   string
	RespRate    string
	WBCCount    string
}

// InvalidVitalsError describes the first field that failed validation.
type InvalidVitalsError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidVitalsError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidVitalsError) Is(target error) bool {
	return target == ErrInvalidVitals
}

// ParseRaw parses and range-checks form input.
func ParseRaw(raw Raw) (Vitals, error) {
	temp, err := parseFloat("temperature", raw.Temperature)
	if err != nil {
		return Vitals{}, err
	}
	hr, err := parseInt("heart_rate", raw.HeartRate)
	if err != nil {
		return Vitals{}, err
	}
	rr, err := parseInt("resp_rate", raw.RespRate)
	if err != nil {
		return Vitals{}, err
	}
	wbc, err := parseFloat("wbc_count", raw.WBCCount)
	if err != nil {
		return Vitals{}, err
	}
	return Validate(Vitals{Temperature: temp, HeartRate: hr, RespRate: rr, WBCCount: wbc})
}

// Validate range-checks already numeric input.
func Validate(v Vitals) (Vitals, error) {
	switch {
	case math.IsNaN(v.Temperature) || math.IsInf(v.Temperature, 0):
		return Vitals{}, invalid("temperature", v.Temperature, "must be a finite number")
	case v.Temperature < MinTemperature || v.Temperature > MaxTemperature:
		return Vitals{}, invalid("temperature", v.Temperature,
			fmt.Sprintf("must be between %.1f and %.1f °C", MinTemperature, MaxTemperature))
	case v.HeartRate <= 0 || v.HeartRate > MaxHeartRate:
		return Vitals{}, invalid("heart_rate", v.HeartRate, fmt.Sprintf("must be between 1 and %d bpm", MaxHeartRate))
	case v.RespRate <= 0 || v.RespRate > MaxRespRate:
		return Vitals{}, invalid("resp_rate", v.RespRate, fmt.Sprintf("must be between 1 and %d breaths/min", MaxRespRate))
	case math.IsNaN(v.WBCCount) || math.IsInf(v.WBCCount, 0):
		return Vitals{}, invalid("wbc_count", v.WBCCount, "must be a finite number")
	case v.WBCCount < 0 || v.WBCCount > MaxWBCCount:
		return Vitals{}, invalid("wbc_count", v.WBCCount, fmt.Sprintf("must be between 0 and %.0f cells/µL", MaxWBCCount))
	}
	return v, nil
}

func parseFloat(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &InvalidVitalsError{Field: field, Reason: "is required"}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &InvalidVitalsError{Field: field, Value: s, Reason: "not a number"}
	}
	return f, nil
}

func parseInt(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &InvalidVitalsError{Field: field, Reason: "is required"}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &InvalidVitalsError{Field: field, Value: s, Reason: "not an integer"}
	}
	return n, nil
}

func invalid(field string, value any, reason string) *InvalidVitalsError {
	return &InvalidVitalsError{Field: field, Value: fmt.Sprint(value), Reason: reason}
}
