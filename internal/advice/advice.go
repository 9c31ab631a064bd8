// Package advice maps a risk assessment to its fixed advice text.
package advice

import "vitalmine-server/internal/risk"

const (
	Critical    = "CRITICAL: Sepsis signs detected. Proceed to Emergency immediately."
	HighFever   = "High Fever detected. Take antipyretics and hydrate."
	Hypothermia = "Hypothermia Risk. Keep patient warm."
	Tachycardia = "Tachycardia (High Heart Rate). Rest and re-check."
	Tachypnea   = "Hyperventilation detected. Monitor breathing."
	Normal      = "Vitals are normal. Continue standard care."

	// NoData is shown in place of advice when a subject has no readings.
	NoData = "No data logged yet."
)

// Entry is one row of the advice table.
type Entry struct {
	Label   risk.Label
	Trigger risk.Trigger
	Message string
}

// Table holds one non-overlapping message per tier.
var Table = []Entry{
	{Label: risk.High, Message: Critical},
	{Label: risk.Warning, Trigger: risk.Fever, Message: HighFever},
	{Label: risk.Warning, Trigger: risk.Hypothermia, Message: Hypothermia},
	{Label: risk.Warning, Trigger: risk.Tachycardia, Message: Tachycardia},
	{Label: risk.Warning, Trigger: risk.Tachypnea, Message: Tachypnea},
	{Label: risk.Stable, Message: Normal},
}

// For returns the advice for label and trigger. The trigger is ignored for
// High and Stable. An unknown combination falls back to the label's first
// entry so a scored reading always carries advice.
func For(label risk.Label, trigger risk.Trigger) string {
	var fallback string
	for _, e := range Table {
		if e.Label != label {
			continue
		}
		if fallback == "" {
			fallback = e.Message
		}
		if label != risk.Warning || e.Trigger == trigger {
			return e.Message
		}
	}
	if fallback != "" {
		return fallback
	}
	return Normal
}

// ForAssessment is For applied to a risk.Assessment.
func ForAssessment(a risk.Assessment) string {
	return For(a.Label, a.Trigger)
}
