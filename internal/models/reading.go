package models

import (
	"time"

	"vitalmine-server/internal/risk"
	"vitalmine-server/internal/vitals"
)

// Reading is one scored set of vitals. Rows are written once and never
// updated.
type Reading struct {
	BaseModel
	SubjectID   *string    `gorm:"size:36;index:idx_readings_subject_time,priority:1" json:"subjectId,omitempty"`
	DisplayName string     `gorm:"size:100;not null" json:"name"`
	Temperature float64    `gorm:"not null" json:"temperature"`
	HeartRate   int        `gorm:"not null" json:"heartRate"`
	RespRate    int        `gorm:"not null" json:"respRate"`
	WBCCount    float64    `gorm:"not null" json:"wbcCount"`
	RiskLabel   risk.Label `gorm:"size:16;not null" json:"status"`
	Advice      string     `gorm:"size:255;not null" json:"advice"`
	Trigger     string     `gorm:"size:20" json:"trigger,omitempty"`
	Strategy    string     `gorm:"size:20" json:"strategy"`
	SIRSScore   int        `json:"sirsScore"`
	RecordedAt  time.Time  `gorm:"precision:3;not null;index:idx_readings_subject_time,priority:2" json:"timestamp"`
	// Seq is assigned by the database on insert and breaks recorded_at ties
	// between writers whose clocks agree to the millisecond.
	Seq         uint64     `gorm:"autoIncrement;uniqueIndex;not null" json:"-"`
}

// Vitals returns the measured values.
func (r *Reading) Vitals() vitals.Vitals {
	return vitals.Vitals{
		Temperature: r.Temperature,
		HeartRate:   r.HeartRate,
		RespRate:    r.RespRate,
		WBCCount:    r.WBCCount,
	}
}

// BelongsTo reports whether the reading is attributed to subjectID.
func (r *Reading) BelongsTo(subjectID string) bool {
	return r.SubjectID != nil && *r.SubjectID == subjectID
}
