package database

import (
	"time"
)

// StoredDescriptor is one enrolled face descriptor as persisted by a backend.
// All descriptors sharing a Label form that label's enrollment record.
type StoredDescriptor struct {
	ID           int64
	Label        string
	Embedding    []float32
	Model        string
	Dim          int
	EnrollmentID string // groups descriptors written by the same enroll call
	CreatedAt    time.Time
}

// LabelStats summarizes the descriptors enrolled under one label.
type LabelStats struct {
	Label       string `json:"label"`
	Descriptors int    `json:"descriptors"`
}

// ExportData contains every enrolled descriptor for archival or migration between backends.
type ExportData struct {
	Version     int
	ExportedAt  time.Time
	Dim         int
	Model       string
	Descriptors []StoredDescriptor
}

// CurrentExportVersion is written into every export archive.
const CurrentExportVersion = 1
