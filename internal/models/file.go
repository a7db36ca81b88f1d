package models

import "time"

// DatasetFile is a lightweight description of a file in the dataset directory.
type DatasetFile struct {
	Name      string    `json:"name"`
	Role      string    `json:"role"` // "live", "backup", "scratch", "staging" or "other"
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublishStatus is the outcome of one publish run.
type PublishStatus string

const (
	PublishRunning   PublishStatus = "running"
	PublishPublished PublishStatus = "published"
	PublishRecovered PublishStatus = "recovered"
	PublishFailed    PublishStatus = "failed"
	PublishFatal     PublishStatus = "fatal"

	// PublishInterrupted marks a run whose process exited before it finished.
	PublishInterrupted PublishStatus = "interrupted"
)

// PublishRun is the audit record of one publish attempt.
type PublishRun struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Status     PublishStatus `json:"status"`
	Staging    string        `json:"staging,omitempty"`
	Checksum   string        `json:"checksum,omitempty"`
	Entries    int           `json:"entries"`
	Step       string        `json:"step,omitempty"`
	Error      string        `json:"error,omitempty"`
}
