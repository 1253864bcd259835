package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal state of a mapper run.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

func (s RunStatus) String() string { return string(s) }

// RunCounts summarizes what a run produced.
type RunCounts struct {
	Collections      int
	Families         int
	Documents        int
	Events           int
	Failures         int
	SkippedFamilies  int
	SkippedDocuments int
}

// RunRecord is the persisted summary of one mapper invocation.
type RunRecord struct {
	ID          uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time
	Incremental bool
	Status      RunStatus
	Message     string
	Counts      RunCounts
}
