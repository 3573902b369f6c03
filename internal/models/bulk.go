package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition indicates a bulk item status change that is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// BulkStatus tracks one batch item.
type BulkStatus string

const (
	BulkStatusPending    BulkStatus = "pending"
	BulkStatusProcessing BulkStatus = "processing"
	BulkStatusCompleted  BulkStatus = "completed"
	BulkStatusFailed     BulkStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s BulkStatus) Terminal() bool {
	return s == BulkStatusCompleted || s == BulkStatusFailed
}

// BulkItem is one submission inside a batch.
type BulkItem struct {
	Index        int            `json:"index"`
	StudentID    string         `json:"studentId"`
	StudentName  string         `json:"studentName,omitempty"`
	FileName     string         `json:"fileName,omitempty"`
	AssignmentID string         `json:"assignmentId"`
	Code         string         `json:"code"`
	Status       BulkStatus     `json:"status"`
	Result       *GradingResult `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Advance moves the item forward: pending -> processing -> completed | failed.
func (i *BulkItem) Advance(next BulkStatus) error {
	allowed := false
	switch i.Status {
	case BulkStatusPending:
		allowed = next == BulkStatusProcessing
	case BulkStatusProcessing:
		allowed = next == BulkStatusCompleted || next == BulkStatusFailed
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.Status, next)
	}
	i.Status = next
	return nil
}

// BulkBatch is a sequentially graded list of submissions.
type BulkBatch struct {
	ID        string     `json:"id"`
	Items     []BulkItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Counts returns the number of items per status.
func (b BulkBatch) Counts() map[BulkStatus]int {
	counts := map[BulkStatus]int{
		BulkStatusPending:    0,
		BulkStatusProcessing: 0,
		BulkStatusCompleted:  0,
		BulkStatusFailed:     0,
	}
	for _, item := range b.Items {
		counts[item.Status]++
	}
	return counts
}

// Progress is the share of items in a terminal state, between 0 and 1.
// An empty batch counts as finished.
func (b BulkBatch) Progress() float64 {
	if len(b.Items) == 0 {
		return 1
	}
	done := 0
	for _, item := range b.Items {
		if item.Status.Terminal() {
			done++
		}
	}
	return float64(done) / float64(len(b.Items))
}

// Done reports whether every item reached a terminal state.
func (b BulkBatch) Done() bool {
	for _, item := range b.Items {
		if !item.Status.Terminal() {
			return false
		}
	}
	return true
}
