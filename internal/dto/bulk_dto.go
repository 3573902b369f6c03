package dto

import (
	"math"
	"time"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
)

// BulkItemPayload is one submission of a bulk request.
type BulkItemPayload struct {
	StudentID    string `json:"studentId" validate:"required"`
	StudentName  string `json:"studentName"`
	FileName     string `json:"fileName"`
	AssignmentID string `json:"assignmentId" validate:"required"`
	Code         string `json:"code" validate:"required"`
}

// BulkGradeRequest starts a bulk grading batch.
type BulkGradeRequest struct {
	Items []BulkItemPayload `json:"items" validate:"required,min=1,max=500,dive"`
}

// BulkItemResponse describes one batch item without its source code.
type BulkItemResponse struct {
	Index        int                   `json:"index"`
	StudentID    string                `json:"studentId"`
	StudentName  string                `json:"studentName,omitempty"`
	FileName     string                `json:"fileName,omitempty"`
	AssignmentID string                `json:"assignmentId"`
	Status       models.BulkStatus     `json:"status"`
	Result       *models.GradingResult `json:"result,omitempty"`
	Error        string                `json:"error,omitempty"`
}

// BulkBatchResponse reports batch progress as a percentage.
type BulkBatchResponse struct {
	BatchID   string                    `json:"batchId"`
	Done      bool                      `json:"done"`
	Progress  float64                   `json:"progress"`
	Counts    map[models.BulkStatus]int `json:"counts"`
	Items     []BulkItemResponse        `json:"items"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// NewBulkBatchResponse builds a response DTO from a batch snapshot.
func NewBulkBatchResponse(batch models.BulkBatch) BulkBatchResponse {
	items := make([]BulkItemResponse, 0, len(batch.Items))
	for _, item := range batch.Items {
		items = append(items, BulkItemResponse{
			Index:        item.Index,
			StudentID:    item.StudentID,
			StudentName:  item.StudentName,
			FileName:     item.FileName,
			AssignmentID: item.AssignmentID,
			Status:       item.Status,
			Result:       item.Result,
			Error:        item.Error,
		})
	}

	return BulkBatchResponse{
		BatchID:   batch.ID,
		Done:      batch.Done(),
		Progress:  math.Round(batch.Progress()*10000) / 100,
		Counts:    batch.Counts(),
		Items:     items,
		CreatedAt: batch.CreatedAt,
		UpdatedAt: batch.UpdatedAt,
	}
}
