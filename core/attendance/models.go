package attendance

import (
	"context"
	"time"

	"github.com/darasapp/darasa/core"
)

// Record is one attendance mark: a student either attended a class session
// on a given day or did not.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ClassName string    `json:"class_name"`
	Date      time.Time `json:"date"` // UTC, day precision
	Present   bool      `json:"present"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewRecord contains information needed to mark attendance.
type NewRecord struct {
	StudentID string    `json:"student_id" validate:"required,uuid4"`
	ClassName string    `json:"class_name" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Present   bool      `json:"present"`
}

func (nr *NewRecord) Validate(ctx context.Context) error {
	nr.ClassName = core.CleanString(nr.ClassName)
	return core.Validate.StructCtx(ctx, nr)
}

// Summary is the per-student attendance aggregate over a query window.
type Summary struct {
	StudentID  string  `json:"student_id"`
	Present    int     `json:"present"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type QueryFilter struct {
	StudentID string    `query:"student_id"`
	ClassName string    `query:"class_name"`
	DateFrom  time.Time `query:"date_from"`
	DateTo    time.Time `query:"date_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.ClassName == "" && qf.DateFrom.IsZero() && qf.DateTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID, true /* lower */)
	qf.ClassName = core.CleanString(qf.ClassName)
}
