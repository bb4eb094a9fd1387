package attendance

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/darasapp/darasa/core"
)

var ErrNotFound = errors.New("attendance record not found")

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// QueryRecords applies AND operation on available QueryFilter fields.
		QueryRecords(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Record, error)
		GetRecord(ctx context.Context, id string, exec ...core.DBExecutor) (Record, error)
		DeleteRecordsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Record(ctx context.Context, nr NewRecord) (Record, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		GetByID(ctx context.Context, id string) (Record, error)
		Delete(ctx context.Context, ids ...string) error
		Summarize(ctx context.Context, filter *QueryFilter) ([]Summary, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Record(ctx context.Context, nr NewRecord) (Record, error) {
	rec := Record{
		StudentID: nr.StudentID,
		ClassName: nr.ClassName,
		Date:      nr.Date.UTC().Truncate(24 * time.Hour),
		Present:   nr.Present,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateRecord(ctx, rec)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecord(ctx, id)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteRecordsByID(ctx, ids)
	return err
}

// Summarize groups the records matching filter per student and reports each
// student's presence percentage over their own total, rounded to 2 decimals.
// Students are returned in ascending ID order for stable pagination.
func (svc *service) Summarize(ctx context.Context, filter *QueryFilter) ([]Summary, error) {
	recs, err := svc.repo.QueryRecords(ctx, filter, nil)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[string]*Summary, len(recs))
	for _, rec := range recs {
		sum, ok := byStudent[rec.StudentID]
		if !ok {
			sum = &Summary{StudentID: rec.StudentID}
			byStudent[rec.StudentID] = sum
		}
		sum.Total++
		if rec.Present {
			sum.Present++
		}
	}

	summaries := make([]Summary, 0, len(byStudent))
	for _, sum := range byStudent {
		sum.Percentage = math.Round(float64(sum.Present)/float64(sum.Total)*10000) / 100
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].StudentID < summaries[j].StudentID })
	return summaries, nil
}
