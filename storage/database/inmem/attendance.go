package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasapp/darasa/core"
	"github.com/darasapp/darasa/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) query() []attendance.Record {
	recs := make([]attendance.Record, 0, len(repo.db.attendance))
	for _, rec := range repo.db.attendance {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	return recs
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record, _ ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec.ID = uuid.New().String()
	repo.db.attendance[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter *attendance.QueryFilter, _ []core.DBOrdering, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := repo.query()
	if filter == nil || filter.IsEmpty() {
		return recs, nil
	}

	matches := make([]attendance.Record, 0, len(recs))
	for _, rec := range recs {
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassName != "" && rec.ClassName != filter.ClassName {
			continue
		}
		if !filter.DateFrom.IsZero() && rec.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && rec.Date.After(filter.DateTo) {
			continue
		}
		matches = append(matches, rec)
	}
	return matches, nil
}

func (repo *attendanceRepository) GetRecord(_ context.Context, id string, _ ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.attendance[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) DeleteRecordsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.attendance[id]; ok {
			delete(repo.db.attendance, id)
			cnt++
		}
	}
	return cnt, nil
}
