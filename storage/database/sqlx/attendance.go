package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasapp/darasa/core"
	"github.com/darasapp/darasa/core/attendance"
)

const attendanceTable = `attendance`

const attendanceColumns = `id, student_id, class_name, date, present, created_at`

type attendanceRow struct {
	ID        string      `db:"id"`
	StudentID string      `db:"student_id"`
	ClassName null.String `db:"class_name"`
	Date      null.Time   `db:"date"`
	Present   bool        `db:"present"`
	CreatedAt null.Time   `db:"created_at"`
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return repo.db
}

func (repo attendanceRepository) row(rec attendance.Record) attendanceRow {
	return attendanceRow{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		ClassName: null.NewString(rec.ClassName, rec.ClassName != ""),
		Date:      null.NewTime(rec.Date.UTC(), !rec.Date.IsZero()),
		Present:   rec.Present,
		CreatedAt: null.NewTime(rec.CreatedAt.UTC(), !rec.CreatedAt.IsZero()),
	}
}

func (repo attendanceRepository) unrow(row attendanceRow) attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		StudentID: row.StudentID,
		ClassName: row.ClassName.String,
		Date:      row.Date.Time,
		Present:   row.Present,
		CreatedAt: row.CreatedAt.Time,
	}
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	row := repo.row(rec)

	exe := repo.getExec(exec)
	query := exe.Rebind(`INSERT INTO ` + attendanceTable + ` (` + attendanceColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := exe.ExecContext(ctx, query,
		row.ID, row.StudentID, row.ClassName, row.Date, row.Present, row.CreatedAt,
	); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return repo.unrow(row), nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]attendance.Record, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter != nil {
		if filter.StudentID != "" {
			where = append(where, `student_id = ?`)
			args = append(args, filter.StudentID)
		}
		if filter.ClassName != "" {
			where = append(where, `class_name = ?`)
			args = append(args, filter.ClassName)
		}
		if !filter.DateFrom.IsZero() {
			where = append(where, `date >= ?`)
			args = append(args, filter.DateFrom.UTC())
		}
		if !filter.DateTo.IsZero() {
			where = append(where, `date <= ?`)
			args = append(args, filter.DateTo.UTC())
		}
	}

	query := `SELECT ` + attendanceColumns + ` FROM ` + attendanceTable
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	if ordering != nil {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += ` ORDER BY ` + strings.Join(orderList, ", ")
	}

	exe := repo.getExec(exec)
	var rows []attendanceRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}

	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.unrow(row))
	}
	return recs, nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, id string, exec ...core.DBExecutor) (attendance.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Record{}, attendance.ErrNotFound
	}

	exe := repo.getExec(exec)
	query := exe.Rebind(`SELECT ` + attendanceColumns + ` FROM ` + attendanceTable + ` WHERE id = ?`)

	var row attendanceRow
	if err := sqlx.GetContext(ctx, exe, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "finding attendance record")
	}
	return repo.unrow(row), nil
}

func (repo attendanceRepository) DeleteRecordsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM `+attendanceTable+` WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting attendance records")
	}

	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting attendance records")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting attendance records")
	}
	return int(cnt), nil
}
