package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasapp/darasa/core"
	"github.com/darasapp/darasa/core/user"
)

const userTable = `"user"`

const userColumns = `id, name, username, email, is_active, role, password_hash, created_at, updated_at, last_login`

type userRow struct {
	ID           string      `db:"id"`
	Name         null.String `db:"name"`
	Username     null.String `db:"username"`
	Email        null.String `db:"email"`
	IsActive     null.Bool   `db:"is_active"`
	Role         null.String `db:"role"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return repo.db
}

func (repo userRepository) row(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         null.NewString(usr.Name, usr.Name != ""),
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		IsActive:     null.BoolFromPtr(usr.IsActive),
		Role:         null.NewString(usr.Role, usr.Role != ""),
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unrow(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name.String,
		Username:     row.Username.String,
		Email:        row.Email.String,
		IsActive:     row.IsActive.Ptr(),
		Role:         row.Role.String,
		PasswordHash: row.PasswordHash.Bytes,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		LastLogin:    row.LastLogin.Time,
	}
}

func (repo userRepository) unrowSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unrow(row))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	query := `SELECT EXISTS (SELECT 1 FROM ` + userTable + ` WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		inQuery, inArgs, err := sqlx.In(` AND id NOT IN (?)`, ids)
		if err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		query += inQuery
		args = append(args, inArgs...)
	}
	query += `)`

	var exists bool
	if err := sqlx.GetContext(ctx, exe, &exists, exe.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.row(usr)

	exe := repo.getExec(exec)
	query := exe.Rebind(`INSERT INTO ` + userTable + ` (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := exe.ExecContext(ctx, query,
		row.ID, row.Name, row.Username, row.Email, row.IsActive, row.Role,
		row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
	); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, `(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)`)
			args = append(args, val, val, val)
		}
		// users with a role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleClauses := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleClauses = append(roleClauses, `role ILIKE ?`)
				args = append(args, role+"%")
			}
			where = append(where, `(`+strings.Join(roleClauses, ` OR `)+`)`)
		}
		if filter.IsActive != nil {
			where = append(where, `is_active = ?`)
			args = append(args, *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			where = append(where, `created_at >= ?`)
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			where = append(where, `created_at <= ?`)
			args = append(args, filter.CreatedTo.UTC())
		}
	}

	query := `SELECT ` + userColumns + ` FROM ` + userTable
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
	var rows []userRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unrowSlice(rows), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var (
		where string
		args  []interface{}
	)

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		where = `id = ?`
		args = append(args, filter.ID)
	case filter.Username != "":
		where = `username = ?`
		args = append(args, filter.Username)
	case filter.Email != "":
		where = `email = ?`
		args = append(args, filter.Email)
	case filter.UsernameOrEmail != nil:
		var email string
		uname := filter.UsernameOrEmail[0]
		if len(filter.UsernameOrEmail) == 2 {
			email = filter.UsernameOrEmail[1]
		}
		if email == "" {
			email = uname
		} else if uname == "" {
			uname = email
		}
		if uname == "" {
			return user.User{}, user.ErrNotFound
		}
		where = `(username = ? OR email = ?)`
		args = append(args, uname, email)
	default:
		return user.User{}, user.ErrNotFound
	}

	exe := repo.getExec(exec)
	query := exe.Rebind(`SELECT ` + userColumns + ` FROM ` + userTable + ` WHERE ` + where)

	var row userRow
	if err := sqlx.GetContext(ctx, exe, &row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	// only save set fields
	var (
		set  []string
		args []interface{}
	)
	appendSet := func(col string, val interface{}) {
		set = append(set, col+` = ?`)
		args = append(args, val)
	}

	if usr.Name != "" {
		appendSet(`name`, usr.Name)
	}
	if usr.Username != "" {
		appendSet(`username`, usr.Username)
	}
	if usr.Email != "" {
		appendSet(`email`, usr.Email)
	}
	if usr.IsActive != nil {
		appendSet(`is_active`, *usr.IsActive)
	}
	if usr.Role != "" {
		appendSet(`role`, usr.Role)
	}
	if usr.PasswordHash != nil {
		appendSet(`password_hash`, usr.PasswordHash)
	}
	if !usr.UpdatedAt.IsZero() {
		appendSet(`updated_at`, usr.UpdatedAt.UTC())
	}
	if !usr.LastLogin.IsZero() {
		appendSet(`last_login`, usr.LastLogin.UTC())
	}
	if len(set) == 0 {
		return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
	}
	args = append(args, usr.ID)

	exe := repo.getExec(exec)
	query := exe.Rebind(fmt.Sprintf(
		`UPDATE %s SET %s WHERE id = ? RETURNING %s`,
		userTable, strings.Join(set, ", "), userColumns,
	))

	var row userRow
	if err := sqlx.GetContext(ctx, exe, &row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM `+userTable+` WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}

	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
