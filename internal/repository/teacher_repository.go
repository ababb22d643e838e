package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/locvowork/school_management/internal/database"
	"github.com/locvowork/school_management/internal/domain"
	"github.com/locvowork/school_management/internal/repository/builder"
)

// ConnectionProvider hands out a fresh connection per call.
type ConnectionProvider interface {
	Conn(ctx context.Context) (*sql.Conn, error)
	Dialect() database.Dialect
	QueryTimeout() time.Duration
}

var teacherColumns = []string{
	"teacherid", "teacherfname", "teacherlname", "employeenumber",
	"hiredate", "salary", "teacherworkphone",
}

const defaultSearchLimit = 20

type teacherRepository struct {
	provider ConnectionProvider
}

// NewTeacherRepository creates a new instance of TeacherRepository
func NewTeacherRepository(provider ConnectionProvider) domain.TeacherRepository {
	return &teacherRepository{provider: provider}
}

func (r *teacherRepository) qb() *builder.SQLBuilder {
	return builder.NewSQLBuilderWithFormat(r.provider.Dialect().Placeholder())
}

// acquire bounds ctx by the query timeout and opens one connection. The
// returned release closes the connection and cancels the context.
func (r *teacherRepository) acquire(ctx context.Context) (context.Context, *sql.Conn, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, r.provider.QueryTimeout())
	conn, err := r.provider.Conn(ctx)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, conn, func() {
		conn.Close()
		cancel()
	}, nil
}

func (r *teacherRepository) List(ctx context.Context, filter domain.TeacherFilter) ([]domain.Teacher, error) {
	b := r.qb().Select(teacherColumns...).From("teachers").OrderBy("teacherid ASC")
	if filter.Limit > 0 {
		b.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			// SQLite rejects OFFSET without LIMIT
			b.Limit(math.MaxInt32)
		}
		b.Offset(filter.Offset)
	}

	query, args := b.Build()
	return r.queryTeachers(ctx, query, args)
}

func (r *teacherRepository) GetByID(ctx context.Context, id int) domain.Result[domain.Teacher] {
	ctx, conn, release, err := r.acquire(ctx)
	if err != nil {
		return domain.Failed[domain.Teacher](err)
	}
	defer release()

	query, args := r.qb().Select(teacherColumns...).From("teachers").Where("teacherid = ?", id).Build()
	t, err := scanTeacher(conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound[domain.Teacher]()
	}
	if err != nil {
		return domain.Failed[domain.Teacher](fmt.Errorf("failed to get teacher %d: %w", id, err))
	}
	return domain.Found(t)
}

// ListByHireDateRange returns teachers hired within [from, to], both bounds
// inclusive and required.
func (r *teacherRepository) ListByHireDateRange(ctx context.Context, from, to domain.Date) ([]domain.Teacher, error) {
	fields := map[string]string{}
	if from.IsZero() {
		fields["min"] = "Minimum hire date is required."
	}
	if to.IsZero() {
		fields["max"] = "Maximum hire date is required."
	}
	if len(fields) == 0 && from.After(to) {
		fields["min"] = "Minimum hire date must not be after the maximum."
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	query, args := r.qb().
		Select(teacherColumns...).
		From("teachers").
		Where("hiredate >= ?", dateArg(from)).
		Where("hiredate <= ?", dateArg(to)).
		OrderBy("hiredate ASC").
		OrderBy("teacherid ASC").
		Build()
	return r.queryTeachers(ctx, query, args)
}

// ListCourses returns the courses a teacher teaches. An unknown teacher has
// no courses; that is not an error.
func (r *teacherRepository) ListCourses(ctx context.Context, teacherID int) ([]domain.Course, error) {
	ctx, conn, release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query, args := r.qb().
		Select("c.courseid", "c.coursecode", "c.coursename").
		From("teachers_courses tc").
		Join("INNER", "courses c", "c.courseid = tc.courseid").
		Where("tc.teacherid = ?", teacherID).
		OrderBy("c.courseid ASC").
		Build()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses for teacher %d: %w", teacherID, err)
	}
	defer rows.Close()

	courses := make([]domain.Course, 0)
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list courses for teacher %d: %w", teacherID, err)
	}
	return courses, nil
}

// Create validates t, checks the employee number is free and inserts it in
// one transaction. On success t.ID holds the store-assigned id.
func (r *teacherRepository) Create(ctx context.Context, t *domain.Teacher) error {
	if err := t.Validate(); err != nil {
		return err
	}

	ctx, conn, release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	taken, err := r.employeeNumberTaken(ctx, tx, t.EmployeeNumber, 0)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateEmployeeNumber
	}

	query, args, err := r.qb().
		Insert("teachers", teacherColumns[1:]...).
		Values(
			t.FirstName,
			t.LastName,
			t.EmployeeNumber,
			dateArgOrNil(t.HireDate),
			float64OrNil(t.Salary),
			stringOrNil(t.TeacherWorkPhone),
		).
		Returning("teacherid").
		BuildSafe()
	if err != nil {
		return err
	}

	var id int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return mapWriteError(err, "failed to insert teacher")
	}
	if err := tx.Commit(); err != nil {
		return mapWriteError(err, "failed to commit teacher")
	}

	t.ID = id
	return nil
}

// Update overwrites every mutable column of teacher id. The body id must
// match the path id.
func (r *teacherRepository) Update(ctx context.Context, id int, t *domain.Teacher) error {
	if t.ID != id {
		return domain.ErrIDMismatch
	}
	if err := t.Validate(); err != nil {
		return err
	}

	ctx, conn, release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// existence first: a missing id is not-found even when the number is taken
	exists, err := r.teacherExists(ctx, tx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	taken, err := r.employeeNumberTaken(ctx, tx, t.EmployeeNumber, id)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateEmployeeNumber
	}

	query, args, err := r.qb().
		Update("teachers").
		Set("teacherfname", t.FirstName).
		Set("teacherlname", t.LastName).
		Set("employeenumber", t.EmployeeNumber).
		Set("hiredate", dateArgOrNil(t.HireDate)).
		Set("salary", float64OrNil(t.Salary)).
		Set("teacherworkphone", stringOrNil(t.TeacherWorkPhone)).
		Where("teacherid = ?", id).
		BuildSafe()
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("failed to update teacher %d", id))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return mapWriteError(err, "failed to commit teacher update")
	}
	return nil
}

// Delete removes the teacher and its course assignments together.
func (r *teacherRepository) Delete(ctx context.Context, id int) error {
	ctx, conn, release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args := r.qb().Delete("teachers_courses").Where("teacherid = ?", id).Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete course assignments of teacher %d: %w", id, err)
	}

	query, args = r.qb().Delete("teachers").Where("teacherid = ?", id).Build()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete teacher %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit teacher delete: %w", err)
	}
	return nil
}

func (r *teacherRepository) Count(ctx context.Context) (int64, error) {
	ctx, conn, release, err := r.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query, args := r.qb().Select("COUNT(*)").From("teachers").Build()
	var n int64
	if err := conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count teachers: %w", err)
	}
	return n, nil
}

// Search matches q case-insensitively against names and employee number.
func (r *teacherRepository) Search(ctx context.Context, q string, limit int) ([]domain.Teacher, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"

	query, args := r.qb().
		Select(teacherColumns...).
		From("teachers").
		WhereGroup(func(g *builder.SQLBuilder) *builder.SQLBuilder {
			return g.
				Where("LOWER(teacherfname) LIKE ?", pattern).
				Or("LOWER(teacherlname) LIKE ?", pattern).
				Or("LOWER(employeenumber) LIKE ?", pattern)
		}).
		OrderBy("teacherid ASC").
		Limit(limit).
		Build()
	return r.queryTeachers(ctx, query, args)
}

func (r *teacherRepository) queryTeachers(ctx context.Context, query string, args []interface{}) ([]domain.Teacher, error) {
	ctx, conn, release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	defer rows.Close()

	teachers := make([]domain.Teacher, 0)
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	return teachers, nil
}

func (r *teacherRepository) teacherExists(ctx context.Context, tx *sql.Tx, id int) (bool, error) {
	query, args := r.qb().Select("COUNT(*)").From("teachers").Where("teacherid = ?", id).Build()

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check teacher %d: %w", id, err)
	}
	return count > 0, nil
}

func (r *teacherRepository) employeeNumberTaken(ctx context.Context, tx *sql.Tx, number string, exceptID int) (bool, error) {
	b := r.qb().Select("COUNT(*)").From("teachers").Where("employeenumber = ?", number)
	if exceptID > 0 {
		b.Where("teacherid <> ?", exceptID)
	}
	query, args := b.Build()

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check employee number: %w", err)
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTeacher(row rowScanner) (domain.Teacher, error) {
	var (
		t        domain.Teacher
		hireDate nullDate
		salary   sql.NullFloat64
		phone    sql.NullString
	)
	if err := row.Scan(&t.ID, &t.FirstName, &t.LastName, &t.EmployeeNumber, &hireDate, &salary, &phone); err != nil {
		return domain.Teacher{}, err
	}
	t.HireDate = nullDateToPtr(hireDate)
	t.Salary = nullFloat64ToPtr(salary)
	t.TeacherWorkPhone = nullStringToPtr(phone)
	return t, nil
}

// mapWriteError turns a unique violation from either store into
// ErrDuplicateEmployeeNumber and wraps anything else.
func mapWriteError(err error, msg string) error {
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmployeeNumber
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isUniqueViolation(err error) bool {
	// 23505 = unique_violation
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
