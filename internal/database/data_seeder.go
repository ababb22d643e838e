package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/locvowork/school_management/internal/logger"
	"github.com/locvowork/school_management/internal/repository/builder"
)

type DataSeeder struct {
	db      *sql.DB
	dialect Dialect
	rnd     *rand.Rand
}

func NewDataSeeder(db *sql.DB, dialect Dialect) *DataSeeder {
	return &DataSeeder{db: db, dialect: dialect, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// WithSeed makes the generated data reproducible.
func (ds *DataSeeder) WithSeed(seed int64) *DataSeeder {
	ds.rnd = rand.New(rand.NewSource(seed))
	return ds
}

var (
	subjects = []struct{ code, name string }{
		{"MATH", "Mathematics"},
		{"ENG", "English"},
		{"SCI", "Science"},
		{"HIST", "History"},
		{"GEO", "Geography"},
		{"CS", "Computer Science"},
		{"ART", "Visual Arts"},
		{"MUS", "Music"},
		{"PE", "Physical Education"},
		{"FRE", "French"},
	}
	levels     = []int{101, 201, 301}
	firstNames = []string{"John", "Mary", "Ahmed", "Linh", "Sofia", "Kenji", "Amara", "Lucas", "Priya", "Noah", "Elena", "Omar"}
	lastNames  = []string{"Doe", "Smith", "Nguyen", "Tanaka", "Okafor", "Rossi", "Patel", "Garcia", "Kowalski", "Haddad", "Brown", "Silva"}
)

// firstEmployeeNumber is where generated T-numbers start when the table is empty.
const firstEmployeeNumber = 378

type SeedStats struct {
	Courses     int
	Teachers    int
	Assignments int
}

func (ds *DataSeeder) qb() *builder.SQLBuilder {
	return builder.NewSQLBuilderWithFormat(ds.dialect.Placeholder())
}

// SeedData inserts numCourses catalog courses and numTeachers teachers, then
// assigns each teacher up to three random courses.
func (ds *DataSeeder) SeedData(ctx context.Context, numCourses, numTeachers int) (SeedStats, error) {
	start := time.Now()
	var stats SeedStats

	if limit := len(subjects) * len(levels); numCourses > limit {
		numCourses = limit
	}

	err := withTx(ctx, ds.db, func(tx *sql.Tx) error {
		courseIDs, err := ds.insertCourses(ctx, tx, numCourses)
		if err != nil {
			return fmt.Errorf("failed to insert courses: %w", err)
		}
		stats.Courses = len(courseIDs)

		teacherIDs, err := ds.insertTeachers(ctx, tx, numTeachers)
		if err != nil {
			return fmt.Errorf("failed to insert teachers: %w", err)
		}
		stats.Teachers = len(teacherIDs)

		stats.Assignments, err = ds.assignCourses(ctx, tx, teacherIDs, courseIDs)
		if err != nil {
			return fmt.Errorf("failed to assign courses: %w", err)
		}
		return nil
	})
	if err != nil {
		return SeedStats{}, err
	}

	logger.InfoLog(ctx, "Seeded %d courses, %d teachers, %d assignments in %v",
		stats.Courses, stats.Teachers, stats.Assignments, time.Since(start))
	return stats, nil
}

func (ds *DataSeeder) insertCourses(ctx context.Context, tx *sql.Tx, n int) ([]int, error) {
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		subject := subjects[i%len(subjects)]
		level := levels[(i/len(subjects))%len(levels)]

		query, args := ds.qb().
			Insert("courses", "coursename", "coursecode").
			Values(fmt.Sprintf("%s %d", subject.name, level), fmt.Sprintf("%s%d", subject.code, level)).
			Returning("courseid").
			Build()

		var id int
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (ds *DataSeeder) insertTeachers(ctx context.Context, tx *sql.Tx, n int) ([]int, error) {
	next, err := ds.nextEmployeeNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		var hireDate, salary, phone interface{}
		// roughly one in five teachers leaves the optional columns empty
		if ds.rnd.Intn(5) != 0 {
			hireDate = today.AddDate(0, 0, -ds.rnd.Intn(15*365)).Format("2006-01-02")
			salary = float64(40000+ds.rnd.Intn(60000)) + float64(ds.rnd.Intn(100))/100
			phone = fmt.Sprintf("416-555-%04d", ds.rnd.Intn(10000))
		}

		query, args := ds.qb().
			Insert("teachers", "teacherfname", "teacherlname", "employeenumber", "hiredate", "salary", "teacherworkphone").
			Values(
				firstNames[ds.rnd.Intn(len(firstNames))],
				lastNames[ds.rnd.Intn(len(lastNames))],
				"T"+strconv.Itoa(next+i),
				hireDate, salary, phone,
			).
			Returning("teacherid").
			Build()

		var id int
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// nextEmployeeNumber returns one past the highest numeric suffix in use.
func (ds *DataSeeder) nextEmployeeNumber(ctx context.Context, tx *sql.Tx) (int, error) {
	query, args := ds.qb().Select("employeenumber").From("teachers").Build()
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	next := firstEmployeeNumber
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(number, "T")); err == nil && n >= next {
			next = n + 1
		}
	}
	return next, rows.Err()
}

func (ds *DataSeeder) assignCourses(ctx context.Context, tx *sql.Tx, teacherIDs, courseIDs []int) (int, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}

	count := 0
	for _, teacherID := range teacherIDs {
		n := ds.rnd.Intn(4)
		if n > len(courseIDs) {
			n = len(courseIDs)
		}
		for _, idx := range ds.rnd.Perm(len(courseIDs))[:n] {
			query, args := ds.qb().
				Insert("teachers_courses", "teacherid", "courseid").
				Values(teacherID, courseIDs[idx]).
				Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// ClearData removes every teacher, course and assignment.
func (ds *DataSeeder) ClearData(ctx context.Context) error {
	err := withTx(ctx, ds.db, func(tx *sql.Tx) error {
		for _, table := range []string{"teachers_courses", "teachers", "courses"} {
			query, args := ds.qb().Delete(table).Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.InfoLog(ctx, "Cleared teachers, courses and assignments")
	return nil
}

// Presets
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
	PresetXLarge SeedPreset = "xlarge"
)

// GetPresetConfig returns the course and teacher counts for a preset.
func GetPresetConfig(preset SeedPreset) (numCourses, numTeachers int) {
	switch preset {
	case PresetSmall:
		return 5, 10
	case PresetMedium:
		return 10, 50
	case PresetLarge:
		return 20, 200
	case PresetXLarge:
		return 30, 1000
	default:
		return 10, 50
	}
}
