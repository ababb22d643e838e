package service

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/locvowork/school_management/internal/domain"
	"github.com/locvowork/school_management/internal/logger"
	"github.com/locvowork/school_management/pkg/simpleexcel"
)

//go:embed export_layout.yaml
var defaultExportLayout string

const (
	exportSection      = "teachers"
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// bulkIndexer is implemented by search indexes that accept batches.
type bulkIndexer interface {
	BulkIndexTeachers(ctx context.Context, teachers []domain.Teacher) error
}

// TeacherService handles business logic for teachers
type TeacherService struct {
	repo         domain.TeacherRepository
	index        domain.TeacherIndex
	exportLayout string
}

// NewTeacherService creates a new TeacherService. index may be nil, in which
// case search falls back to the repository. An empty exportLayout selects the
// built-in spreadsheet layout.
func NewTeacherService(repo domain.TeacherRepository, index domain.TeacherIndex, exportLayout string) *TeacherService {
	if strings.TrimSpace(exportLayout) == "" {
		exportLayout = defaultExportLayout
	}
	return &TeacherService{repo: repo, index: index, exportLayout: exportLayout}
}

// ==================== Queries ====================

func (s *TeacherService) List(ctx context.Context, filter domain.TeacherFilter) ([]domain.Teacher, error) {
	return s.repo.List(ctx, filter)
}

func (s *TeacherService) Get(ctx context.Context, id int) domain.Result[domain.Teacher] {
	return s.repo.GetByID(ctx, id)
}

// GetWithCourses loads the teacher and the courses it teaches concurrently.
func (s *TeacherService) GetWithCourses(ctx context.Context, id int) domain.Result[domain.Teacher] {
	var (
		res     domain.Result[domain.Teacher]
		courses []domain.Course
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res = s.repo.GetByID(gctx, id)
		return res.Err
	})
	g.Go(func() error {
		var err error
		courses, err = s.repo.ListCourses(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Failed[domain.Teacher](err)
	}

	if res.IsFound() {
		res.Value.CoursesTaught = courses
	}
	return res
}

func (s *TeacherService) ListByHireDateRange(ctx context.Context, from, to domain.Date) ([]domain.Teacher, error) {
	return s.repo.ListByHireDateRange(ctx, from, to)
}

func (s *TeacherService) ListCourses(ctx context.Context, teacherID int) ([]domain.Course, error) {
	return s.repo.ListCourses(ctx, teacherID)
}

func (s *TeacherService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Search finds teachers by name or employee number. The search index is
// used when configured; if it fails the SQL search answers instead.
func (s *TeacherService) Search(ctx context.Context, q string, limit int) ([]domain.Teacher, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.NewValidationError(map[string]string{"q": "Search text is required."})
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	if s.index != nil {
		teachers, err := s.searchIndex(ctx, q, limit)
		if err == nil {
			return teachers, nil
		}
		logger.WarnLog(ctx, "search index unavailable, using SQL search: %v", err)
	}
	return s.repo.Search(ctx, q, limit)
}

func (s *TeacherService) searchIndex(ctx context.Context, q string, limit int) ([]domain.Teacher, error) {
	ids, err := s.index.SearchTeachers(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	teachers := make([]domain.Teacher, 0, len(ids))
	for _, id := range ids {
		res := s.repo.GetByID(ctx, id)
		switch {
		case res.IsFound():
			teachers = append(teachers, res.Value)
		case res.IsNotFound():
			// stale index entry
			logger.DebugLog(ctx, "indexed teacher %d no longer exists", id)
		default:
			return nil, res.Err
		}
	}
	return teachers, nil
}

// ==================== Commands ====================

func (s *TeacherService) Create(ctx context.Context, t *domain.Teacher) error {
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}
	logger.InfoLog(ctx, "teacher %d created (%s)", t.ID, t.EmployeeNumber)
	s.reindex(ctx, *t)
	return nil
}

func (s *TeacherService) Update(ctx context.Context, id int, t *domain.Teacher) error {
	if err := s.repo.Update(ctx, id, t); err != nil {
		return err
	}
	logger.InfoLog(ctx, "teacher %d updated", id)
	s.reindex(ctx, *t)
	return nil
}

func (s *TeacherService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.InfoLog(ctx, "teacher %d deleted", id)

	if s.index != nil {
		if err := s.index.DeleteTeacher(ctx, id); err != nil {
			logger.WarnLog(ctx, "failed to remove teacher %d from search index: %v", id, err)
		}
	}
	return nil
}

// reindex keeps the search index in step with a write. Index failures are
// logged; the store stays the source of truth.
func (s *TeacherService) reindex(ctx context.Context, t domain.Teacher) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexTeacher(ctx, t); err != nil {
		logger.WarnLog(ctx, "failed to index teacher %d: %v", t.ID, err)
	}
}

// ReindexAll pushes every stored teacher to the search index.
func (s *TeacherService) ReindexAll(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, fmt.Errorf("search index is not configured")
	}

	teachers, err := s.repo.List(ctx, domain.TeacherFilter{})
	if err != nil {
		return 0, err
	}

	if bulk, ok := s.index.(bulkIndexer); ok {
		if err := bulk.BulkIndexTeachers(ctx, teachers); err != nil {
			return 0, err
		}
		return len(teachers), nil
	}

	for _, t := range teachers {
		if err := s.index.IndexTeacher(ctx, t); err != nil {
			return 0, err
		}
	}
	return len(teachers), nil
}

// ==================== Export ====================

func (s *TeacherService) exporter(ctx context.Context) (*simpleexcel.DataExporter, error) {
	teachers, err := s.repo.List(ctx, domain.TeacherFilter{})
	if err != nil {
		return nil, err
	}

	exporter, err := simpleexcel.NewDataExporterFromYamlConfig(s.exportLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to load export layout: %w", err)
	}
	return exporter.BindSectionData(exportSection, teachers), nil
}

// ExportXLSX renders every teacher into a spreadsheet.
func (s *TeacherService) ExportXLSX(ctx context.Context) ([]byte, error) {
	exporter, err := s.exporter(ctx)
	if err != nil {
		return nil, err
	}
	return exporter.ToBytes()
}

// ExportCSV writes every teacher as CSV to w.
func (s *TeacherService) ExportCSV(ctx context.Context, w io.Writer) error {
	exporter, err := s.exporter(ctx)
	if err != nil {
		return err
	}
	return exporter.ToCSV(w)
}
