package domain

import "context"

// TeacherRepository defines the interface for teacher data access
type TeacherRepository interface {
	List(ctx context.Context, filter TeacherFilter) ([]Teacher, error)
	GetByID(ctx context.Context, id int) Result[Teacher]
	ListByHireDateRange(ctx context.Context, from, to Date) ([]Teacher, error)
	ListCourses(ctx context.Context, teacherID int) ([]Course, error)
	Create(ctx context.Context, t *Teacher) error
	Update(ctx context.Context, id int, t *Teacher) error
	Delete(ctx context.Context, id int) error

	// Supporting queries
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, query string, limit int) ([]Teacher, error)
}

// TeacherIndex is an optional full-text index kept alongside the store.
type TeacherIndex interface {
	IndexTeacher(ctx context.Context, t Teacher) error
	DeleteTeacher(ctx context.Context, id int) error
	SearchTeachers(ctx context.Context, query string, limit int) ([]int, error)
}
