package sqlite

import (
	"context"

	"github.com/example/checkclass/internal/persistence"
)

// StudentRepository implements persistence.StudentRepository using SQLite
type StudentRepository struct {
	pool *ConnectionPool
}

// NewStudentRepository creates a new SQLite student repository
func NewStudentRepository(pool *ConnectionPool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// CreateStudent inserts a new student
func (r *StudentRepository) CreateStudent(ctx context.Context, student persistence.Student) error {
	if student.ID == "" || student.Surname == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO students (id, surname, name, class_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		student.ID, student.Surname, student.Name, student.ClassName, formatTimestamp(student.CreatedAt),
	)
	return mapError(err)
}

// GetStudent retrieves a student by ID
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (persistence.Student, error) {
	if id == "" {
		return persistence.Student{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, surname, name, class_name, created_at FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

// ListStudents returns all students ordered by surname, name, then ID
func (r *StudentRepository) ListStudents(ctx context.Context) ([]persistence.Student, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, surname, name, class_name, created_at
		FROM students
		ORDER BY surname ASC, name ASC, id ASC
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var students []persistence.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return students, nil
}

func scanStudent(row rowScanner) (persistence.Student, error) {
	var (
		student   persistence.Student
		createdAt string
	)
	if err := row.Scan(&student.ID, &student.Surname, &student.Name, &student.ClassName, &createdAt); err != nil {
		return persistence.Student{}, mapError(err)
	}

	var err error
	if student.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Student{}, err
	}
	return student, nil
}
