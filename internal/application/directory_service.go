package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/persistence"
)

// RoomCatalog extends RoomRepository with the administrative writes.
type RoomCatalog interface {
	RoomRepository
	CreateRoom(ctx context.Context, room Room) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// StudentRoster extends StudentRepository with the administrative writes.
type StudentRoster interface {
	StudentRepository
	CreateStudent(ctx context.Context, student Student) (Student, error)
}

// DirectoryService maintains rooms and students, the reference data the
// booking and ledger services read.
type DirectoryService struct {
	rooms       RoomCatalog
	students    StudentRoster
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDirectoryService constructs a directory service with the provided dependencies.
func NewDirectoryService(rooms RoomCatalog, students StudentRoster, idGenerator func() string, now func() time.Time) *DirectoryService {
	return NewDirectoryServiceWithLogger(rooms, students, idGenerator, now, nil)
}

// NewDirectoryServiceWithLogger constructs a directory service with a specified logger.
func NewDirectoryServiceWithLogger(rooms RoomCatalog, students StudentRoster, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DirectoryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DirectoryService{rooms: rooms, students: students, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *DirectoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DirectoryService", operation, attrs...)
}

// CreateRoom registers a room for administrators. Names are unique.
func (s *DirectoryService) CreateRoom(ctx context.Context, actor permission.Actor, name string) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("DirectoryService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", "actor_id", actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !actor.IsAdmin() {
		err = ErrPermissionDenied
		return
	}

	name = strings.TrimSpace(name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		err = vErr
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	room, err = s.rooms.CreateRoom(ctx, Room{ID: s.idGenerator(), Name: name, CreatedAt: s.now()})
	if err != nil {
		err = mapDirectoryError(err, "name", "a room with this name already exists")
	}
	return
}

// DeleteRoom removes a room that holds no bookings.
func (s *DirectoryService) DeleteRoom(ctx context.Context, actor permission.Actor, roomID string) (err error) {
	if s == nil {
		return fmt.Errorf("DirectoryService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteRoom", "actor_id", actor.ID, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room deleted")
	}()

	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	if err = s.rooms.DeleteRoom(ctx, roomID); err != nil {
		if errors.Is(err, persistence.ErrForeignKeyViolation) {
			vErr := &ValidationError{}
			vErr.add("room_id", "room still has bookings")
			return vErr
		}
		return mapRepoError(err)
	}
	return nil
}

// ListRooms returns every room ordered by name.
func (s *DirectoryService) ListRooms(ctx context.Context) (rooms []Room, err error) {
	if s == nil {
		return nil, fmt.Errorf("DirectoryService is nil")
	}
	if s.rooms == nil {
		return []Room{}, nil
	}

	rooms, err = s.rooms.ListRooms(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListRooms").ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	if rooms == nil {
		rooms = []Room{}
	}
	return rooms, nil
}

// CreateStudent registers a student for administrators.
func (s *DirectoryService) CreateStudent(ctx context.Context, actor permission.Actor, student Student) (created Student, err error) {
	if s == nil {
		err = fmt.Errorf("DirectoryService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateStudent", "actor_id", actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create student", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("student_id", created.ID).InfoContext(ctx, "student created")
	}()

	if !actor.IsAdmin() {
		err = ErrPermissionDenied
		return
	}

	student.Surname = strings.TrimSpace(student.Surname)
	student.Name = strings.TrimSpace(student.Name)
	student.ClassName = strings.TrimSpace(student.ClassName)

	vErr := &ValidationError{}
	if student.Surname == "" {
		vErr.add("surname", "surname is required")
	}
	if student.ClassName == "" {
		vErr.add("class_name", "class is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.students == nil {
		err = fmt.Errorf("student repository not configured")
		return
	}

	if student.ID == "" {
		student.ID = s.idGenerator()
	}
	student.CreatedAt = s.now()

	created, err = s.students.CreateStudent(ctx, student)
	if err != nil {
		err = mapDirectoryError(err, "id", "a student with this id already exists")
	}
	return
}

// ListStudents returns every student ordered by surname and name.
func (s *DirectoryService) ListStudents(ctx context.Context) (students []Student, err error) {
	if s == nil {
		return nil, fmt.Errorf("DirectoryService is nil")
	}
	if s.students == nil {
		return []Student{}, nil
	}

	students, err = s.students.ListStudents(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListStudents").ErrorContext(ctx, "failed to list students", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}

// mapDirectoryError reports duplicate reference data as a field error rather
// than a booking conflict.
func mapDirectoryError(err error, field, message string) error {
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add(field, message)
		return vErr
	}
	return mapRepoError(err)
}
