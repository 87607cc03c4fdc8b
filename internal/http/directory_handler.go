package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/permission"
)

type directoryService interface {
	CreateRoom(ctx context.Context, actor permission.Actor, name string) (application.Room, error)
	DeleteRoom(ctx context.Context, actor permission.Actor, roomID string) error
	ListRooms(ctx context.Context) ([]application.Room, error)
	CreateStudent(ctx context.Context, actor permission.Actor, student application.Student) (application.Student, error)
	ListStudents(ctx context.Context) ([]application.Student, error)
}

// DirectoryHandler serves the room catalog and the student roster.
type DirectoryHandler struct {
	service   directoryService
	responder responder
	logger    *slog.Logger
}

// NewDirectoryHandler constructs a DirectoryHandler.
func NewDirectoryHandler(service directoryService, logger *slog.Logger) *DirectoryHandler {
	base := defaultLogger(logger)
	return &DirectoryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DirectoryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DirectoryHandler", operation, attrs...)
}

// ListRooms handles GET /rooms.
func (h *DirectoryHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.log(r.Context(), "ListRooms").ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: out})
}

// CreateRoom handles POST /rooms.
func (h *DirectoryHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req roomRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "CreateRoom", "name", req.Name)
	room, err := h.service.CreateRoom(r.Context(), actorFrom(r), strings.TrimSpace(req.Name))
	if err != nil {
		logger.WarnContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

// DeleteRoom handles DELETE /rooms/{id}.
func (h *DirectoryHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := r.PathValue("id")
	logger := h.log(r.Context(), "DeleteRoom", "room_id", roomID)
	if err := h.service.DeleteRoom(r.Context(), actorFrom(r), roomID); err != nil {
		logger.WarnContext(r.Context(), "room delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListStudents handles GET /students.
func (h *DirectoryHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	students, err := h.service.ListStudents(r.Context())
	if err != nil {
		h.log(r.Context(), "ListStudents").ErrorContext(r.Context(), "student list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]studentDTO, 0, len(students))
	for _, student := range students {
		out = append(out, toStudentDTO(student))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listStudentsResponse{Students: out})
}

// CreateStudent handles POST /students.
func (h *DirectoryHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req studentRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleDecodeError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "CreateStudent")
	student, err := h.service.CreateStudent(r.Context(), actorFrom(r), application.Student{
		ID:        strings.TrimSpace(req.ID),
		Surname:   strings.TrimSpace(req.Surname),
		Name:      strings.TrimSpace(req.Name),
		ClassName: strings.TrimSpace(req.ClassName),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "student creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("student_id", student.ID).InfoContext(r.Context(), "student created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, studentResponse{Student: toStudentDTO(student)})
}

type roomRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		CreatedAt: room.CreatedAt.UTC().Format(timestampLayout),
	}
}

type studentRequest struct {
	ID        string `json:"id" validate:"max=64"`
	Surname   string `json:"surname" validate:"required,max=80"`
	Name      string `json:"name" validate:"max=80"`
	ClassName string `json:"class_name" validate:"required,max=16"`
}

type studentResponse struct {
	Student studentDTO `json:"student"`
}

type listStudentsResponse struct {
	Students []studentDTO `json:"students"`
}

type studentDTO struct {
	ID        string `json:"id"`
	Surname   string `json:"surname"`
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	ClassName string `json:"class_name"`
}

func toStudentDTO(student application.Student) studentDTO {
	return studentDTO{
		ID:        student.ID,
		Surname:   student.Surname,
		Name:      student.Name,
		FullName:  student.FullName(),
		ClassName: student.ClassName,
	}
}
