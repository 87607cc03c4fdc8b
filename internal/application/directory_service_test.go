package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDirectoryService_Rooms(t *testing.T) {
	ctx := context.Background()

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewDirectoryService(newStoreStub(), nil, nil, nil)

		if _, err := svc.CreateRoom(ctx, rossi, "Laboratorio"); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("creates and lists rooms", func(t *testing.T) {
		store := newStoreStub()
		svc := NewDirectoryService(store, store, sequentialIDs("room"), fixedClock)

		room, err := svc.CreateRoom(ctx, admin, "  Laboratorio ")
		if err != nil {
			t.Fatalf("CreateRoom returned error: %v", err)
		}
		if room.ID != "room-1" || room.Name != "Laboratorio" {
			t.Fatalf("unexpected room %+v", room)
		}

		rooms, err := svc.ListRooms(ctx)
		if err != nil || len(rooms) != 1 {
			t.Fatalf("expected one room, got %+v / %v", rooms, err)
		}
	})

	t.Run("duplicate name is a validation error", func(t *testing.T) {
		store := newStoreStub()
		store.addRoom("room-0", "Laboratorio")
		svc := NewDirectoryService(store, store, sequentialIDs("room"), fixedClock)

		_, err := svc.CreateRoom(ctx, admin, "Laboratorio")
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["name"] == "" {
			t.Fatalf("expected name validation error, got %v", err)
		}
	})

	t.Run("rooms with bookings cannot be deleted", func(t *testing.T) {
		store := newStoreStub()
		store.addRoom("room-lab", "Laboratorio")
		store.bookings["b-1"] = Booking{ID: "b-1", RoomID: "room-lab"}
		svc := NewDirectoryService(store, store, nil, nil)

		err := svc.DeleteRoom(ctx, admin, "room-lab")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}

		delete(store.bookings, "b-1")
		if err := svc.DeleteRoom(ctx, admin, "room-lab"); err != nil {
			t.Fatalf("DeleteRoom returned error: %v", err)
		}
		if err := svc.DeleteRoom(ctx, admin, "room-lab"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDirectoryService_Students(t *testing.T) {
	ctx := context.Background()
	store := newStoreStub()
	svc := NewDirectoryService(store, store, sequentialIDs("student"), func() time.Time { return fixedNow })

	_, err := svc.CreateStudent(ctx, admin, Student{Name: "Luca"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected surname and class errors, got %v", err)
	}

	student, err := svc.CreateStudent(ctx, admin, Student{Surname: "Esposito", Name: "Luca", ClassName: "3B"})
	if err != nil {
		t.Fatalf("CreateStudent returned error: %v", err)
	}
	if student.ID != "student-1" || !student.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected student %+v", student)
	}
	if student.FullName() != "Esposito Luca" {
		t.Fatalf("unexpected full name %q", student.FullName())
	}

	students, err := svc.ListStudents(ctx)
	if err != nil || len(students) != 1 {
		t.Fatalf("expected one student, got %+v / %v", students, err)
	}
}
