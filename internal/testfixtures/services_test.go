package testfixtures

import (
	"context"
	"testing"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/persistence/memory"
)

func TestServiceFactoryNewServices(t *testing.T) {
	ctx := context.Background()
	factory := NewServiceFactory()
	store := memory.New()
	room := NewRoomFixture(WithRoomID("room-lab"), WithRoomName("Laboratorio"))
	SeedRooms(t, store, room)

	services := factory.NewServices(store)
	actor := permission.Actor{ID: "u-1", Role: permission.RoleStandard, DisplayName: "Rossi"}

	booking, err := services.Bookings.Book(ctx, application.BookParams{
		Actor:  actor,
		RoomID: room.ID,
		Date:   ReferenceDate(),
		Slot:   "08:15",
	})
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	if booking.ID != "id-001" {
		t.Fatalf("expected generated ID id-001, got %q", booking.ID)
	}
	if !booking.CreatedAt.Equal(factory.Clock.Peek()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Peek(), booking.CreatedAt)
	}

	stored, err := store.GetBooking(ctx, booking.ID)
	if err != nil {
		t.Fatalf("GetBooking returned error: %v", err)
	}
	if stored.HolderName != "Rossi" {
		t.Fatalf("expected holder Rossi, got %q", stored.HolderName)
	}
}

func TestSQLiteHarnessMigrates(t *testing.T) {
	harness := NewSQLiteHarness(t)
	student := NewStudentFixture(WithStudentName("Esposito", "Luca"))
	SeedStudents(t, harness.Store, student)

	got, err := harness.Store.GetStudent(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GetStudent returned error: %v", err)
	}
	if got.Surname != "Esposito" {
		t.Fatalf("unexpected student %+v", got)
	}
}
