package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/checkclass/internal/sanction"
)

func newLedgerFixture(t *testing.T) (*LedgerService, *storeStub) {
	t.Helper()
	store := newStoreStub()
	store.addStudent("s-1", "Esposito", "Luca", "3B")
	store.addStudent("s-2", "Conti", "Anna", "2A")
	return NewLedgerService(store, store, sequentialIDs("entry"), fixedClock), store
}

func record(t *testing.T, svc *LedgerService, ledger *Ledger, code sanction.ReasonCode, pending bool) RecordResult {
	t.Helper()
	result, err := svc.RecordEntry(context.Background(), rossi, ledger, EntryInput{
		Date:      date("2025-03-10"),
		TimeOfDay: "8:20",
		Code:      code,
		Pending:   pending,
	})
	if err != nil {
		t.Fatalf("RecordEntry(%s) returned error: %v", code, err)
	}
	return result
}

func TestLedgerService_Open(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedgerFixture(t)
	store.addEntry(TardinessEntry{ID: "old-1", StudentID: "s-1", Reason: sanction.Transport})
	store.addEntry(TardinessEntry{ID: "other", StudentID: "s-2", Reason: sanction.Personal})

	ledger, err := svc.Open(ctx, "s-1")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if ledger.Len() != 1 || ledger.PendingCount() != 0 {
		t.Fatalf("unexpected ledger size %d/%d", ledger.Len(), ledger.PendingCount())
	}

	if _, err := svc.Open(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerService_RecordEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("third personal entry stays personal", func(t *testing.T) {
		svc, _ := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")

		record(t, svc, ledger, sanction.Personal, false)
		record(t, svc, ledger, sanction.Personal, false)
		result := record(t, svc, ledger, sanction.Personal, false)

		if result.Entry.Reason != sanction.Personal || result.Promoted {
			t.Fatalf("expected plain P, got %+v", result)
		}
	})

	t.Run("fourth personal entry is escalated", func(t *testing.T) {
		svc, store := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")

		for i := 0; i < 3; i++ {
			record(t, svc, ledger, sanction.Personal, false)
		}
		result := record(t, svc, ledger, sanction.Personal, false)

		if result.Entry.Reason != sanction.Escalated || !result.Promoted || result.Requested != sanction.Personal {
			t.Fatalf("expected promotion to P*, got %+v", result)
		}
		stored, ok := store.entry(result.Entry.ID)
		if !ok || stored.Reason != sanction.Escalated {
			t.Fatalf("expected stored P*, got %+v", stored)
		}
		if stored.TimeOfDay != "08:20" {
			t.Fatalf("expected normalized time 08:20, got %q", stored.TimeOfDay)
		}
	})

	t.Run("escalated entries do not count toward the threshold", func(t *testing.T) {
		svc, _ := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")

		record(t, svc, ledger, sanction.Personal, false)
		record(t, svc, ledger, sanction.Personal, false)
		record(t, svc, ledger, sanction.Escalated, false)
		record(t, svc, ledger, sanction.Transport, false)
		result := record(t, svc, ledger, sanction.Personal, false)

		if result.Promoted {
			t.Fatalf("expected no promotion with two P entries, got %+v", result)
		}
	})

	t.Run("pending entries count toward the threshold", func(t *testing.T) {
		svc, store := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")

		record(t, svc, ledger, sanction.Personal, false)
		record(t, svc, ledger, sanction.Personal, true)
		record(t, svc, ledger, sanction.Personal, true)
		result := record(t, svc, ledger, sanction.Personal, true)

		if !result.Promoted || result.State != Pending {
			t.Fatalf("expected pending promotion, got %+v", result)
		}
		if len(store.entries) != 1 {
			t.Fatalf("expected only one stored entry, got %d", len(store.entries))
		}
	})

	t.Run("non-personal codes are stored as requested", func(t *testing.T) {
		svc, _ := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")
		for i := 0; i < 4; i++ {
			record(t, svc, ledger, sanction.Personal, false)
		}

		result := record(t, svc, ledger, sanction.Transport, false)
		if result.Entry.Reason != sanction.Transport || result.Promoted {
			t.Fatalf("expected T unchanged, got %+v", result)
		}
	})

	t.Run("validates input", func(t *testing.T) {
		svc, _ := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")

		_, err := svc.RecordEntry(ctx, rossi, ledger, EntryInput{TimeOfDay: "late", Code: "X"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(vErr.FieldErrors) != 3 {
			t.Fatalf("expected three field errors, got %+v", vErr.FieldErrors)
		}
	})

	t.Run("anonymous actors are denied", func(t *testing.T) {
		svc, _ := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")

		_, err := svc.RecordEntry(ctx, nobody, ledger, EntryInput{Date: date("2025-03-10"), TimeOfDay: "08:20", Code: sanction.Personal})
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})
}

func TestLedgerService_UndoLast(t *testing.T) {
	ctx := context.Background()

	t.Run("removes entries newest first until empty", func(t *testing.T) {
		svc, store := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")

		a := record(t, svc, ledger, sanction.Personal, false).Entry
		b := record(t, svc, ledger, sanction.Transport, false).Entry
		c := record(t, svc, ledger, sanction.Personal, false).Entry

		var removed []string
		for i := 0; i < 3; i++ {
			entry, err := svc.UndoLast(ctx, rossi, ledger)
			if err != nil {
				t.Fatalf("UndoLast #%d returned error: %v", i+1, err)
			}
			removed = append(removed, entry.ID)
		}
		if diff := cmp.Diff([]string{c.ID, b.ID, a.ID}, removed); diff != "" {
			t.Fatalf("undo order mismatch (-want +got):\n%s", diff)
		}
		if len(store.entries) != 0 {
			t.Fatalf("expected store to be empty, got %d entries", len(store.entries))
		}

		if _, err := svc.UndoLast(ctx, rossi, ledger); !errors.Is(err, ErrEmptyLedger) {
			t.Fatalf("expected ErrEmptyLedger, got %v", err)
		}
	})

	t.Run("pending items are dropped without touching the store", func(t *testing.T) {
		svc, store := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")
		record(t, svc, ledger, sanction.Personal, false)
		pending := record(t, svc, ledger, sanction.Transport, true).Entry

		removed, err := svc.UndoLast(ctx, rossi, ledger)
		if err != nil {
			t.Fatalf("UndoLast returned error: %v", err)
		}
		if removed.ID != pending.ID {
			t.Fatalf("expected pending entry to be removed, got %s", removed.ID)
		}
		if store.calls["DeleteEntry"] != 0 {
			t.Fatalf("expected no store delete for pending entry")
		}
		if len(store.entries) != 1 {
			t.Fatalf("expected persisted entry to remain")
		}
	})

	t.Run("failed delete leaves the ledger intact", func(t *testing.T) {
		svc, store := newLedgerFixture(t)
		ledger, _ := svc.Open(ctx, "s-1")
		record(t, svc, ledger, sanction.Personal, false)
		store.errs["DeleteEntry"] = errors.New("disk I/O error")

		if _, err := svc.UndoLast(ctx, rossi, ledger); !errors.Is(err, ErrStorageUnavailable) {
			t.Fatalf("expected ErrStorageUnavailable, got %v", err)
		}
		if ledger.Len() != 1 {
			t.Fatalf("expected ledger to keep its item")
		}
	})
}

func TestLedgerService_Commit(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedgerFixture(t)
	ledger, _ := svc.Open(ctx, "s-1")

	record(t, svc, ledger, sanction.Personal, true)
	record(t, svc, ledger, sanction.Transport, true)
	record(t, svc, ledger, sanction.Personal, false)

	items := ledger.Items()
	if items[0].State != Persisted || items[1].State != Pending || items[2].State != Pending {
		t.Fatalf("expected persisted items before pending ones, got %+v", items)
	}

	committed, err := svc.Commit(ctx, rossi, ledger)
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if committed != 2 || ledger.PendingCount() != 0 {
		t.Fatalf("expected 2 committed and none pending, got %d/%d", committed, ledger.PendingCount())
	}
	if len(store.entries) != 3 {
		t.Fatalf("expected 3 stored entries, got %d", len(store.entries))
	}
}

func TestLedgerService_SweepDemote(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedgerFixture(t)
	store.addEntry(TardinessEntry{ID: "e-1", StudentID: "s-1", Reason: sanction.Escalated, Notified: true})
	store.addEntry(TardinessEntry{ID: "e-2", StudentID: "s-1", Reason: sanction.Personal})
	store.addEntry(TardinessEntry{ID: "e-3", StudentID: "s-1", Reason: sanction.Escalated})
	store.addEntry(TardinessEntry{ID: "e-4", StudentID: "s-2", Reason: sanction.Escalated})

	ledger, err := svc.Open(ctx, "s-1")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	demoted, err := svc.SweepDemote(ctx, rossi, ledger)
	if err != nil {
		t.Fatalf("SweepDemote returned error: %v", err)
	}
	if demoted != 2 {
		t.Fatalf("expected 2 demotions, got %d", demoted)
	}
	first, _ := store.entry("e-1")
	if first.Reason != sanction.Personal || !first.Notified {
		t.Fatalf("expected e-1 demoted with notified kept, got %+v", first)
	}
	other, _ := store.entry("e-4")
	if other.Reason != sanction.Escalated {
		t.Fatalf("expected other student untouched, got %+v", other)
	}

	again, err := svc.SweepDemote(ctx, rossi, ledger)
	if err != nil || again != 0 {
		t.Fatalf("expected idempotent second sweep, got %d / %v", again, err)
	}
}

func TestLedgerService_FieldSetters(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedgerFixture(t)
	store.addEntry(TardinessEntry{ID: "e-1", StudentID: "s-1", Date: date("2025-03-10"), TimeOfDay: "08:20", Reason: sanction.Escalated, Notified: true})

	t.Run("reason code change keeps notified", func(t *testing.T) {
		entry, err := svc.SetReasonCode(ctx, rossi, "e-1", sanction.Transport)
		if err != nil {
			t.Fatalf("SetReasonCode returned error: %v", err)
		}
		if entry.Reason != sanction.Transport || !entry.Notified {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	})

	t.Run("date", func(t *testing.T) {
		entry, err := svc.SetDate(ctx, rossi, "e-1", date("2025-03-11"))
		if err != nil {
			t.Fatalf("SetDate returned error: %v", err)
		}
		if !entry.Date.Equal(date("2025-03-11")) {
			t.Fatalf("unexpected date %v", entry.Date)
		}
	})

	t.Run("time", func(t *testing.T) {
		entry, err := svc.SetTime(ctx, rossi, "e-1", "09:05")
		if err != nil {
			t.Fatalf("SetTime returned error: %v", err)
		}
		if entry.TimeOfDay != "09:05" {
			t.Fatalf("unexpected time %q", entry.TimeOfDay)
		}
		if _, err := svc.SetTime(ctx, rossi, "e-1", "25:99"); err == nil {
			t.Fatalf("expected invalid time to fail")
		}
	})

	t.Run("unknown entry is not found", func(t *testing.T) {
		if _, err := svc.SetReasonCode(ctx, rossi, "missing", sanction.Personal); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := svc.SetDate(ctx, rossi, "missing", date("2025-03-11")); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := svc.SetTime(ctx, rossi, "missing", "08:00"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestLedgerService_UpdateEntry(t *testing.T) {
	ctx := context.Background()
	original := TardinessEntry{ID: "e-1", StudentID: "s-1", Date: date("2025-03-10"), TimeOfDay: "08:20", Reason: sanction.Personal}

	t.Run("all fields in one update", func(t *testing.T) {
		svc, store := newLedgerFixture(t)
		store.addEntry(original)

		day := date("2025-03-12")
		at := "9:10"
		code := sanction.Transport
		entry, err := svc.UpdateEntry(ctx, rossi, "e-1", EntryPatch{Date: &day, TimeOfDay: &at, Code: &code})
		if err != nil {
			t.Fatalf("UpdateEntry returned error: %v", err)
		}
		want := TardinessEntry{ID: "e-1", StudentID: "s-1", Date: day, TimeOfDay: "09:10", Reason: sanction.Transport}
		if diff := cmp.Diff(want, entry); diff != "" {
			t.Fatalf("entry mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid field leaves the stored entry unchanged", func(t *testing.T) {
		svc, store := newLedgerFixture(t)
		store.addEntry(original)

		day := date("2025-03-12")
		at := "25:99"
		code := sanction.ReasonCode("X")
		_, err := svc.UpdateEntry(ctx, rossi, "e-1", EntryPatch{Date: &day, TimeOfDay: &at, Code: &code})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		want := map[string]string{
			"time_of_day": "time must use the HH:MM format",
			"reason_code": "reason code must be one of T, P, P*",
		}
		if diff := cmp.Diff(want, vErr.FieldErrors); diff != "" {
			t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
		}
		stored, _ := store.entry("e-1")
		if diff := cmp.Diff(original, stored); diff != "" {
			t.Fatalf("stored entry changed (-want +got):\n%s", diff)
		}
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		svc, store := newLedgerFixture(t)
		store.addEntry(original)

		var vErr *ValidationError
		if _, err := svc.UpdateEntry(ctx, rossi, "e-1", EntryPatch{}); !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestLedgerService_NotifiedSurvivesSweep(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedgerFixture(t)
	notifications := NewNotificationService(store, store)
	ledger, _ := svc.Open(ctx, "s-1")

	var escalated RecordResult
	for i := 0; i < 4; i++ {
		escalated = record(t, svc, ledger, sanction.Personal, false)
	}
	if escalated.Entry.Reason != sanction.Escalated {
		t.Fatalf("expected fourth entry escalated, got %+v", escalated.Entry)
	}
	if _, err := notifications.MarkNotified(ctx, rossi, escalated.Entry.ID); err != nil {
		t.Fatalf("MarkNotified returned error: %v", err)
	}

	if demoted, err := svc.SweepDemote(ctx, rossi, ledger); err != nil || demoted != 1 {
		t.Fatalf("expected one demotion, got %d / %v", demoted, err)
	}
	stored, _ := store.entry(escalated.Entry.ID)
	if stored.Reason != sanction.Personal || !stored.Notified {
		t.Fatalf("expected demoted entry to stay notified, got %+v", stored)
	}

	next := record(t, svc, ledger, sanction.Personal, false)
	if next.Entry.Reason != sanction.Escalated {
		t.Fatalf("expected new entry escalated, got %+v", next.Entry)
	}

	ids, err := notifications.StudentsAwaitingAttention(ctx)
	if err != nil {
		t.Fatalf("StudentsAwaitingAttention returned error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no student awaiting attention, got %v", ids)
	}
}
