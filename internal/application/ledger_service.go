package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/sanction"
)

// RecordResult reports the entry created by RecordEntry. Promoted is set when
// a Personal request was stored as Escalated.
type RecordResult struct {
	Entry     TardinessEntry
	Requested sanction.ReasonCode
	Promoted  bool
	State     ItemState
}

// LedgerService applies the tardiness escalation rules to student ledgers.
type LedgerService struct {
	students    StudentRepository
	entries     TardinessRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLedgerService constructs a ledger service with the provided dependencies.
func NewLedgerService(students StudentRepository, entries TardinessRepository, idGenerator func() string, now func() time.Time) *LedgerService {
	return NewLedgerServiceWithLogger(students, entries, idGenerator, now, nil)
}

// NewLedgerServiceWithLogger constructs a ledger service with a specified logger.
func NewLedgerServiceWithLogger(students StudentRepository, entries TardinessRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LedgerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		students:    students,
		entries:     entries,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *LedgerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LedgerService", operation, attrs...)
}

// Open loads a fresh ledger for a known student.
func (s *LedgerService) Open(ctx context.Context, studentID string) (ledger *Ledger, err error) {
	if s == nil {
		return nil, fmt.Errorf("LedgerService is nil")
	}

	logger := s.loggerWith(ctx, "Open", "student_id", studentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to open ledger", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if s.students == nil || s.entries == nil {
		return nil, fmt.Errorf("ledger repositories not configured")
	}
	if _, err = s.students.GetStudent(ctx, studentID); err != nil {
		return nil, mapRepoError(err)
	}

	entries, err := s.entries.ListEntries(ctx, TardinessFilter{StudentID: studentID})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return NewLedger(studentID, entries), nil
}

// RecordEntry appends a tardiness entry to ledger. A Personal request is
// stored as Escalated when the ledger already holds EscalationThreshold
// Personal entries, pending ones included.
func (s *LedgerService) RecordEntry(ctx context.Context, actor permission.Actor, ledger *Ledger, input EntryInput) (result RecordResult, err error) {
	if s == nil {
		err = fmt.Errorf("LedgerService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RecordEntry",
		"actor_id", actor.ID,
		"requested_code", string(input.Code),
		"pending", input.Pending,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"entry_id", result.Entry.ID,
			"stored_code", string(result.Entry.Reason),
			"promoted", result.Promoted,
		).InfoContext(ctx, "entry recorded")
	}()

	if !permission.CanModifyEntry(actor) {
		err = ErrPermissionDenied
		return
	}
	if ledger == nil {
		err = fmt.Errorf("ledger is nil")
		return
	}

	timeOfDay, vErr := validateEntryInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	stored, promoted := sanction.Resolve(input.Code, ledger.Codes())
	entry := TardinessEntry{
		ID:        s.idGenerator(),
		StudentID: ledger.StudentID,
		Date:      calendar.DateOf(input.Date),
		TimeOfDay: timeOfDay,
		Reason:    stored,
		CreatedAt: s.now(),
	}
	result = RecordResult{Requested: input.Code, Promoted: promoted}

	if input.Pending {
		ledger.appendPending(entry)
		result.Entry = entry
		result.State = Pending
		return
	}

	if s.entries == nil {
		err = fmt.Errorf("tardiness repository not configured")
		return
	}
	entry, err = s.entries.CreateEntry(ctx, entry)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	ledger.appendPersisted(entry)
	result.Entry = entry
	result.State = Persisted
	return
}

// Commit writes the pending items of ledger in order. Items written before a
// failure stay persisted; the count of written items is returned either way.
func (s *LedgerService) Commit(ctx context.Context, actor permission.Actor, ledger *Ledger) (committed int, err error) {
	if s == nil {
		return 0, fmt.Errorf("LedgerService is nil")
	}

	logger := s.loggerWith(ctx, "Commit", "actor_id", actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to commit ledger", "error", err, "error_kind", ErrorKind(err), "committed", committed)
			return
		}
		logger.With("committed", committed).InfoContext(ctx, "ledger committed")
	}()

	if !permission.CanModifyEntry(actor) {
		return 0, ErrPermissionDenied
	}
	if ledger == nil {
		return 0, fmt.Errorf("ledger is nil")
	}
	if ledger.PendingCount() > 0 && s.entries == nil {
		return 0, fmt.Errorf("tardiness repository not configured")
	}

	for i := range ledger.items {
		item := &ledger.items[i]
		if item.State != Pending {
			continue
		}
		stored, createErr := s.entries.CreateEntry(ctx, item.Entry)
		if createErr != nil {
			return committed, mapRepoError(createErr)
		}
		item.Entry = stored
		item.State = Persisted
		committed++
	}
	return committed, nil
}

// UndoLast removes the last item of ledger. A pending item is dropped locally;
// a persisted item is deleted from the store.
func (s *LedgerService) UndoLast(ctx context.Context, actor permission.Actor, ledger *Ledger) (removed TardinessEntry, err error) {
	if s == nil {
		err = fmt.Errorf("LedgerService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UndoLast", "actor_id", actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to undo last entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_id", removed.ID).InfoContext(ctx, "last entry removed")
	}()

	if !permission.CanModifyEntry(actor) {
		err = ErrPermissionDenied
		return
	}

	last, ok := ledger.Last()
	if !ok {
		err = ErrEmptyLedger
		return
	}

	if last.State == Persisted {
		if s.entries == nil {
			err = fmt.Errorf("tardiness repository not configured")
			return
		}
		if err = s.entries.DeleteEntry(ctx, last.Entry.ID); err != nil {
			err = mapRepoError(err)
			return
		}
	}

	ledger.dropLast()
	removed = last.Entry
	return
}

// SweepDemote turns every Escalated item of ledger back into Personal. The
// notified flag is left as it is. Zero demotions is a valid result.
func (s *LedgerService) SweepDemote(ctx context.Context, actor permission.Actor, ledger *Ledger) (demoted int, err error) {
	if s == nil {
		return 0, fmt.Errorf("LedgerService is nil")
	}

	logger := s.loggerWith(ctx, "SweepDemote", "actor_id", actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to demote entries", "error", err, "error_kind", ErrorKind(err), "demoted", demoted)
			return
		}
		logger.With("demoted", demoted).InfoContext(ctx, "entries demoted")
	}()

	if !permission.CanModifyEntry(actor) {
		return 0, ErrPermissionDenied
	}
	if ledger == nil {
		return 0, fmt.Errorf("ledger is nil")
	}

	for i := range ledger.items {
		item := &ledger.items[i]
		code, changed := sanction.Demote(item.Entry.Reason)
		if !changed {
			continue
		}

		next := item.Entry
		next.Reason = code

		if item.State == Persisted {
			if s.entries == nil {
				return demoted, fmt.Errorf("tardiness repository not configured")
			}
			// Start from the stored row so flags set elsewhere since Open survive.
			current, getErr := s.entries.GetEntry(ctx, item.Entry.ID)
			if getErr != nil {
				return demoted, mapRepoError(getErr)
			}
			if code, changed = sanction.Demote(current.Reason); !changed {
				item.Entry = current
				continue
			}
			current.Reason = code
			updated, updateErr := s.entries.UpdateEntry(ctx, current)
			if updateErr != nil {
				return demoted, mapRepoError(updateErr)
			}
			next = updated
		}
		item.Entry = next
		demoted++
	}
	return demoted, nil
}

// EntryPatch lists the fields UpdateEntry overwrites. Nil fields keep their
// stored value.
type EntryPatch struct {
	Date      *time.Time
	TimeOfDay *string
	Code      *sanction.ReasonCode
}

func (p EntryPatch) empty() bool {
	return p.Date == nil && p.TimeOfDay == nil && p.Code == nil
}

func (p EntryPatch) apply(entry *TardinessEntry) *ValidationError {
	vErr := &ValidationError{}
	if p.empty() {
		vErr.add("entry", "at least one field is required")
		return vErr
	}
	if p.Date != nil {
		vErr.merge(setEntryDate(entry, *p.Date))
	}
	if p.TimeOfDay != nil {
		vErr.merge(setEntryTime(entry, *p.TimeOfDay))
	}
	if p.Code != nil {
		vErr.merge(setEntryCode(entry, *p.Code))
	}
	return vErr
}

// UpdateEntry applies every field of patch to a stored entry in one row
// update. Nothing is written when any field is invalid.
func (s *LedgerService) UpdateEntry(ctx context.Context, actor permission.Actor, entryID string, patch EntryPatch) (TardinessEntry, error) {
	return s.modify(ctx, actor, "UpdateEntry", entryID, patch.apply)
}

// SetReasonCode overwrites the code of a stored entry. The notified flag is
// not touched.
func (s *LedgerService) SetReasonCode(ctx context.Context, actor permission.Actor, entryID string, code sanction.ReasonCode) (TardinessEntry, error) {
	return s.modify(ctx, actor, "SetReasonCode", entryID, func(entry *TardinessEntry) *ValidationError {
		return setEntryCode(entry, code)
	})
}

// SetDate overwrites the date of a stored entry.
func (s *LedgerService) SetDate(ctx context.Context, actor permission.Actor, entryID string, date time.Time) (TardinessEntry, error) {
	return s.modify(ctx, actor, "SetDate", entryID, func(entry *TardinessEntry) *ValidationError {
		return setEntryDate(entry, date)
	})
}

// SetTime overwrites the arrival time of a stored entry. value uses the
// HH:MM layout.
func (s *LedgerService) SetTime(ctx context.Context, actor permission.Actor, entryID string, value string) (TardinessEntry, error) {
	return s.modify(ctx, actor, "SetTime", entryID, func(entry *TardinessEntry) *ValidationError {
		return setEntryTime(entry, value)
	})
}

func setEntryCode(entry *TardinessEntry, code sanction.ReasonCode) *ValidationError {
	if !code.Valid() {
		vErr := &ValidationError{}
		vErr.add("reason_code", "reason code must be one of T, P, P*")
		return vErr
	}
	entry.Reason = code
	return nil
}

func setEntryDate(entry *TardinessEntry, date time.Time) *ValidationError {
	if date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		return vErr
	}
	entry.Date = calendar.DateOf(date)
	return nil
}

func setEntryTime(entry *TardinessEntry, value string) *ValidationError {
	normalized, ok := normalizeTimeOfDay(value)
	if !ok {
		vErr := &ValidationError{}
		vErr.add("time_of_day", "time must use the HH:MM format")
		return vErr
	}
	entry.TimeOfDay = normalized
	return nil
}

func (s *LedgerService) modify(ctx context.Context, actor permission.Actor, operation, entryID string, apply func(*TardinessEntry) *ValidationError) (entry TardinessEntry, err error) {
	if s == nil {
		err = fmt.Errorf("LedgerService is nil")
		return
	}

	logger := s.loggerWith(ctx, operation, "actor_id", actor.ID, "entry_id", entryID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "entry updated")
	}()

	if !permission.CanModifyEntry(actor) {
		err = ErrPermissionDenied
		return
	}
	if s.entries == nil {
		err = fmt.Errorf("tardiness repository not configured")
		return
	}

	entry, err = s.entries.GetEntry(ctx, entryID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if vErr := apply(&entry); vErr.HasErrors() {
		entry, err = TardinessEntry{}, vErr
		return
	}

	entry, err = s.entries.UpdateEntry(ctx, entry)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

func validateEntryInput(input EntryInput) (string, *ValidationError) {
	vErr := &ValidationError{}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	timeOfDay, ok := normalizeTimeOfDay(input.TimeOfDay)
	if !ok {
		vErr.add("time_of_day", "time must use the HH:MM format")
	}
	if !input.Code.Valid() {
		vErr.add("reason_code", "reason code must be one of T, P, P*")
	}
	return timeOfDay, vErr
}

func normalizeTimeOfDay(value string) (string, bool) {
	t, err := time.Parse(TimeOfDayLayout, strings.TrimSpace(value))
	if err != nil {
		return "", false
	}
	return t.Format(TimeOfDayLayout), true
}
