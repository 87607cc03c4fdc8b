package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/sanction"
)

// AttentionItem is a student still waiting for a family notification.
type AttentionItem struct {
	Student   Student
	Escalated int
}

// NotificationService tracks the notified flag of escalated entries.
type NotificationService struct {
	students StudentRepository
	entries  TardinessRepository
	logger   *slog.Logger
}

// NewNotificationService constructs a notification service.
func NewNotificationService(students StudentRepository, entries TardinessRepository) *NotificationService {
	return NewNotificationServiceWithLogger(students, entries, nil)
}

// NewNotificationServiceWithLogger constructs a notification service with a specified logger.
func NewNotificationServiceWithLogger(students StudentRepository, entries TardinessRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{students: students, entries: entries, logger: defaultLogger(logger)}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// MarkNotified records that the family was notified about an escalated
// entry. Entries with any other code are rejected with ErrInvalidState.
func (s *NotificationService) MarkNotified(ctx context.Context, actor permission.Actor, entryID string) (entry TardinessEntry, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "MarkNotified", "actor_id", actor.ID, "entry_id", entryID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to mark entry notified", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "entry marked notified")
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
	if entry.Reason != sanction.Escalated {
		err = fmt.Errorf("%w: entry %s has code %s", ErrInvalidState, entryID, entry.Reason)
		return
	}
	if entry.Notified {
		return
	}

	entry.Notified = true
	entry, err = s.entries.UpdateEntry(ctx, entry)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// ClearNotified removes the notified flag. It fails with ErrInvalidState when
// the flag is not set.
func (s *NotificationService) ClearNotified(ctx context.Context, actor permission.Actor, entryID string) (entry TardinessEntry, err error) {
	if s == nil {
		err = fmt.Errorf("NotificationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ClearNotified", "actor_id", actor.ID, "entry_id", entryID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to clear notified flag", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "notified flag cleared")
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
	if !entry.Notified {
		err = fmt.Errorf("%w: entry %s is not notified", ErrInvalidState, entryID)
		return
	}

	entry.Notified = false
	entry, err = s.entries.UpdateEntry(ctx, entry)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// StudentsAwaitingAttention returns the sorted IDs of students with an
// escalated entry and no notified entry at all.
func (s *NotificationService) StudentsAwaitingAttention(ctx context.Context) (ids []string, err error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}

	logger := s.loggerWith(ctx, "StudentsAwaitingAttention")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute attention list", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if s.entries == nil {
		return []string{}, nil
	}
	entries, err := s.entries.ListEntries(ctx, TardinessFilter{})
	if err != nil {
		return nil, mapRepoError(err)
	}

	marks := make([]sanction.Mark, 0, len(entries))
	for _, e := range entries {
		marks = append(marks, sanction.Mark{StudentID: e.StudentID, Code: e.Reason, Notified: e.Notified})
	}
	return sanction.AwaitingAttention(marks), nil
}

// AttentionList joins StudentsAwaitingAttention with student reference data,
// ordered by surname then name.
func (s *NotificationService) AttentionList(ctx context.Context) (items []AttentionItem, err error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}

	logger := s.loggerWith(ctx, "AttentionList")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build attention list", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if s.entries == nil || s.students == nil {
		return []AttentionItem{}, nil
	}

	entries, err := s.entries.ListEntries(ctx, TardinessFilter{})
	if err != nil {
		return nil, mapRepoError(err)
	}
	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	marks := make([]sanction.Mark, 0, len(entries))
	escalated := make(map[string]int)
	for _, e := range entries {
		marks = append(marks, sanction.Mark{StudentID: e.StudentID, Code: e.Reason, Notified: e.Notified})
		if e.Reason == sanction.Escalated {
			escalated[e.StudentID]++
		}
	}

	byID := make(map[string]Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	items = make([]AttentionItem, 0)
	for _, id := range sanction.AwaitingAttention(marks) {
		student, ok := byID[id]
		if !ok {
			student = Student{ID: id}
		}
		items = append(items, AttentionItem{Student: student, Escalated: escalated[id]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Student, items[j].Student
		if a.Surname != b.Surname {
			return a.Surname < b.Surname
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return items, nil
}
