// Package postgres implements the persistence repositories on PostgreSQL
// through gorm and the pgx driver.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/example/checkclass/internal/persistence"
)

// Config describes the PostgreSQL connection.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

// DefaultConfig returns pool settings suited to a hosted database behind a
// transaction pooler.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		MaxOpenConns:    20,
		MaxIdleConns:    10,
		ConnMaxIdleTime: time.Minute,
		ConnMaxLifetime: 10 * time.Minute,
		SlowThreshold:   200 * time.Millisecond,
	}
}

// Store is a persistence.Store backed by PostgreSQL.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ persistence.Store = (*Store)(nil)

// Open connects to PostgreSQL and tunes the connection pool.
func Open(config Config, logger *slog.Logger) (*Store, error) {
	if config.DSN == "" {
		return nil, errors.New("postgres: DSN is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  config.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 NewLogger(logger, config.SlowThreshold),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	return &Store{db: db, logger: logger}, nil
}

// Migrate creates or updates the schema, including the booking slot unique
// index and the foreign keys gorm cannot derive without associations.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&roomRow{}, &studentRow{}, &bookingRow{}, &entryRow{}); err != nil {
		return fmt.Errorf("postgres: automigrate: %w", err)
	}

	constraints := []struct {
		model any
		name  string
		ddl   string
	}{
		{&bookingRow{}, "fk_bookings_room", `ALTER TABLE bookings ADD CONSTRAINT fk_bookings_room FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE RESTRICT`},
		{&entryRow{}, "fk_tardiness_student", `ALTER TABLE tardiness_entries ADD CONSTRAINT fk_tardiness_student FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		if db.Migrator().HasConstraint(c.model, c.name) {
			continue
		}
		if err := db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("postgres: add constraint %s: %w", c.name, err)
		}
	}

	s.logger.InfoContext(ctx, "postgres schema migrated")
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return mapError(err)
	}
	return mapError(sqlDB.PingContext(ctx))
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Name == "" {
		return persistence.ErrConstraintViolation
	}
	row := toRoomRow(room)
	return mapError(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	var row roomRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return persistence.Room{}, mapError(err)
	}
	return row.model(), nil
}

func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	var rows []roomRow
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	rooms := make([]persistence.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.model())
	}
	return rooms, nil
}

// DeleteRoom fails with persistence.ErrForeignKeyViolation while the room
// still has bookings.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	return requireAffected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&roomRow{}))
}

func (s *Store) CreateStudent(ctx context.Context, student persistence.Student) error {
	if student.ID == "" || student.Surname == "" {
		return persistence.ErrConstraintViolation
	}
	row := toStudentRow(student)
	return mapError(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) GetStudent(ctx context.Context, id string) (persistence.Student, error) {
	var row studentRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return persistence.Student{}, mapError(err)
	}
	return row.model(), nil
}

func (s *Store) ListStudents(ctx context.Context) ([]persistence.Student, error) {
	var rows []studentRow
	if err := s.db.WithContext(ctx).Order("surname ASC, name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	students := make([]persistence.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.model())
	}
	return students, nil
}

// CreateBooking relies on idx_bookings_slot to reject a taken slot.
func (s *Store) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" || booking.RoomID == "" || booking.TimeSlot == "" || booking.Date.IsZero() {
		return persistence.ErrConstraintViolation
	}
	row := toBookingRow(booking)
	return mapError(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	var row bookingRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return row.model(), nil
}

func (s *Store) FindBookingBySlot(ctx context.Context, roomID string, date time.Time, slot string) (persistence.Booking, error) {
	var row bookingRow
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND date = ? AND time_slot = ?", roomID, dateOnly(date), slot).
		Take(&row).Error
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return row.model(), nil
}

func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	q := s.db.WithContext(ctx).Model(&bookingRow{})
	if filter.RoomID != "" {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", dateOnly(*filter.From))
	}
	if filter.To != nil {
		q = q.Where("date <= ?", dateOnly(*filter.To))
	}
	if filter.HolderName != "" {
		q = q.Where("holder_name = ?", filter.HolderName)
	}

	var rows []bookingRow
	if err := q.Order("date ASC, time_slot ASC, room_id ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	bookings := make([]persistence.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, row.model())
	}
	return bookings, nil
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	return requireAffected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&bookingRow{}))
}

func (s *Store) CreateEntry(ctx context.Context, entry persistence.TardinessEntry) error {
	if entry.ID == "" || entry.StudentID == "" || entry.ReasonCode == "" {
		return persistence.ErrConstraintViolation
	}
	row := toEntryRow(entry)
	return mapError(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) GetEntry(ctx context.Context, id string) (persistence.TardinessEntry, error) {
	var row entryRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return persistence.TardinessEntry{}, mapError(err)
	}
	return row.model(), nil
}

// UpdateEntry rewrites the mutable fields in a single statement.
func (s *Store) UpdateEntry(ctx context.Context, entry persistence.TardinessEntry) error {
	if entry.ReasonCode == "" {
		return persistence.ErrConstraintViolation
	}
	result := s.db.WithContext(ctx).Model(&entryRow{}).Where("id = ?", entry.ID).Updates(map[string]any{
		"date":        dateOnly(entry.Date),
		"time_of_day": entry.TimeOfDay,
		"reason_code": entry.ReasonCode,
		"notified":    entry.Notified,
	})
	return requireAffected(result)
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	return requireAffected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&entryRow{}))
}

func (s *Store) ListEntries(ctx context.Context, filter persistence.TardinessFilter) ([]persistence.TardinessEntry, error) {
	q := s.db.WithContext(ctx).Model(&entryRow{})
	if filter.StudentID != "" {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.Date != nil {
		q = q.Where("date = ?", dateOnly(*filter.Date))
	}

	var rows []entryRow
	if err := q.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	entries := make([]persistence.TardinessEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.model())
	}
	return entries, nil
}
