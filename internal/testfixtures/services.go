package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/checkclass/internal/adapter"
	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Slots       calendar.TimeSlotSet
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Slots:       calendar.DefaultTimeSlotSet(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Slots.Len() == 0 {
		factory.Slots = calendar.DefaultTimeSlotSet()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithSlots overrides the timetable used by the factory.
func WithSlots(slots calendar.TimeSlotSet) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Slots = slots
	}
}

// WithLogger overrides the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services bundles every application service over one store.
type Services struct {
	Repositories  *adapter.Repositories
	Bookings      *application.BookingService
	Calendar      *application.CalendarService
	Ledger        *application.LedgerService
	Notifications *application.NotificationService
	Reports       *application.ReportService
	Directory     *application.DirectoryService
}

// NewServices wires every service to store using the factory defaults.
func (f *ServiceFactory) NewServices(store persistence.Store) Services {
	repos := adapter.New(store)
	ids := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()

	bookings := application.NewBookingServiceWithLogger(repos, repos, f.Slots, ids, now, f.Logger)
	return Services{
		Repositories:  repos,
		Bookings:      bookings,
		Calendar:      application.NewCalendarServiceWithLogger(repos, f.Slots, f.Logger),
		Ledger:        application.NewLedgerServiceWithLogger(repos, repos, ids, now, f.Logger),
		Notifications: application.NewNotificationServiceWithLogger(repos, repos, f.Logger),
		Reports:       application.NewReportServiceWithLogger(bookings, repos, repos, repos, f.Logger),
		Directory:     application.NewDirectoryServiceWithLogger(repos, repos, ids, now, f.Logger),
	}
}
