package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/checkclass/internal/adapter"
	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
	httptransport "github.com/example/checkclass/internal/http"
	"github.com/example/checkclass/internal/persistence"
	"github.com/example/checkclass/internal/token"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			ctx := cmd.Context()

			slots, err := a.cfg.Timetable()
			if err != nil {
				return err
			}
			issuer, err := token.NewIssuer(a.cfg.TokenSecret, a.cfg.TokenTTL, time.Now)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					a.logger.Error("failed to close storage", "error", cerr)
				}
			}()

			server := &http.Server{
				Addr:              a.cfg.Addr(),
				Handler:           newHandler(store, slots, issuer, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			listener, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", server.Addr, err)
			}
			return runServer(ctx, server, listener, a.logger)
		},
	}
}

// services holds the application layer wired to one store.
type services struct {
	bookings      *application.BookingService
	calendar      *application.CalendarService
	ledger        *application.LedgerService
	notifications *application.NotificationService
	reports       *application.ReportService
	directory     *application.DirectoryService
}

func newServices(store persistence.Store, slots calendar.TimeSlotSet, logger *slog.Logger) services {
	repos := adapter.New(store)
	ids := uuid.NewString
	now := time.Now

	bookings := application.NewBookingServiceWithLogger(repos, repos, slots, ids, now, logger)
	return services{
		bookings:      bookings,
		calendar:      application.NewCalendarServiceWithLogger(repos, slots, logger),
		ledger:        application.NewLedgerServiceWithLogger(repos, repos, ids, now, logger),
		notifications: application.NewNotificationServiceWithLogger(repos, repos, logger),
		reports:       application.NewReportServiceWithLogger(bookings, repos, repos, repos, logger),
		directory:     application.NewDirectoryServiceWithLogger(repos, repos, ids, now, logger),
	}
}

func newHandler(store persistence.Store, slots calendar.TimeSlotSet, issuer *token.Issuer, logger *slog.Logger) http.Handler {
	svc := newServices(store, slots, logger)
	return httptransport.NewRouter(httptransport.RouterConfig{
		Bookings:   httptransport.NewBookingHandler(svc.bookings, logger),
		Calendar:   httptransport.NewCalendarHandler(svc.calendar, logger),
		Ledger:     httptransport.NewLedgerHandler(svc.ledger, svc.notifications, logger),
		Reports:    httptransport.NewReportHandler(svc.reports, logger),
		Directory:  httptransport.NewDirectoryHandler(svc.directory, logger),
		Health:     healthCheck(store),
		Auth:       httptransport.RequireActor(issuer, logger),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}

// runServer serves on listener until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func runServer(ctx context.Context, server *http.Server, listener net.Listener, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("checkclass API listening", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", "error", err)
			return err
		}
		logger.Info("checkclass API stopped")
		return nil
	})

	return g.Wait()
}
