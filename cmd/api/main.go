package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/go-chi/httplog/v3"
)

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "cmlabs-attendance-engine"),
		slog.String("env", cfg.App.Env),
	)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repos attendanceService.Repositories
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Batch.Workers)
		if err != nil {
			logger.Error("Error connecting to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Error("Error applying database schema", "error", err)
			os.Exit(1)
		}

		repos = attendanceService.Repositories{
			Records:     postgresql.NewRecordRepository(db),
			Corrections: postgresql.NewCorrectionRepository(db),
			Events:      postgresql.NewEventRepository(db),
			Shifts:      postgresql.NewShiftRepository(db),
			Assignments: postgresql.NewShiftAssignmentRepository(db),
			Policies:    postgresql.NewPolicyRepository(db),
			Staff:       postgresql.NewStaffRepository(db),
			Leaves:      postgresql.NewLeaveRequestRepository(db),
			Holidays:    postgresql.NewHolidayRepository(db),
			Transactor:  postgresql.NewTransactor(db),
		}
	case config.StorageMemory:
		store := memory.NewStore()
		repos = attendanceService.Repositories{
			Records:     store.Records(),
			Corrections: store.Corrections(),
			Events:      store.Events(),
			Shifts:      store.Shifts(),
			Assignments: store.Assignments(),
			Policies:    store.Policies(),
			Staff:       store.Staff(),
			Leaves:      store.LeaveRequests(),
			Holidays:    store.Holidays(),
			Transactor:  store,
		}
		logger.Warn("Using in-memory storage; data is lost on restart")
	}

	svc := attendanceService.NewAttendanceService(repos, attendanceService.Options{
		Rules:           cfg.EngineRules(),
		Workers:         cfg.Batch.Workers,
		WeekCloseGrace:  cfg.Batch.WeekCloseGrace,
		LookbackWeeks:   cfg.Batch.ReconcileLookbackWeeks,
		PendingLimit:    cfg.Batch.PendingLimit,
		DefaultTimezone: cfg.Engine.DefaultTimezone,
		Logger:          logger,
	})

	scheduler := cron.NewScheduler(logger)
	cron.NewAttendanceJobs(svc, logger).RegisterJobs(scheduler, cfg.Batch.PendingInterval, cfg.Batch.ReconcileInterval, cfg.Batch.AbsentInterval)
	scheduler.Start()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceHandler := appHTTP.NewAttendanceHandler(svc)
	router := appHTTP.NewRouter(JWTService, appHTTP.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.App.AllowedOrigins,
	}, attendanceHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server running", "addr", server.Addr, "storage", cfg.Storage,
			"cors_origins", strings.Join(cfg.App.AllowedOrigins, ","))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	scheduler.Stop()
}
