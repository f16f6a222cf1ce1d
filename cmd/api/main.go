package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/nobat/booking-api/config"
	appointmentHandler "github.com/nobat/booking-api/internal/handler/appointment"
	availabilityHandler "github.com/nobat/booking-api/internal/handler/availability"
	bookingHandler "github.com/nobat/booking-api/internal/handler/booking"
	doctorHandler "github.com/nobat/booking-api/internal/handler/doctor"
	healthHandler "github.com/nobat/booking-api/internal/handler/health"
	scheduleHandler "github.com/nobat/booking-api/internal/handler/schedule"
	tariffHandler "github.com/nobat/booking-api/internal/handler/tariff"
	"github.com/nobat/booking-api/internal/middleware"
	"github.com/nobat/booking-api/internal/repository/postgres"
	"github.com/nobat/booking-api/internal/router"
	appointmentService "github.com/nobat/booking-api/internal/service/appointment"
	bookingService "github.com/nobat/booking-api/internal/service/booking"
	doctorService "github.com/nobat/booking-api/internal/service/doctor"
	scheduleService "github.com/nobat/booking-api/internal/service/schedule"
	tariffService "github.com/nobat/booking-api/internal/service/tariff"
	"github.com/nobat/booking-api/pkg/logger"
	"github.com/nobat/booking-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appMetrics := metrics.NewMetrics("booking", "api")

	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	exceptionRepo := postgres.NewExceptionRepository(db)
	tariffRepo := postgres.NewTariffRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	scheduleSvc := scheduleService.NewService(scheduleRepo, exceptionRepo, doctorRepo, appointmentRepo, appLogger.WithComponent("schedule"), appMetrics)
	tariffSvc := tariffService.NewService(tariffRepo, doctorRepo, appLogger.WithComponent("tariff"), appMetrics)
	bookingSvc := bookingService.NewService(doctorRepo, patientRepo, scheduleRepo, exceptionRepo, appointmentRepo, tariffSvc, appLogger.WithComponent("booking"), appMetrics)
	appointmentSvc := appointmentService.NewService(appointmentRepo, doctorRepo, appLogger.WithComponent("appointment"), appMetrics)
	doctorSvc := doctorService.NewService(doctorRepo, appLogger.WithComponent("doctor"))

	r := router.New(router.Config{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORS:             middleware.DefaultCORSConfig(),
		MetricsPath:      cfg.Monitoring.MetricsPath,
	},
		healthHandler.NewHandler(db),
		availabilityHandler.NewHandler(scheduleSvc, time.Duration(cfg.Booking.SlotCacheTTLSeconds)*time.Second),
		bookingHandler.NewHandler(bookingSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		doctorHandler.NewHandler(doctorSvc),
		scheduleHandler.NewHandler(scheduleSvc),
		tariffHandler.NewHandler(tariffSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
