package main

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/cron"
	v1 "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/v1"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/cache"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/config"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/postgres"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/repository"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/service"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/validator"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/migrations"
)

func init() {
	// The whole application runs in UTC
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,
			provideCache,

			postgres.NewDB,
			postgres.NewClient,

			repository.NewStudentRepository,
			repository.NewInvoiceRepository,
			repository.NewPaymentRepository,
			repository.NewSequenceRepository,

			service.NewServiceParams,
			service.NewNumberingService,
			service.NewStudentService,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewBillingService,

			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)
	app.Run()
}

func provideCache(log *logger.Logger) cache.Cache {
	return cache.Initialize(log)
}

func provideHandlers(
	log *logger.Logger,
	studentService service.StudentService,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
	billingService service.BillingService,
	numberingService service.NumberingService,
) api.Handlers {
	return api.Handlers{
		Student:     v1.NewStudentHandler(studentService, billingService, log),
		Invoice:     v1.NewInvoiceHandler(invoiceService, log),
		Payment:     v1.NewPaymentHandler(paymentService, log),
		Sequence:    v1.NewSequenceHandler(numberingService, log),
		CronInvoice: cron.NewInvoiceHandler(invoiceService, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, log)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *sqlx.DB,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Postgres.AutoMigrate {
				names := migrations.Names()
				sort.Strings(names)
				for _, name := range names {
					log.Infow("applying migration", "name", name)
					if _, err := db.ExecContext(ctx, migrations.Read(name)); err != nil {
						return err
					}
				}
			}

			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return db.Close()
		},
	})
}
