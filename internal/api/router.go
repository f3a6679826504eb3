package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/cron"
	v1 "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/v1"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/config"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/rest/middleware"
)

type Handlers struct {
	Student  *v1.StudentHandler
	Invoice  *v1.InvoiceHandler
	Payment  *v1.PaymentHandler
	Sequence *v1.SequenceHandler

	CronInvoice *cron.InvoiceHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode == config.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(cfg),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	students := router.Group("/students")
	{
		students.POST("", handlers.Student.CreateStudent)
		students.GET("", handlers.Student.ListStudents)
		students.GET("/:id", handlers.Student.GetStudent)
		students.GET("/:id/payments", handlers.Student.GetStudentPayments)
		students.GET("/:id/balance", handlers.Student.GetOutstandingBalance)
	}

	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id", handlers.Invoice.UpdateInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)
		invoices.POST("/:id/authorize", handlers.Invoice.AuthorizeInvoice)
		invoices.POST("/:id/cancel", handlers.Invoice.CancelInvoice)
	}

	payments := router.Group("/payments")
	{
		payments.POST("", handlers.Payment.RegisterPayment)
		payments.GET("", handlers.Payment.ListPayments)
		payments.GET("/:id", handlers.Payment.GetPayment)
		payments.POST("/:id/void", handlers.Payment.VoidPayment)
	}

	sequences := router.Group("/sequences")
	{
		sequences.GET("/:category", handlers.Sequence.GetCurrentValue)
		sequences.POST("/:category/reset", handlers.Sequence.ResetCounter)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("/mark-overdue", handlers.CronInvoice.MarkOverdueInvoices)
	}
}
