// Package router holds the HTTP route table shared by cmd/api and the
// router-level tests.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "directpay/internal/docs" // registers the swagger doc
	"directpay/internal/handlers"
	"directpay/internal/middleware"
	"directpay/internal/services"
	"directpay/internal/validator"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Users        services.UserServicer
	Properties   services.PropertyServicer
	Leases       services.LeaseServicer
	Schedules    services.ScheduleServicer
	BankAccounts services.BankAccountServicer
	Payments     services.PaymentServicer
	Audit        services.AuditServicer
}

// NewServices builds the gorm-backed services. dispatcher receives every
// newly created transaction.
func NewServices(db *gorm.DB, dispatcher services.Dispatcher) Services {
	bankAccounts := services.NewBankAccountService(db)
	return Services{
		Users:        services.NewUserService(db),
		Properties:   services.NewPropertyService(db),
		Leases:       services.NewLeaseService(db),
		Schedules:    services.NewScheduleService(db),
		BankAccounts: bankAccounts,
		Payments:     services.NewPaymentService(db, bankAccounts, dispatcher),
		Audit:        services.NewAuditService(db),
	}
}

// New returns a gin engine with middleware and every route registered.
func New(svc Services) *gin.Engine {
	validator.Register()

	userHandler := handlers.NewUserHandler(svc.Users, svc.Audit)
	propertyHandler := handlers.NewPropertyHandler(svc.Properties, svc.Audit)
	leaseHandler := handlers.NewLeaseHandler(svc.Leases, svc.Schedules, svc.Audit)
	bankAccountHandler := handlers.NewBankAccountHandler(svc.BankAccounts, svc.Audit)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("", userHandler.CreateUser)
	users.GET("", userHandler.ListUsers)
	users.GET("/:id", userHandler.GetUser)

	properties := v1.Group("/properties")
	properties.POST("", propertyHandler.CreateProperty)
	properties.GET("/landlord/:landlord_id", propertyHandler.ListLandlordProperties)

	leases := v1.Group("/leases")
	leases.POST("", leaseHandler.CreateLease)
	leases.GET("/renter/:renter_id", leaseHandler.ListRenterLeases)
	leases.GET("/:id/schedule", leaseHandler.GetLeaseSchedule)

	bankAccounts := v1.Group("/bank-accounts")
	bankAccounts.POST("", bankAccountHandler.CreateBankAccount)
	bankAccounts.GET("/user/:user_id", bankAccountHandler.ListUserBankAccounts)
	bankAccounts.PATCH("/:id/set-primary", bankAccountHandler.SetPrimary)

	payments := v1.Group("/payments")
	payments.POST("", paymentHandler.InitiatePayment)
	payments.GET("/lease/:lease_id", paymentHandler.ListLeasePayments)
	payments.GET("/:id", paymentHandler.GetPayment)
	payments.GET("/:id/history", paymentHandler.GetPaymentHistory)
	payments.POST("/:id/retry", paymentHandler.RetryPayment)

	return router
}
