package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"library_app_echo/internal/handlers"
	appMiddleware "library_app_echo/internal/middleware"
	"library_app_echo/internal/models"
	"library_app_echo/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migration
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; services degrade to direct DB reads without it
	cache, err := services.NewRedisCache(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Printf("Warning: Redis initialization failed: %v", err)
		log.Println("Caching disabled; sessions require Redis to log in")
	}

	// Initialize services
	authService := services.NewAuthService(db, cache)
	catalogService := services.NewCatalogService(db, cache)
	fineService := services.NewFineService(db, cache)
	notificationService := services.NewNotificationService(db)
	reservationService := services.NewReservationService(db, catalogService, notificationService)
	circulationService := services.NewCirculationService(db, catalogService, fineService, reservationService, notificationService)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	circulationHandler := handlers.NewCirculationHandler(circulationService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	fineHandler := handlers.NewFineHandler(fineService)
	adminHandler := handlers.NewAdminHandler(db)

	// Public routes
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)

	// Protected routes
	protected := e.Group("")
	protected.Use(appMiddleware.RequireAuth(authService))

	// Catalog routes
	protected.GET("/books", catalogHandler.ListBooks)
	protected.GET("/books/:id", catalogHandler.GetBook)

	// Member circulation routes
	protected.GET("/my/loans", circulationHandler.MyLoans)
	protected.POST("/books/:id/borrow", circulationHandler.BorrowBook)
	protected.POST("/loans/:id/return", circulationHandler.ReturnLoan)
	protected.POST("/loans/:id/extend", circulationHandler.ExtendLoan)

	// Member reservation routes
	protected.GET("/my/reservations", reservationHandler.MyReservations)
	protected.POST("/books/:id/reserve", reservationHandler.ReserveBook)
	protected.POST("/reservations/:id/cancel", reservationHandler.CancelReservation)

	// Member fine and notification routes
	protected.GET("/my/fines", fineHandler.MyFines)
	protected.GET("/my/notifications", adminHandler.MyNotifications)

	// Staff circulation desk
	circulationDesk := protected.Group("/staff", appMiddleware.RequirePermission(models.PermCirculationManage))
	circulationDesk.GET("/loans", circulationHandler.ManageLoans)
	circulationDesk.POST("/copies/:id/borrow", circulationHandler.StaffBorrowCopy)
	circulationDesk.POST("/loans/:id/return", circulationHandler.StaffReturnLoan)
	circulationDesk.POST("/copies/:id/condition", circulationHandler.MarkCopyCondition)

	// Staff fine management
	finesDesk := protected.Group("/staff", appMiddleware.RequirePermission(models.PermFinesManage))
	finesDesk.POST("/fines/:id/payment", fineHandler.RecordPayment)
	finesDesk.GET("/fine-rules", fineHandler.ListRules)
	finesDesk.POST("/fine-rules", fineHandler.CreateRule)
	finesDesk.DELETE("/fine-rules/:id", fineHandler.DeleteRule)

	// Staff reservation management
	reservationsDesk := protected.Group("/staff", appMiddleware.RequirePermission(models.PermReservationsAdmin))
	reservationsDesk.POST("/books/:id/reserve", reservationHandler.StaffPriorityReserve)

	// Membership administration
	membershipAdmin := protected.Group("/admin", appMiddleware.RequirePermission(models.PermMembershipManage))
	membershipAdmin.GET("/tiers", adminHandler.ListTiers)
	membershipAdmin.POST("/tiers", adminHandler.UpsertTier)
	membershipAdmin.POST("/members", adminHandler.CreateMember)
	membershipAdmin.POST("/members/:id/roles", adminHandler.GrantRole)

	// Branch administration
	branchAdmin := protected.Group("/admin", appMiddleware.RequirePermission(models.PermBranchManage))
	branchAdmin.GET("/branches", adminHandler.ListBranches)
	branchAdmin.POST("/branches", adminHandler.CreateBranch)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusTemporaryRedirect, "/books")
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
