package main

import (
	"context"
	"log"
	"os"

	_ "fieldops/api/swagger" // swagger docs
	"fieldops/internal/database"
	"fieldops/internal/handler"
	"fieldops/internal/middleware"
	"fieldops/internal/repository"
	"fieldops/internal/service"
	"fieldops/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Field Service Operations API
// @version         1.0
// @description     Service order lifecycle, approvals, purchase orders, invoices and deliveries for a field service operation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "fieldops")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authzService := service.NewAuthzService(service.NewActorDirectory(userRepo))
	userService := service.NewUserService(db, userRepo)
	roleService := service.NewRoleService(db, userRepo)
	clientService := service.NewClientService(db)
	visitService := service.NewVisitService(db)
	orderService := service.NewOrderService(db, txManager, orderRepo, auditRepo, authzService, wsHub)
	poService := service.NewPurchaseOrderService(db, txManager, orderRepo, auditRepo, orderService)
	invoiceService := service.NewInvoiceService(db, txManager, auditRepo)
	deliveryService := service.NewDeliveryService(db, txManager, orderRepo, auditRepo, orderService, wsHub)
	auditService := service.NewAuditService(auditRepo)

	// Reconcile the permission catalog and built-in roles before serving
	ctx := context.Background()
	if err := roleService.SyncCatalog(ctx); err != nil {
		log.Fatalf("Permission catalog sync failed: %v", err)
	}
	if err := roleService.SeedBuiltinRoles(ctx); err != nil {
		log.Fatalf("Built-in role seeding failed: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, authzService)
	roleHandler := handler.NewRoleHandler(roleService, authzService)
	clientHandler := handler.NewClientHandler(clientService, authzService)
	visitHandler := handler.NewVisitHandler(visitService, authzService)
	orderHandler := handler.NewOrderHandler(orderService, authzService)
	poHandler := handler.NewPurchaseOrderHandler(poService, authzService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, authzService)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService, authzService)
	auditHandler := handler.NewAuditHandler(auditService, authzService)
	maintenanceHandler := handler.NewMaintenanceHandler(poService, invoiceService, authzService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for the order event feed
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	api := router.Group("/api")
	userHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	clientHandler.RegisterRoutes(api)
	visitHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	poHandler.RegisterRoutes(api)
	invoiceHandler.RegisterRoutes(api)
	deliveryHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	maintenanceHandler.RegisterRoutes(api)

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
