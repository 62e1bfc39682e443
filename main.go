package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"qrific/internal/email"
	"qrific/internal/fulfillment"
	"qrific/internal/handlers"
	"qrific/internal/middleware"
	"qrific/internal/models"
	"qrific/internal/payment"
	"qrific/internal/repositories"
	"qrific/internal/services"
	"qrific/internal/worker"
	"qrific/pkg/events"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("STORE_URL", "https://qrific.example.com")
	viper.SetDefault("STORE_NAME", "Qrific")
	viper.SetDefault("TAX_ON_SHIPPING", true)
	viper.SetDefault("RECONCILE_INTERVAL", "1m")
	viper.SetDefault("RECONCILE_STALENESS", "15m")
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")

	// --- Database ---
	db, err := openDatabase(viper.GetString("DATABASE_URL"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.QRCode{}, &models.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Event broker (optional) ---
	var mqClient *events.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = events.NewClient(events.Config{URL: url})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, order events disabled")
	}

	// --- Repositories ---
	orderRepo := repositories.NewGORMOrderRepository(db)
	qrRepo := repositories.NewGORMQRCodeRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- External collaborators ---
	// Credentialed clients are built once here and injected; nothing else
	// reads the environment.
	gateway := buildGateway()
	partner := buildPartner()
	notifier := buildNotifier()

	// --- Services ---
	storeURL := viper.GetString("STORE_URL")
	fulfiller := services.NewFulfillmentService(orderRepo, qrRepo, partner, storeURL)
	checkoutService := services.NewCheckoutService(
		orderRepo,
		gateway,
		partner,
		fulfiller,
		notifier,
		mqClient,
		viper.GetString("PAYMENT_WEBHOOK_SECRET"),
		services.TaxPolicy{TaxOnShipping: viper.GetBool("TAX_ON_SHIPPING")},
	)
	activationService := services.NewActivationService(qrRepo, userRepo)
	qrService := services.NewQRCodeService(qrRepo, orderRepo, userRepo)
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))

	// --- Handlers ---
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	activationHandler := handlers.NewActivationHandler(activationService)
	qrHandler := handlers.NewQRCodeHandler(qrService)
	authHandler := handlers.NewAuthHandler(authService)
	orderHandler := handlers.NewOrderHandler(checkoutService, qrService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New()) // Request logger

	apiV1 := app.Group("/api/v1")
	checkoutHandler.RegisterRoutes(apiV1)
	activationHandler.RegisterRoutes(apiV1)
	qrHandler.RegisterRoutes(apiV1)
	authHandler.RegisterRoutes(apiV1)
	// Operator routes sit behind JWT auth.
	orderHandler.RegisterRoutes(apiV1.Group("/orders", middleware.AuthRequired(authService)))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Background workers ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := worker.NewReconciliationWorker(
		orderRepo,
		gateway,
		checkoutService,
		viper.GetDuration("RECONCILE_INTERVAL"),
		viper.GetDuration("RECONCILE_STALENESS"),
	)
	go reconciler.Run(ctx)

	if mqClient != nil {
		go func() {
			log.Println("Starting order-events consumer...")
			consumeErr := mqClient.Consume(func(msg amqp.Delivery) error {
				log.Printf("Order event %s (tag %d): %s", msg.Type, msg.DeliveryTag, string(msg.Body))
				return nil
			})
			if consumeErr != nil {
				log.Printf("Order-events consumer stopped: %v", consumeErr)
			}
		}()
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	cancel()

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openDatabase connects to postgres when a DSN is configured and falls back
// to in-memory sqlite for local runs. TranslateError makes unique-constraint
// violations recognizable across both drivers.
func openDatabase(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if dsn != "" {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	log.Println("DATABASE_URL not set, using in-memory sqlite")
	return gorm.Open(sqlite.Open("file::memory:?cache=shared"), cfg)
}

// buildGateway returns the real payment gateway when a secret key is
// configured, otherwise the in-memory mock.
func buildGateway() payment.Gateway {
	secretKey := viper.GetString("PAYMENT_SECRET_KEY")
	if secretKey == "" {
		log.Println("PAYMENT_SECRET_KEY not set, using mock payment gateway")
		return payment.NewMockGateway()
	}
	return payment.NewHTTPGateway(viper.GetString("PAYMENT_API_URL"), secretKey)
}

// buildPartner returns the real print partner client when an API key is
// configured, otherwise a mock with a small seeded catalog.
func buildPartner() fulfillment.Client {
	apiKey := viper.GetString("PRINTFUL_API_KEY")
	if apiKey == "" {
		log.Println("PRINTFUL_API_KEY not set, using mock fulfillment partner")
		mock := fulfillment.NewMockClient(300, 900)
		seedCatalog(mock)
		return mock
	}
	return fulfillment.NewHTTPClient(
		viper.GetString("PRINTFUL_API_URL"),
		apiKey,
		viper.GetString("PRINTFUL_SHOP_ID"),
	)
}

// buildNotifier wires the SMTP sender when mail is configured.
func buildNotifier() *services.NotificationService {
	sender, err := email.NewSMTPSender(email.Config{
		Server:   viper.GetString("SMTP_SERVER"),
		Port:     viper.GetString("SMTP_PORT"),
		Username: viper.GetString("SMTP_USER"),
		Password: viper.GetString("SMTP_PASS"),
		FromAddr: viper.GetString("FROM_ADDR"),
		FromName: viper.GetString("FROM_NAME"),
	})
	if err != nil {
		log.Printf("SMTP not configured, order notifications disabled: %v", err)
		return nil
	}
	return services.NewNotificationService(sender, viper.GetString("ADMIN_EMAIL"), viper.GetString("STORE_NAME"))
}

// seedCatalog populates the mock partner with the shirt variants the
// storefront sells.
func seedCatalog(mock *fulfillment.MockClient) {
	variants := []fulfillment.Variant{
		{ID: "var-s-white", Title: "S / White", ProductID: "prod-qr-tee", ProductTitle: "Qrific T-Shirt", Price: 2500},
		{ID: "var-m-white", Title: "M / White", ProductID: "prod-qr-tee", ProductTitle: "Qrific T-Shirt", Price: 2500},
		{ID: "var-l-white", Title: "L / White", ProductID: "prod-qr-tee", ProductTitle: "Qrific T-Shirt", Price: 2500},
		{ID: "var-m-black", Title: "M / Black", ProductID: "prod-qr-tee", ProductTitle: "Qrific T-Shirt", Price: 2700},
	}
	for _, v := range variants {
		mock.SeedVariant(v)
		log.Printf("Seeded catalog variant: %s (%s)", v.Title, v.ID)
	}
}
