package main

import (
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

	"pasar/internal/clients"
	"pasar/internal/handlers"
	"pasar/internal/middleware"
	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/pkg/rabbitmq"
)

// newApp assembles the Fiber app from its collaborators. Split out from
// main so tests can wire mocks in place of the real backend and broker.
func newApp(forms *services.FormService, submits *services.SubmitService, client clients.ProductAPI, jwtSecret string) *fiber.App {
	app := fiber.New()

	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")
	apiV1.Use(middleware.AuthRequired(jwtSecret))

	formHandler := handlers.NewFormHandler(forms, submits, client)
	formHandler.RegisterRoutes(apiV1)

	return app
}

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("BACKEND_API_URL", "http://localhost:8000/api")
	viper.SetDefault("JWT_SECRET", "dev_secret_change_me")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("DRAFT_DB_PATH", "drafts.db")
	viper.SetDefault("DRAFT_TTL_HOURS", 24)
	viper.SetDefault("DRAFT_DEBOUNCE_MS", 1000)
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	backendURL := viper.GetString("BACKEND_API_URL")
	jwtSecret := viper.GetString("JWT_SECRET")
	rabbitMQURL := viper.GetString("RABBITMQ_URL")

	// --- Draft storage ---
	// A Postgres DSN takes precedence for server deployments; the default
	// is a local SQLite file.
	var dialector gorm.Dialector
	if dsn := viper.GetString("DATABASE_DSN"); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(viper.GetString("DRAFT_DB_PATH"))
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open draft database: %v", err)
	}
	draftRepo, err := repositories.NewGORMDraftRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize draft storage: %v", err)
	}

	// --- RabbitMQ client (optional) ---
	// Listing events are a side channel; the form works without a broker.
	var mqClient *rabbitmq.Client
	if rabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, listing events disabled.")
	}

	// --- Backend client ---
	productClient := clients.NewHTTPProductClient(backendURL)

	// --- Services ---
	formConfig := services.FormConfig{
		DraftTTL:      time.Duration(viper.GetInt("DRAFT_TTL_HOURS")) * time.Hour,
		DraftDebounce: time.Duration(viper.GetInt("DRAFT_DEBOUNCE_MS")) * time.Millisecond,
	}
	formService := services.NewFormService(draftRepo, formConfig)

	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}
	submitService := services.NewSubmitService(formService, productClient, events)

	// --- App ---
	app := newApp(formService, submitService, productClient, jwtSecret)

	// --- Listing event consumer ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for listing events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received listing event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeListingEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
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

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
