package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fiscal_service/internal/config"
	"fiscal_service/internal/database/mongo"
	"fiscal_service/internal/events"
	"fiscal_service/internal/handlers"
	"fiscal_service/internal/repository"
	"fiscal_service/internal/service"
	"fiscal_service/pkg/discovery"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/fiscal", "log", "fiscal_service")
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func rabbitURI() string {
	cfg := config.ServiceConfig
	if cfg.RabbitMQUser == "" || cfg.RabbitMQPort == "" {
		return ""
	}
	return fmt.Sprintf("amqp://%s:%s@rabbitmq:%s/", cfg.RabbitMQUser, cfg.RabbitMQPassword, cfg.RabbitMQPort)
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	defer mongo.DisconnectMongo()

	eventPublisher, err := events.NewEventPublisher(rabbitURI())
	if err != nil {
		log.Printf("Warning: Event publisher unavailable: %v", err)
		eventPublisher, _ = events.NewEventPublisher("")
	}
	defer eventPublisher.Close()

	repos := repository.Repositories_instance

	accessService := service.NewAccessService(repos.AccessGrantRepository)
	grantService := service.NewGrantService(
		repos.AccessGrantRepository,
		repos.ResponsibilityCentreRepository,
		repos.UserAccountRepository,
		accessService,
		eventPublisher,
	)
	syncService := service.NewSyncService(
		config.ServiceConfig.DirectorySync,
		repos.AccessGrantRepository,
		repos.ResponsibilityCentreRepository,
		repos.UserAccountRepository,
		eventPublisher,
	)
	accountService := service.NewAccountService(repos.UserAccountRepository, repos.RedisRepository, syncService, eventPublisher)
	sessionService := service.NewSessionService(repos.RedisRepository)
	rcService := service.NewRCService(repos.ResponsibilityCentreRepository, accessService)

	app := fiber.New(fiber.Config{})

	handlers.NewAuthHandler(accountService, sessionService).RegisterRoutes(app)
	handlers.NewPermissionHandler(grantService).RegisterRoutes(app)
	handlers.NewRCHandler(rcService, nil).RegisterRoutes(app)

	if err := discovery.ServiceDiscovery.Register(); err != nil {
		log.Printf("Warning: Consul registration failed: %v", err)
	}
	defer func() {
		if err := discovery.ServiceDiscovery.Deregister(); err != nil {
			log.Printf("Error deregistering service: %v", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", config.ServiceConfig.Port)
		if err := app.Listen(":" + config.ServiceConfig.Port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	<-doneChan
	log.Println("Server exited, goodbye!")
}
