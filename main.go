package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"learnhub/config"
	communityControllers "learnhub/controllers/community"
	courseControllers "learnhub/controllers/course"
	"learnhub/database"
	"learnhub/logger"
	"learnhub/notify"
	"learnhub/routers/communityRoutes"
	"learnhub/routers/courseRoutes"
	"learnhub/services/authz"
	"learnhub/services/community"
	"learnhub/services/content"
	"learnhub/services/dashboard"
	"learnhub/services/enrollment"
	"learnhub/services/ordering"
	"learnhub/storage"
	"learnhub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"google.golang.org/api/option"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.ConnectDb(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to the database", "error", err)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to open asset store", "driver", cfg.StorageDriver, "error", err)
	}
	defer closeStore()

	policy := storage.UploadPolicy{MaxFiles: cfg.UploadMaxFiles, MaxFileSize: cfg.MaxUploadBytes()}
	releaser := storage.NewReleaser(store, db, log)
	resolver := authz.NewResolver(db)
	engine := ordering.NewEngine(log)

	contentSvc := content.NewService(db, resolver, engine, store, releaser, policy, log)
	enrollmentSvc := enrollment.NewService(db, resolver, buildNotifier(cfg, log), log)
	dashboardSvc := dashboard.NewService(db)
	communitySvc := community.NewService(db, resolver, store, releaser, policy, log)

	scheduler, err := utils.InitializeSchedulers(utils.SchedulerSpecs{
		AssetReaper: cfg.AssetReaperSpec,
		OrderAudit:  cfg.OrderAuditSpec,
	}, releaser, engine, db, log)
	if err != nil {
		log.Fatal("Failed to start schedulers", "error", err)
	}

	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		// a full lesson upload plus form fields
		BodyLimit: cfg.UploadMaxFiles*int(cfg.MaxUploadBytes()) + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(fiberLogger.New(fiberLogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Locally stored assets are served from their upload directory
	if cfg.StorageDriver == "local" {
		app.Static(cfg.StoragePublicBaseURL, cfg.StorageLocalDir)
	}

	courseHandler := courseControllers.NewHandler(contentSvc, enrollmentSvc, dashboardSvc, log)
	courseRoutes.SetupInstructorRoutes(app, courseHandler, cfg.JWTKey)
	courseRoutes.SetupCourseRoutes(app, courseHandler, cfg.JWTKey)
	communityRoutes.SetupCommunityRoutes(app, communityControllers.NewHandler(communitySvc, log), cfg.JWTKey)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Server is running", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
	<-scheduler.Stop().Done()
	enrollmentSvc.Wait()
}

func openStore(cfg *config.Config) (storage.AssetStore, func(), error) {
	switch cfg.StorageDriver {
	case "gcs":
		var opts []option.ClientOption
		if creds := cfg.GCSCredentialsFile; strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else if creds != "" {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
		store, err := storage.NewGCSStore(context.Background(), cfg.GCSBucket, cfg.StoragePublicBaseURL, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := storage.NewLocalStore(cfg.StorageLocalDir, cfg.StoragePublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func buildNotifier(cfg *config.Config, log *logger.Logger) notify.Notifier {
	var notifiers notify.Multi
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.SendGridAPIKey != "" && cfg.EmailSender != "" {
		notifiers = append(notifiers, notify.NewEmailNotifier(cfg.SendGridAPIKey, cfg.AppName, cfg.EmailSender))
	}
	if len(notifiers) == 0 {
		log.Info("No enrollment notifiers configured")
		return notify.Noop{}
	}
	return notifiers
}
