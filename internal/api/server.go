// @title CBT School Service API
// @version 1.0
// @description School registration, email verification, login and password recovery.
// @host localhost:5000
// @BasePath /
// @schemes http
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer <JWT>

package api

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/SundayYogurt/school_service/config"
	"github.com/SundayYogurt/school_service/infra/queue"
	"github.com/SundayYogurt/school_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/school_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/school_service/internal/domain"
	"github.com/SundayYogurt/school_service/internal/helper"
	"github.com/SundayYogurt/school_service/internal/helper/utils"
	"github.com/SundayYogurt/school_service/internal/interfaces"
	"github.com/SundayYogurt/school_service/internal/repository"
	"github.com/SundayYogurt/school_service/internal/services"
	"github.com/SundayYogurt/school_service/pkg/cloudinary"
	"github.com/SundayYogurt/school_service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// any fixed number shared by every replica
const migrateLockID int64 = 20260222

func StartServer(cfg config.Config) error {
	log := logger.WithModule("server")

	// ---------- DB ----------
	db, err := OpenDatabase(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	log.Info("database connected")

	if err := Migrate(db); err != nil {
		return err
	}
	log.Info("migration successful")

	// ---------- Infra ----------
	cld, err := cloudinary.New(cfg.CloudinaryUrl)
	if err != nil {
		return err
	}
	up := cloudinary.NewCloudinaryUploader(cld)

	notifier, closeNotifier := NewNotifier(cfg)
	defer closeNotifier()

	authHelper := helper.SetupAuth(cfg.AccessSecret)

	// ---------- Repository / Service / Handler ----------
	schoolRepo := repository.NewSchoolRepository(db)
	schoolSvc := services.NewSchoolService(schoolRepo, authHelper, up, notifier, services.Options{
		FrontendURL: cfg.FrontendURL,
	})
	schoolHandler := handlers.NewSchoolHandler(schoolSvc, authHelper)

	app := NewApp(cfg, schoolHandler)

	// ---------- Listen ----------
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info("listening", zap.String("addr", cfg.ServerPort), zap.String("mail_transport", cfg.MailTransport))
	return app.Listen(cfg.ServerPort)
}

// NewApp builds the fiber app with middleware, ops endpoints and the school routes.
func NewApp(cfg config.Config, schoolHandler *handlers.SchoolHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "school-service",
		BodyLimit:    handlers.MaxImageSize + 1024*1024,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowHeaders: "Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(middleware.RequestLogger(logger.WithModule("http")))

	RegisterSwagger(app)

	// ---------- Health / Metrics ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	schoolHandler.SetupRoutes(app)
	return app
}

func OpenDatabase(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

// Migrate creates the schools table. On postgres concurrent replicas are
// serialised with a session advisory lock, so lock, migrate and unlock all run
// on one pinned connection.
func Migrate(db *gorm.DB) error {
	return db.Connection(func(conn *gorm.DB) error {
		if conn.Dialector.Name() != "postgres" {
			return migrateSchema(conn)
		}
		return withAdvisoryLock(conn, migrateLockID, migrateSchema)
	})
}

func migrateSchema(conn *gorm.DB) error {
	return conn.AutoMigrate(&domain.School{})
}

// withAdvisoryLock runs fn while holding the session lock id. conn must be a
// single connection; the unlock runs even when fn fails.
func withAdvisoryLock(conn *gorm.DB, id int64, fn func(*gorm.DB) error) error {
	if err := conn.Exec("SELECT pg_advisory_lock(?)", id).Error; err != nil {
		return err
	}
	fnErr := fn(conn)
	unlockErr := conn.Exec("SELECT pg_advisory_unlock(?)", id).Error
	return errors.Join(fnErr, unlockErr)
}

// NewNotifier picks inline SMTP delivery or Kafka hand-off to mail-svc.
func NewNotifier(cfg config.Config) (interfaces.Notifier, func()) {
	if cfg.MailTransport == config.MailTransportKafka {
		producer := queue.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaUsername, cfg.KafkaPassword)
		return queue.NewMailNotifier(producer), func() { _ = producer.Close() }
	}
	return services.NewMailService(SMTPSettings(cfg)), func() {}
}

func SMTPSettings(cfg config.Config) services.SMTPSettings {
	return services.SMTPSettings{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	}
}

func errorHandler(ctx *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return utils.ResponseError(ctx, fe.Code, fe.Message)
	}
	logger.WithModule("http").Error("unhandled error", zap.String("path", ctx.Path()), zap.Error(err))
	return utils.ResponseError(ctx, fiber.StatusInternalServerError, utils.ServerErrorMessage)
}
