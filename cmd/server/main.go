package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Amir-debuug/cert-verification-sub001/internal/api"
	"github.com/Amir-debuug/cert-verification-sub001/internal/blob"
	"github.com/Amir-debuug/cert-verification-sub001/internal/codec"
	"github.com/Amir-debuug/cert-verification-sub001/internal/config"
	"github.com/Amir-debuug/cert-verification-sub001/internal/db"
	"github.com/Amir-debuug/cert-verification-sub001/internal/db/models"
	"github.com/Amir-debuug/cert-verification-sub001/internal/hashid"
	"github.com/Amir-debuug/cert-verification-sub001/internal/services"
	"github.com/Amir-debuug/cert-verification-sub001/internal/utils"
	"github.com/Amir-debuug/cert-verification-sub001/internal/watermark"
	"github.com/Amir-debuug/cert-verification-sub001/pkg/logger"
	"github.com/Amir-debuug/cert-verification-sub001/pkg/metrics"
)

func main() {
	var cfg *config.Configuration
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg = config.InitializeDefaultConfig()
	}

	zapLogger, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	config.LogConfig(zapLogger)

	if cfg.Security.EncryptionKey == "" {
		zapLogger.Fatal("No encryption key configured")
	}

	database, err := db.Initialize(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	blobStore, err := blob.NewMinioStore(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.UseSSL,
		zapLogger,
	)
	if err != nil {
		zapLogger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	payloadCodec, err := codec.New(cfg.Security.EncryptionKey)
	if err != nil {
		zapLogger.Fatal("Failed to initialize payload codec", zap.Error(err))
	}

	if err := seedDatabase(database, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed database", zap.Error(err))
	}

	collector := metrics.NewCollector()
	marker := watermark.New(zapLogger)

	permissionService := services.NewPermissionService(database, zapLogger)
	documentService := services.NewDocumentService(database, permissionService, blobStore, marker, payloadCodec, zapLogger, collector)
	certificateService := services.NewCertificateService(database, zapLogger, collector)

	router := api.NewRouter(zapLogger, collector, documentService, certificateService, database)
	router.SetupRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}
	go func() {
		if err := router.Run(":" + port); err != nil {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zapLogger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sqlDB, err := database.DB()
	if err == nil {
		sqlDB.Close()
	}
	zapLogger.Info("Server gracefully stopped")
}

// seedDatabase provisions the internal service account the upstream
// gateway acts through.
func seedDatabase(database *gorm.DB, logger *zap.Logger) error {
	email := hashid.CanonicalEmail("operations@cert-verification.local")
	accountID := hashid.Derive(email)

	var count int64
	if err := database.Model(&models.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Database already seeded, skipping")
		return nil
	}

	passwordHash, err := utils.EncryptPassword(os.Getenv("SERVICE_ACCOUNT_PASSWORD"))
	if err != nil {
		return err
	}
	account := &models.Account{
		ID:           accountID,
		Name:         "Operations",
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleInternal,
		Active:       true,
		Verified:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := database.Create(account).Error; err != nil {
		return err
	}

	logger.Info("Created internal service account", zap.String("account_id", accountID))
	return nil
}
