package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Amir-debuug/cert-verification-sub001/internal/api/handlers"
	"github.com/Amir-debuug/cert-verification-sub001/internal/api/middleware"
	"github.com/Amir-debuug/cert-verification-sub001/internal/services"
	"github.com/Amir-debuug/cert-verification-sub001/pkg/metrics"
)

type Router struct {
	engine             *gin.Engine
	logger             *zap.Logger
	metrics            *metrics.Collector
	documentHandler    *handlers.DocumentHandler
	certificateHandler *handlers.CertificateHandler
	identityMiddleware *middleware.IdentityMiddleware
	requestMiddleware  *middleware.RequestMiddleware
}

func NewRouter(
	logger *zap.Logger,
	collector *metrics.Collector,
	documentService *services.DocumentService,
	certificateService *services.CertificateService,
	database *gorm.DB,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	requestMiddleware := middleware.NewRequestMiddleware(logger)
	identityMiddleware := middleware.NewIdentityMiddleware(database)

	engine.Use(requestMiddleware.ProcessRequest())
	engine.Use(requestMiddleware.RecoverPanic())

	return &Router{
		engine:             engine,
		logger:             logger,
		metrics:            collector,
		documentHandler:    handlers.NewDocumentHandler(documentService, logger),
		certificateHandler: handlers.NewCertificateHandler(certificateService, logger),
		identityMiddleware: identityMiddleware,
		requestMiddleware:  requestMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "cert-verification"})
	})

	r.engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  r.metrics.GetCounters(),
			"latencies": r.metrics.GetLatencies(),
			"sizes":     r.metrics.GetSizes(),
		})
	})

	// Verification is open to anyone holding a document or its claims.
	r.engine.POST("/documents/verify", r.documentHandler.VerifyDocument)

	authorized := r.engine.Group("/")
	authorized.Use(r.identityMiddleware.RequireAccount())
	{
		authorized.POST("/documents", r.documentHandler.CreateDocument)
		authorized.GET("/documents", r.documentHandler.ListDocuments)
		authorized.GET("/documents/:id", r.documentHandler.GetDocument)
		authorized.POST("/documents/:id/revoke", r.documentHandler.RevokeDocument)

		authorized.POST("/certificates/:id/signers", r.certificateHandler.EnrollSigner)
		authorized.POST("/certificates/:id/signers/admin", r.certificateHandler.AddAdminSigner)
		authorized.POST("/certificates/:id/comments", r.certificateHandler.AddComment)
		authorized.GET("/certificates/:id/comments", r.certificateHandler.ListComments)
		authorized.GET("/certificates/:id/history", r.certificateHandler.GetHistory)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	r.logger.Info("Starting HTTP server", zap.String("address", addr))
	return r.engine.Run(addr)
}
