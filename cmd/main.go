package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/flipbook/internal/config"
	"github.com/Vovarama1992/flipbook/internal/delivery"
	"github.com/Vovarama1992/flipbook/internal/domain"
	"github.com/Vovarama1992/flipbook/internal/error_notificator"
	"github.com/Vovarama1992/flipbook/internal/infra"
	"github.com/Vovarama1992/flipbook/internal/pdf"
	"github.com/Vovarama1992/flipbook/internal/ports"
	"github.com/Vovarama1992/flipbook/internal/session"
	"github.com/Vovarama1992/flipbook/internal/viewer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV / DB INIT
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}
	defer db.Close()

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	var store ports.ArtifactStore
	switch cfg.StorageBackend {
	case config.StorageGCS:
		store, err = infra.NewGCSStore(context.Background(), cfg.GCSBucket)
	default:
		store, err = infra.NewS3Store(ctx, cfg.S3)
	}
	if err != nil {
		log.Fatalf("failed to init %s storage: %v", cfg.StorageBackend, err)
	}

	rasterizer := pdf.NewPopplerRasterizer()

	// =========================================================================
	// REPOSITORIES
	// =========================================================================

	var ebookRepo ports.EbookRepo
	switch cfg.MetadataBackend {
	case config.MetadataFirestore:
		fs, err := infra.NewFirestoreClient(context.Background(), cfg.FirestoreProject)
		if err != nil {
			log.Fatalf("failed to init firestore: %v", err)
		}
		defer fs.Close()
		ebookRepo = infra.NewFirestoreEbookRepo(fs, cfg.FirestoreCollection)
	default:
		ebookRepo = infra.NewEbookRepo(db)
	}

	sessionRepo := session.NewInfra(db)

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	errInfra, err := error_notificator.NewInfra(cfg.ErrorBotToken, cfg.AdminChatID, zl)
	if err != nil {
		log.Fatalf("failed to init error notifier: %v", err)
	}
	errService := error_notificator.NewService(errInfra)

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	pdfService := pdf.NewPDFService(rasterizer, pdf.Options{
		Width:    cfg.RenderWidth,
		Timeout:  cfg.RenderTimeout,
		Parallel: cfg.RenderParallel,
	})

	authService := session.NewService(sessionRepo, cfg.AuthSecret)

	ebookService := domain.NewEbookService(
		store,
		ebookRepo,
		pdfService,
		errService,
		zl,
		cfg.UploadParallel,
	)

	viewerService := viewer.NewService(ebookRepo, store, pdfService)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// HANDLERS
	authHandler := delivery.NewAuthHandler(authService)
	ebookHandler := delivery.NewEbookHandler(ebookService, zl, cfg.PublicOrigin, cfg.MaxUploadBytes, cfg.MaxFiles)
	viewerHandler := delivery.NewViewerHandler(viewerService)
	adminHandler := delivery.NewAdminHandler(ebookService, authService)

	// ROUTES
	delivery.RegisterRoutes(
		r,
		authHandler,
		ebookHandler,
		viewerHandler,
		adminHandler,
		authService,
	)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "flipbook",
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
