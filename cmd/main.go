package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	httpctx "github.com/sidstack/sidmemo-server/internal/api/http/context"
	"github.com/sidstack/sidmemo-server/internal/api/http/router"
	httpServer "github.com/sidstack/sidmemo-server/internal/api/http/server"
	"github.com/sidstack/sidmemo-server/internal/config"
	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/memory"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/repository/postgres"
	"github.com/sidstack/sidmemo-server/internal/security"
	"github.com/sidstack/sidmemo-server/internal/server"
	"github.com/sidstack/sidmemo-server/internal/service"
	storage "github.com/sidstack/sidmemo-server/internal/storage/minio"
	"github.com/sidstack/sidmemo-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogJSON)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	apiKeyRepo := postgres.NewApiKeyRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	projectRepo := postgres.NewProjectRepository(db)
	memberRepo := postgres.NewMemberRepository(db)
	webhookRepo := postgres.NewWebhookRepository(db)
	deliveryRepo := postgres.NewDeliveryRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	memoryRepo := postgres.NewMemoryRepository(db)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	engine := memory.NewClient(cfg.Memory.BaseURL, cfg.Memory.APIKey, 30*time.Second)

	tokenManager := token.NewJWT(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute)
	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo,
		time.Duration(cfg.JWT.RefreshTTLDays)*24*time.Hour, logger)
	authService := service.NewAuth(userRepo, apiKeyRepo, tokenService, security.NewBcryptHasher(0), logger)

	auditService := service.NewAudit(auditRepo, logger)
	accessService := service.NewAccess(projectRepo, memberRepo, logger)
	projectService := service.NewProjects(projectRepo, memberRepo, userRepo, engine, auditService, service.EngineDefaults{
		LLMGatewayURL: cfg.Memory.LLMGatewayURL,
		LLMGatewayKey: cfg.Memory.LLMGatewayKey,
		LLMModel:      cfg.Memory.DefaultLLM,
		EmbedModel:    cfg.Memory.DefaultEmbed,
	}, logger)
	webhookService := service.NewWebhooks(webhookRepo, deliveryRepo,
		time.Duration(cfg.Webhook.TimeoutSeconds)*time.Second, logger)
	memoryService := service.NewMemories(engine, memoryRepo, storageClient, webhookService, auditService, logger)
	adminService := service.NewAdmin(userRepo, projectRepo, memoryRepo, auditService, logger)
	analyticsService := service.NewAnalytics(eventRepo, logger)

	ctxMgr := httpctx.NewManager()

	r := router.New(authService, accessService, projectService, memoryService, webhookService,
		adminService, analyticsService, auditService, db, engine, ctxMgr, logger)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runRetrySweeper(ctx, webhookService, time.Duration(cfg.Webhook.SweepIntervalSeconds)*time.Second, logger)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// runRetrySweeper periodically retries failed webhook deliveries until the
// context is canceled.
func runRetrySweeper(ctx context.Context, webhooks *service.Webhooks, interval time.Duration, logger *logger.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("starting webhook retry sweeper", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("webhook retry sweeper stopped")
			return
		case <-ticker.C:
			if delivered := webhooks.RetrySweep(ctx); delivered > 0 {
				logger.Info("webhook retry sweep delivered payloads", "delivered", delivered)
			}
		}
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
