package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/jbbc/jbbc-api/internal/adminuser"
	"github.com/jbbc/jbbc-api/internal/auth"
	"github.com/jbbc/jbbc-api/internal/config"
	"github.com/jbbc/jbbc-api/internal/contact"
	"github.com/jbbc/jbbc-api/internal/content"
	"github.com/jbbc/jbbc-api/internal/database"
	"github.com/jbbc/jbbc-api/internal/fanout"
	"github.com/jbbc/jbbc-api/internal/handler"
	"github.com/jbbc/jbbc-api/internal/logger"
	"github.com/jbbc/jbbc-api/internal/mailer"
	"github.com/jbbc/jbbc-api/internal/metrics"
	"github.com/jbbc/jbbc-api/internal/middleware"
	"github.com/jbbc/jbbc-api/internal/repository"
	"github.com/jbbc/jbbc-api/internal/security"
	"github.com/jbbc/jbbc-api/internal/sheets"
	"github.com/jbbc/jbbc-api/internal/subscriber"
	"github.com/jbbc/jbbc-api/internal/upload"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeedAdmin:
		return runSeedAdmin(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーと
// 配信ワーカーを起動する。SIGINTまたはSIGTERMシグナルを受信すると
// グレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	adminRepo := repository.NewPostgresAdminUserRepo(db)
	subRepo := repository.NewPostgresSubscriberRepo(db)
	announcementRepo := repository.NewPostgresAnnouncementRepo(db)
	newsletterRepo := repository.NewPostgresNewsletterRepo(db)
	seminarRepo := repository.NewPostgresSeminarRepo(db)
	blogRepo := repository.NewPostgresBlogPostRepo(db)
	notificationRepo := repository.NewPostgresNotificationRepo(db)
	imageRepo := repository.NewPostgresUploadedImageRepo(db)
	contactRepo := repository.NewPostgresContactRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. 認証
	authenticator := auth.NewAuthenticator(
		adminRepo, cfg.SessionSecret,
		time.Duration(cfg.SessionMaxAge)*time.Second,
	)

	// 5. メトリクスと配信パイプライン
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	renderer, err := mailer.NewRenderer(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to build mail renderer: %w", err)
	}
	provider := mailer.NewBrevoProvider(cfg.BrevoAPIKey, cfg.MailFromAddr, cfg.MailFromName)

	runner := fanout.NewRunner(
		subRepo, notificationRepo, provider, renderer, collector,
		cfg.FanoutPageSize, cfg.MailBatchSize,
	)
	queue := fanout.NewQueue(runner, cfg.FanoutQueueSize)
	queue.Start(ctx)
	defer queue.Stop()

	// 6. スプレッドシート転送（未設定の場合は無効）
	var contactForwarder contact.Forwarder
	var registrationForwarder content.RegistrationForwarder
	if cfg.SheetsSpreadsheetID != "" {
		sheetsSvc, err := sheetsapi.NewService(ctx)
		if err != nil {
			return fmt.Errorf("failed to build sheets client: %w", err)
		}
		forwarder := sheets.NewForwarder(
			sheets.NewAPIAppender(sheetsSvc), cfg.SheetsSpreadsheetID, slog.Default(),
		)
		contactForwarder = forwarder
		registrationForwarder = forwarder
		slog.Info("sheets forwarding enabled")
	} else {
		slog.Info("sheets forwarding disabled (SHEETS_SPREADSHEET_ID is not set)")
	}

	// 7. ファイルアップロード（GCS）
	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to build gcs client: %w", err)
	}
	defer gcsClient.Close()

	uploadService := upload.NewService(
		upload.NewGCSStore(gcsClient, cfg.GCSBucket),
		imageRepo, cfg.CDNBaseURL, cfg.UploadMaxSize,
	)
	importer := upload.NewImporter(ssrfGuard, uploadService, cfg.ImportTimeout, cfg.UploadMaxSize)

	// 8. ドメインサービスの初期化
	announcementService := content.NewAnnouncementService(announcementRepo, notificationRepo, sanitizer, queue)
	newsletterService := content.NewNewsletterService(newsletterRepo, notificationRepo, sanitizer, queue)
	seminarService := content.NewSeminarService(seminarRepo, notificationRepo, sanitizer, queue, registrationForwarder)
	blogService := content.NewBlogService(blogRepo, sanitizer, collector)
	subscriberService := subscriber.NewService(subRepo, collector)
	contactService := contact.NewService(contactRepo, contactForwarder)
	adminUserService := adminuser.NewService(adminRepo)

	// 9. ルーターの構築
	rlCfg := middleware.DefaultRateLimiterConfig()
	// configのレート値はreq/min単位なのでreq/secに変換する
	rlCfg.AdminRate = rate.Limit(float64(cfg.RateLimitAdmin) / 60.0)
	rlCfg.AdminBurst = cfg.RateLimitAdmin
	rlCfg.PublicRate = rate.Limit(float64(cfg.RateLimitPublic) / 60.0)
	rlCfg.PublicBurst = cfg.RateLimitPublic
	rateLimiter := middleware.NewRateLimiter(rlCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:        slog.Default(),
		Collector:     collector,
		Gatherer:      reg,
		RateLimiter:   rateLimiter,
		TokenVerifier: authenticator,

		Auth:          handler.NewAuthHandler(authenticator, cfg.CookieSecure, cfg.CookieDomain),
		Announcements: handler.NewAnnouncementHandler(announcementService),
		Newsletters:   handler.NewNewsletterHandler(newsletterService),
		Seminars:      handler.NewSeminarHandler(seminarService),
		Blog:          handler.NewBlogHandler(blogService),
		Subscribers:   handler.NewSubscriberHandler(subscriberService),
		Contact:       handler.NewContactHandler(contactService),
		Uploads:       handler.NewUploadHandler(uploadService, importer, cfg.UploadMaxSize),
		Fanout:        handler.NewFanoutHandler(queue),
		AdminUsers:    handler.NewAdminUserHandler(adminUserService),
		Feed:          handler.NewFeedHandler(announcementService, blogService, cfg.BaseURL, cfg.MailFromName),

		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
	})

	// 10. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeedAdmin は初期管理者アカウントを作成する。
// ADMIN_EMAIL / ADMIN_PASSWORD / ADMIN_NAME 環境変数から読み込む。
// 同一メールアドレスの管理者が既に存在する場合は何もせず正常終了する。
func runSeedAdmin(cfg *config.Config) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if email == "" || password == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if name == "" {
		name = "管理者"
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx := context.Background()
	adminRepo := repository.NewPostgresAdminUserRepo(db)

	existing, err := adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if existing != nil {
		slog.Info("admin already exists, skipping", slog.String("email", email))
		return nil
	}

	service := adminuser.NewService(adminRepo)
	admin, err := service.Create(ctx, &adminuser.CreateInput{
		Email:    email,
		Name:     name,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("initial admin created",
		slog.String("id", admin.ID),
		slog.String("email", admin.Email),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
