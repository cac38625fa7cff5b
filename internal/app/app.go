// Package app 提供应用的初始化、依赖装配与启动入口。
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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wangdaguo68/kinghome/internal/auth"
	"github.com/wangdaguo68/kinghome/internal/category"
	"github.com/wangdaguo68/kinghome/internal/config"
	"github.com/wangdaguo68/kinghome/internal/database"
	"github.com/wangdaguo68/kinghome/internal/handler"
	"github.com/wangdaguo68/kinghome/internal/logger"
	"github.com/wangdaguo68/kinghome/internal/metrics"
	"github.com/wangdaguo68/kinghome/internal/middleware"
	"github.com/wangdaguo68/kinghome/internal/post"
	"github.com/wangdaguo68/kinghome/internal/repository"
	"github.com/wangdaguo68/kinghome/internal/security"
	"golang.org/x/time/rate"
)

// Init 执行应用初始化：
// 先加载 .env（本地开发用，缺失时忽略），再初始化 JSON 结构化日志，
// 最后从环境变量读取配置。
func Init(w io.Writer) (*config.Config, error) {
	// .env 在生产环境不存在，加载失败不是错误
	_ = godotenv.Load()

	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run 是应用的主入口。
// 从命令行参数解析子命令并以对应模式启动。args 传入 os.Args[1:]。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck 是轻量子命令，跳过完整初始化
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
	default:
		return runServe(cfg)
	}
}

// runServe 以 API 服务器模式启动。
// 打开数据库连接，装配全部依赖，启动 HTTP 服务器。
// 收到 SIGINT 或 SIGTERM 时优雅停机。
func runServe(cfg *config.Config) error {
	// 1. 数据库连接
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. 仓库初始化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)

	// 3. 安全服务初始化
	sanitizer := security.NewContentSanitizer()

	// 4. 领域服务初始化
	authService := auth.NewService(userRepo, sessionRepo, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		AdminNickname: cfg.AdminNickname,
		AdminEmail:    cfg.AdminEmail,
	})
	postService := post.NewService(postRepo, categoryRepo, sanitizer)
	categoryService := category.NewService(categoryRepo)

	// 5. 指标初始化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. 速率限制初始化（配置单位是次/分，换算为次/秒）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitLogin > 0 {
		rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
		rateLimiterCfg.LoginBurst = cfg.RateLimitLogin
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. 路由装配
	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		Gatherer:          registry,
		Pinger:            db,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:     cfg.CookieDomain,
			CookieSecure:     cfg.CookieSecure,
			SessionMaxAge:    cfg.SessionMaxAge,
			BootstrapEnabled: cfg.BootstrapEnabled,
		},

		PostService:     postService,
		CategoryService: categoryService,
	}

	router := handler.NewRouter(deps)

	// 8. HTTP 服务器启动
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate 执行数据库迁移，按顺序应用全部未执行的迁移。
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

// runHealthcheck 向本机的 /health 端点发请求并返回结果。
// 供 distroless 容器环境的 Docker healthcheck 使用。
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

// maskDatabaseURL 对数据库 URL 中的认证信息打码。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
