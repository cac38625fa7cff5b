package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wangdaguo68/kinghome/internal/metrics"
	"github.com/wangdaguo68/kinghome/internal/middleware"
	"github.com/wangdaguo68/kinghome/internal/model"
)

// Pinger 是健康检查所需的最小接口。*sql.DB 满足该接口。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps 汇集 NewRouter 所需的依赖。
type RouterDeps struct {
	// 中间件依赖
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	Gatherer          prometheus.Gatherer

	// 健康检查
	Pinger Pinger

	// 认证
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 复盘
	PostService PostServiceInterface

	// 分类
	CategoryService CategoryServiceInterface
}

// NewRouter 返回配置好全部路由和中间件链的 chi.Router。
//
// 中间件执行顺序:
//
//	CORS → Recovery → Logging → Metrics
//
// 写操作路由在会话门卫之后再叠加按用户限流；
// 登录接口单独叠加按 IP 限流。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Metrics)
	postHandler := NewPostHandler(deps.PostService, deps.Metrics)
	categoryHandler := NewCategoryHandler(deps.CategoryService)

	// --- 运维端点 ---

	r.Get("/health", healthHandler(deps.Pinger))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- 无需会话的路由 ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/init", authHandler.InitAdmin)
		r.Get("/init", authHandler.InitStatus)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
	})

	r.Get("/posts", postHandler.ListPosts)
	r.Get("/posts/{id}", postHandler.GetPost)

	r.Get("/categories", categoryHandler.ListCategories)
	r.Post("/categories", categoryHandler.CreateCategory)

	// --- 会话门卫之内的路由 ---
	// 中间件栈: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)

		r.Post("/posts", postHandler.CreatePost)
		r.Put("/posts/{id}", postHandler.UpdatePost)
		r.Delete("/posts/{id}", postHandler.DeletePost)
		r.Post("/posts/batch-delete", postHandler.BatchDeletePosts)
		r.Get("/posts/latest-in-category", postHandler.LatestInCategory)
	})

	return r
}

// healthHandler 返回健康检查处理器：探测数据库连通性。
func healthHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
