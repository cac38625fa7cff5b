// Package handler 提供 HTTP 处理器。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wangdaguo68/kinghome/internal/metrics"
	"github.com/wangdaguo68/kinghome/internal/middleware"
	"github.com/wangdaguo68/kinghome/internal/model"
)

// AuthServiceInterface 是认证处理器所需的服务接口。
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*model.Session, *model.User, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*model.User, error)
	BootstrapAdmin(ctx context.Context) (bool, error)
	AdminExists(ctx context.Context) (*model.User, error)
}

// AuthHandlerConfig 是认证处理器的配置。
type AuthHandlerConfig struct {
	CookieDomain     string
	CookieSecure     bool
	SessionMaxAge    int // 会话 Cookie 有效期（秒）
	BootstrapEnabled bool
}

// AuthHandler 处理认证相关的 HTTP 请求。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
	metrics metrics.MetricsCollector
}

// NewAuthHandler 生成 AuthHandler。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
		metrics: collector,
	}
}

// loginRequest 是登录请求的 body。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse 是用户信息的 API 响应。
type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// Login 处理登录：校验凭据、签发会话并写入 HTTP Only Cookie。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("请求格式非法"))
		return
	}

	session, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.RecordLoginFailure()
		handleServiceError(w, err)
		return
	}
	h.metrics.RecordLoginSuccess()

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSONResponse(w, http.StatusOK, toUserResponse(user))
}

// Logout 销毁会话并清除 Cookie。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			// 登出失败也要清除 Cookie
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSONResponse(w, http.StatusOK, nil)
}

// Me 返回当前登录用户信息。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(user))
}

// InitAdmin 幂等地建立或重置引导账号。仅在开关开启时可用。
// POST /auth/init
func (h *AuthHandler) InitAdmin(w http.ResponseWriter, r *http.Request) {
	if !h.config.BootstrapEnabled {
		writeErrorResponse(w, http.StatusForbidden, &model.APIError{
			Code:    "BOOTSTRAP_DISABLED",
			Message: "初始化接口未启用",
		})
		return
	}

	created, err := h.service.BootstrapAdmin(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	statusCode := http.StatusOK
	message := "管理员密码已重置"
	if created {
		statusCode = http.StatusCreated
		message = "管理员账号已创建"
	}

	writeJSONResponse(w, statusCode, map[string]any{
		"created": created,
		"message": message,
	})
}

// InitStatus 返回引导账号是否已存在。
// GET /auth/init
func (h *AuthHandler) InitStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.AdminExists(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	data := map[string]any{"exists": user != nil}
	if user != nil {
		data["user"] = toUserResponse(user)
	}

	writeJSONResponse(w, http.StatusOK, data)
}

// toUserResponse 把 model.User 转换为 API 响应。口令字段绝不出现在响应里。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Nickname: user.Nickname,
		Email:    user.Email,
	}
}
