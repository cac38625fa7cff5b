// Package middleware 提供 HTTP 中间件。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wangdaguo68/kinghome/internal/model"
)

// SessionCookieName 是会话 Cookie 的名称。
const SessionCookieName = "session_id"

// contextKey 是向 context 写值用的类型安全键。
type contextKey string

// userIDContextKey 是请求上下文中用户 ID 的键。
var userIDContextKey = contextKey("user_id")

// SessionFinder 是会话查找所需的最小接口。
// 定义为 repository.SessionRepository 的子集。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware 返回会话门卫中间件：
// 从 HTTP Only Cookie 读取会话 ID 并校验有效性，
// 把已认证的用户 ID 注入请求上下文。
// 匿名请求在仓库层被调用之前就以 401 拒绝。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext 从请求上下文取出用户 ID。
// 只在通过了会话中间件的请求里有效。
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	if !ok || userID == 0 {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID 向上下文注入用户 ID。测试用。
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
