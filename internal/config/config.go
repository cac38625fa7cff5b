// Package config 提供应用配置的加载。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 保存应用全部配置。
// 启动时从环境变量读取一次，之后作为不可变值使用。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge int // 会话有效期（秒）

	// Bootstrap（仅开发环境）
	BootstrapEnabled bool
	AdminUsername    string
	AdminPassword    string
	AdminNickname    string
	AdminEmail       string

	// Rate Limit
	RateLimitGeneral int // 认证后 API 的速率（次/分/用户）
	RateLimitLogin   int // 登录接口的速率（次/分/IP）

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load 从环境变量加载 Config。
// 必须变量缺失时返回错误，并一次性列出全部缺失项。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// 可选变量与默认值
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", int(30*24*time.Hour/time.Second)) // 30天
	cfg.BootstrapEnabled = getEnvBool("BOOTSTRAP_ENABLED", true)
	cfg.AdminUsername = getEnvString("ADMIN_USERNAME", "admin")
	cfg.AdminPassword = getEnvString("ADMIN_PASSWORD", "admin")
	cfg.AdminNickname = getEnvString("ADMIN_NICKNAME", "管理员")
	cfg.AdminEmail = getEnvString("ADMIN_EMAIL", "admin@example.com")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
