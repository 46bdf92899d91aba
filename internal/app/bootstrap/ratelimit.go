package bootstrap

import (
	"github.com/redis/go-redis/v9"

	appconfig "github.com/stelliformdigital/stelliform-web/internal/config"
	httpmiddleware "github.com/stelliformdigital/stelliform-web/internal/http/middleware"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

// BuildFormLimiter picks the limiter for the public form endpoints. It
// returns nil when RATE_LIMIT_BACKEND=off.
func BuildFormLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) httpmiddleware.Limiter {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.RateLimitBackend {
	case "off", "none", "disabled":
		logger.Info("form rate limiting disabled")
		return nil
	case "redis":
		if redisClient != nil {
			logger.Info("form rate limiting via redis", "limit", cfg.RateLimitBurst, "window", cfg.RateLimitWindow)
			return httpmiddleware.NewRedisLimiter(redisClient, cfg.RateLimitBurst, cfg.RateLimitWindow)
		}
		logger.Warn("RATE_LIMIT_BACKEND=redis but redis unavailable; falling back to in-memory limiter")
	}
	return httpmiddleware.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}
