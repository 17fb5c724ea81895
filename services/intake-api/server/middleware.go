package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mutter0815/TripIntake/internal/intake"
	"github.com/Mutter0815/TripIntake/pkg/logx"
	"github.com/Mutter0815/TripIntake/pkg/metrics"
)

func Observability() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.Request.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", rid)

		c.Set("request_id", rid)
		c.Next()

		lat := time.Since(start).Seconds()
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.APIRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(c.Request.Method, path).Observe(lat)

		logx.L().Infow("http_access",
			"rid", rid,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", lat,
			"client_ip", c.ClientIP(),
		)
	}
}

func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        24 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

type limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects clients over the limit. Limiter errors let the request through.
func RateLimit(l limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logx.L().Warnw("rate_limit_error", "client_ip", c.ClientIP(), "error", err)
			c.Next()
			return
		}
		if !ok {
			metrics.RateLimitedTotal.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, intake.Response{Error: "Too many requests"})
			return
		}
		c.Next()
	}
}

func AdminAuth(token string) gin.HandlerFunc {
	want := []byte("Bearer " + token)
	return func(c *gin.Context) {
		got := []byte(strings.TrimSpace(c.GetHeader("Authorization")))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, intake.Response{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}
