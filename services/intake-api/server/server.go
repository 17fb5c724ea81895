package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mutter0815/TripIntake/internal/intake"
	"github.com/Mutter0815/TripIntake/pkg/metrics"
)

type Options struct {
	CORSOrigins []string
	// Limiter throttles the public intake routes when set.
	Limiter limiter
}

func NewHTTPServer(addr string, h *Handlers, opts Options) *http.Server {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), Observability(), CORS(opts.CORSOrigins))
	r.NoMethod(h.MethodNotAllowed)
	r.NoRoute(h.NotFound)

	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/docs", h.DocsHTML)
	r.GET("/docs/intake-api/openapi.yaml", h.DocsOpenAPI)

	submit := func(m intake.FieldMapping) []gin.HandlerFunc {
		if opts.Limiter == nil {
			return []gin.HandlerFunc{h.Submit(m)}
		}
		return []gin.HandlerFunc{RateLimit(opts.Limiter), h.Submit(m)}
	}

	public := r.Group("/api")
	public.POST("/intake", submit(intake.PlannerForm)...)
	public.POST("/contact", submit(intake.ContactForm)...)
	public.OPTIONS("/intake", h.Preflight)
	public.OPTIONS("/contact", h.Preflight)

	if h.AdminToken != "" && h.Reader != nil {
		ops := r.Group("/api/submissions", AdminAuth(h.AdminToken))
		ops.GET("", h.ListSubmissions)
		ops.GET("/:id", h.GetSubmission)
	}

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
