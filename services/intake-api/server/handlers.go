package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mutter0815/TripIntake/docs"
	"github.com/Mutter0815/TripIntake/internal/intake"
	"github.com/Mutter0815/TripIntake/internal/store"
	"github.com/Mutter0815/TripIntake/pkg/logx"
)

const maxBodyBytes = 64 << 10

type intakeAPI interface {
	Submit(ctx context.Context, p intake.Payload, m intake.FieldMapping) intake.Outcome
}

type readerAPI interface {
	GetSubmission(ctx context.Context, id string) (intake.SubmissionRecord, error)
	ListSubmissions(ctx context.Context, limit, offset int) ([]intake.SubmissionRecord, error)
	Ping(ctx context.Context) error
}

type Handlers struct {
	Intake intakeAPI
	Reader readerAPI
	// AdminToken guards the operator routes; they are not registered when empty.
	AdminToken string
}

func NewHandlers(svc *intake.Service, st *store.Store, adminToken string) *Handlers {
	return &Handlers{Intake: svc, Reader: st, AdminToken: adminToken}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handlers) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.Reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	if err := h.Reader.Ping(ctx); err != nil {
		logx.L().Warnw("readiness_db_error", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Submit returns a handler for one intake surface.
func (h *Handlers) Submit(m intake.FieldMapping) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

		var p intake.Payload
		if err := c.ShouldBindJSON(&p); err != nil || p == nil {
			logx.L().Infow("intake_bad_body", "surface", m.Surface, "rid", c.GetString("request_id"))
			c.JSON(http.StatusBadRequest, intake.Response{Error: "Invalid JSON body"})
			return
		}

		out := h.Intake.Submit(c.Request.Context(), p, m)
		c.JSON(out.Status, out.Body)
	}
}

func (h *Handlers) Preflight(c *gin.Context) {
	hdr := c.Writer.Header()
	if hdr.Get("Access-Control-Allow-Origin") == "" {
		hdr.Set("Access-Control-Allow-Origin", "*")
	}
	hdr.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	hdr.Set("Access-Control-Allow-Headers", "Content-Type")
	hdr.Set("Access-Control-Max-Age", "86400")
	c.Status(http.StatusNoContent)
}

func (h *Handlers) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, intake.Response{Error: "Method not allowed"})
}

func (h *Handlers) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, intake.Response{Error: "not found"})
}

func (h *Handlers) ListSubmissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Reader.ListSubmissions(ctx, limit, offset)
	if err != nil {
		logx.L().Errorw("list_submissions_error", "error", err)
		c.JSON(http.StatusInternalServerError, intake.Response{Error: "list error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submissions": rows})
}

func (h *Handlers) GetSubmission(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Reader.GetSubmission(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, intake.Response{Error: "not found"})
		return
	}
	if err != nil {
		logx.L().Errorw("get_submission_error", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, intake.Response{Error: "get error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submission": rec})
}

func (h *Handlers) DocsHTML(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", docs.IntakeSwaggerHTML)
}

func (h *Handlers) DocsOpenAPI(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", docs.IntakeOpenAPI)
}
