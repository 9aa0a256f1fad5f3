// Package httpapi exposes the job entry over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mardev60/shortZ-tube/internal/types"
	"github.com/mardev60/shortZ-tube/internal/usecase"
)

type Generator interface {
	GenerateShorts(ctx context.Context, req types.JobRequest) (types.JobResponse, error)
	GenerateFromURL(ctx context.Context, url string, durationSec float64, userID string) (types.JobResponse, error)
}

type Handler struct {
	gen       Generator
	log       zerolog.Logger
	maxUpload int64
}

// NewRouter returns the gin engine. maxUploadBytes <= 0 means no cap.
func NewRouter(gen Generator, log zerolog.Logger, maxUploadBytes int64) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	h := &Handler{gen: gen, log: log, maxUpload: maxUploadBytes}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.GET("/healthz", h.Health)
	r.POST("/generate-shorts", h.GenerateShorts)
	r.POST("/generate-shorts/url", h.GenerateFromURL)
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GenerateShorts takes a multipart form: video (file), duration (seconds)
// and an optional userId.
func (h *Handler) GenerateShorts(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	fh, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video file is required"})
		return
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("duration")), 64)
	if err != nil || duration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a positive number of seconds"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read video"})
		return
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read video"})
		return
	}

	resp, err := h.gen.GenerateShorts(c.Request.Context(), types.JobRequest{
		VideoBytes:               body,
		ContentType:              fh.Header.Get("Content-Type"),
		RequestedDurationSeconds: duration,
		UserID:                   strings.TrimSpace(c.PostForm("userId")),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type urlRequest struct {
	URL      string  `json:"url" binding:"required"`
	Duration float64 `json:"duration" binding:"required,gt=0"`
	UserID   string  `json:"userId"`
}

// GenerateFromURL runs a job on a video that is already reachable over HTTP.
func (h *Handler) GenerateFromURL(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.gen.GenerateFromURL(c.Request.Context(), req.URL, req.Duration, req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	h.log.Error().Err(err).Int("status", status).Str("path", c.FullPath()).Msg("job failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var (
		fe *types.FetchError
		pe *types.ProbeError
		te *types.TranscriptionError
		oe *types.OracleError
		se *types.StorageError
	)
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &pe):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fe), errors.As(err, &te), errors.As(err, &oe), errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
