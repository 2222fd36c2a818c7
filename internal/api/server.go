package api

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/ingest"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/opportunity"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	jobTimeout       = 30 * time.Minute
)

// ItemReader is the read side of the item store.
type ItemReader interface {
	GetUnnotified(ctx context.Context, limit int) ([]models.Opportunity, error)
	GetUnnotifiedUrgent(ctx context.Context, limit int) ([]models.Opportunity, error)
	ListScanLogs(ctx context.Context, limit int) ([]models.ScanLog, error)
}

// Runner runs one store-backed pipeline pass.
type Runner interface {
	Run(ctx context.Context) ([]models.Opportunity, ingest.RunStats, error)
}

type Server struct {
	Store    ItemReader
	Pipeline Runner
	Tracked  config.TrackedPrograms
	Echo     *echo.Echo
	Logger   zerolog.Logger

	adminSecret string

	// Background job tracking
	jobMu      sync.Mutex
	runningJob *backgroundJob
}

type backgroundJob struct {
	ID        string
	Status    string // running, completed, failed
	StartedAt time.Time
	EndedAt   time.Time
	Result    any
	Error     string
}

// OpportunityView is the API shape of an item, with the score on the 0-100 scale.
type OpportunityView struct {
	Title              string     `json:"title"`
	Summary            string     `json:"summary"`
	URL                string     `json:"url"`
	CanonicalURL       string     `json:"canonical_url"`
	Source             string     `json:"source"`
	SourceID           string     `json:"source_id"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	DeadlineAt         *time.Time `json:"deadline_at,omitempty"`
	Tags               []string   `json:"tags"`
	Category           string     `json:"category"`
	Urgent             bool       `json:"urgent"`
	LimitedTime        bool       `json:"limited_time"`
	Score              float64    `json:"score"`
	PrepChecklist      []string   `json:"prep_checklist,omitempty"`
	TrackedProgramID   string     `json:"tracked_program_id,omitempty"`
	TrackedProgramName string     `json:"tracked_program_name,omitempty"`
}

func toView(o models.Opportunity) OpportunityView {
	tags := o.Tags
	if tags == nil {
		tags = []string{}
	}
	return OpportunityView{
		Title:              o.Title,
		Summary:            o.Summary,
		URL:                o.ContentURL,
		CanonicalURL:       o.CanonicalURL,
		Source:             o.Source,
		SourceID:           o.SourceID,
		PublishedAt:        o.PublishedAt,
		DeadlineAt:         o.DeadlineAt,
		Tags:               tags,
		Category:           string(o.Category),
		Urgent:             o.Urgent,
		LimitedTime:        o.LimitedTime,
		Score:              o.Score100(),
		PrepChecklist:      o.PrepChecklist,
		TrackedProgramID:   o.TrackedProgramID,
		TrackedProgramName: o.TrackedProgramName,
	}
}

// NewServer wires routes. An empty adminSecret is replaced by a random
// in-memory one, so admin routes stay closed unless a secret is configured.
func NewServer(store ItemReader, pipeline Runner, tracked config.TrackedPrograms, adminSecret string, logger zerolog.Logger) (*Server, error) {
	secret := strings.TrimSpace(adminSecret)
	if secret == "" {
		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
		}
		secret = base64.RawURLEncoding.EncodeToString(buf)
		logger.Warn().Msg("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := logger.Info()
			if v.Error != nil {
				ev = logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s := &Server{
		Store:       store,
		Pipeline:    pipeline,
		Tracked:     tracked,
		Echo:        e,
		Logger:      logger,
		adminSecret: secret,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/urgent", s.handleListUrgent)
	api.GET("/tracked", s.handleTracked)
	api.GET("/runs", s.handleRuns)

	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.POST("/run", s.handleTriggerRun)
	admin.GET("/job/:id", s.handleJobStatus)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func parseLimit(c echo.Context) int {
	limit := defaultListLimit
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= maxListLimit {
		limit = l
	}
	return limit
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	items, err := s.Store.GetUnnotified(c.Request().Context(), parseLimit(c))
	if err != nil {
		s.Logger.Error().Err(err).Msg("list opportunities")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list opportunities"})
	}
	return c.JSON(http.StatusOK, views(items))
}

func (s *Server) handleListUrgent(c echo.Context) error {
	items, err := s.Store.GetUnnotifiedUrgent(c.Request().Context(), parseLimit(c))
	if err != nil {
		s.Logger.Error().Err(err).Msg("list urgent opportunities")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list opportunities"})
	}
	return c.JSON(http.StatusOK, views(items))
}

func views(items []models.Opportunity) []OpportunityView {
	out := make([]OpportunityView, 0, len(items))
	for _, it := range items {
		out = append(out, toView(it))
	}
	return out
}

func (s *Server) handleTracked(c echo.Context) error {
	programs := s.Tracked.Programs
	if programs == nil {
		programs = []models.TrackedProgram{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"programs": programs,
		"report":   opportunity.StatusReport(programs),
	})
}

func (s *Server) handleRuns(c echo.Context) error {
	logs, err := s.Store.ListScanLogs(c.Request().Context(), parseLimit(c))
	if err != nil {
		s.Logger.Error().Err(err).Msg("list runs")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
	}
	if logs == nil {
		logs = []models.ScanLog{}
	}
	return c.JSON(http.StatusOK, logs)
}

func (s *Server) handleTriggerRun(c echo.Context) error {
	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]any{
			"error":  "A pipeline run is already in progress",
			"job_id": job.ID,
		})
	}

	// Detached from the request so the run outlives the 202 response.
	jobCtx, jobCancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), jobTimeout)

	job := &backgroundJob{
		ID:        uuid.NewString()[:8],
		Status:    "running",
		StartedAt: time.Now(),
	}
	s.runningJob = job
	s.jobMu.Unlock()

	go func() {
		defer jobCancel()
		items, stats, err := s.Pipeline.Run(jobCtx)

		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			s.Logger.Error().Err(err).Str("job_id", job.ID).Msg("run job failed")
			return
		}
		job.Status = "completed"
		job.Result = map[string]any{
			"run_id":        stats.RunID,
			"sources":       stats.Sources,
			"source_errors": stats.SourceErrors,
			"raw":           stats.Raw,
			"deduped":       stats.Deduped,
			"fresh":         len(items),
		}
		s.Logger.Info().Str("job_id", job.ID).Int("fresh", len(items)).Msg("run job completed")
	}()

	return c.JSON(http.StatusAccepted, map[string]any{
		"message": "Pipeline run started",
		"job_id":  job.ID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	resp := map[string]any{
		"id":         job.ID,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	return c.JSON(http.StatusOK, resp)
}

// adminMiddleware accepts the secret in X-Admin-Secret or as a bearer token.
func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader != "" && secretEqual(adminHeader, s.adminSecret) {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if secretEqual(authHeader[7:], s.adminSecret) {
				return next(c)
			}
		}
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func secretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
