package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	"github.com/couchcryptid/kerala-crop-advisor/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps the size of a prediction request body.
const maxBodyBytes = 1 << 20

// Predictor produces a crop recommendation for a request.
type Predictor interface {
	Predict(ctx context.Context, req domain.PredictionRequest) (domain.Recommendation, error)
}

// StatusReporter describes what the service loaded at startup.
type StatusReporter interface {
	Status() domain.ServiceStatus
}

// Service is everything the API needs from the recommendation layer.
type Service interface {
	Predictor
	StatusReporter
	sharedobs.ReadinessChecker
}

// Server exposes the prediction API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	svc        Service
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/health, /api/predict, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, svc Service, corsOrigins []string, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:     svc,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /api/health", s.handleAPIHealth)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(mux, corsOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type healthResponse struct {
	Status               string   `json:"status"`
	Message              string   `json:"message"`
	ModelLoaded          bool     `json:"model_loaded"`
	FeatureColumns       []string `json:"feature_columns"`
	DistrictScoresLoaded bool     `json:"district_scores_loaded"`
}

// predictFailure is the fallback recommendation plus the reason it was served.
type predictFailure struct {
	domain.Recommendation
	Error string `json:"error"`
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, _ *http.Request) {
	status := s.svc.Status()
	resp := healthResponse{
		Status:               "healthy",
		Message:              "crop advisor API is running",
		ModelLoaded:          status.ModelLoaded,
		FeatureColumns:       status.FeatureColumns,
		DistrictScoresLoaded: status.ScoresLoaded,
	}
	if resp.FeatureColumns == nil {
		resp.FeatureColumns = []string{}
	}
	if status.Degraded() {
		resp.Status = "degraded"
		resp.Message = "crop advisor API is running in degraded mode"
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writePredictFailure(w, r, fmt.Errorf("read request body: %w", err))
		return
	}

	req, err := domain.ParsePredictionRequest(body)
	if err != nil {
		s.writePredictFailure(w, r, err)
		return
	}

	rec, err := s.svc.Predict(r.Context(), req)
	if err != nil {
		s.writePredictFailure(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) writePredictFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("prediction failed",
		"error", err,
		"request_id", requestIDFrom(r.Context()),
	)
	sharedobs.WriteJSON(w, http.StatusInternalServerError, predictFailure{
		Recommendation: domain.FallbackRecommendation(),
		Error:          err.Error(),
	})
}
