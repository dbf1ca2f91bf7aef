package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/pointpattern/internal/config"
	"github.com/sells-group/pointpattern/internal/featureio"
	"github.com/sells-group/pointpattern/internal/geometry"
	"github.com/sells-group/pointpattern/internal/nnindex"
	"github.com/sells-group/pointpattern/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(&apiServer{store: st, analysis: cfg.Analysis, server: cfg.Server}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer holds the dependencies of the HTTP handlers.
type apiServer struct {
	store    store.Store
	analysis config.AnalysisConfig
	server   config.ServerConfig
}

func newRouter(s *apiServer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		if s.server.RateLimit > 0 {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.server.RateLimit), s.server.RateBurst)))
		}
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

// analyzeRequest is the body of POST /v1/analyze. Points is a GeoJSON
// FeatureCollection, Feature or geometry; StudyArea is a polygon Feature or
// geometry.
type analyzeRequest struct {
	Points    json.RawMessage `json:"points"`
	StudyArea json.RawMessage `json:"studyArea,omitempty"`
	analysisParams
}

type analyzeResponse struct {
	RunID   string           `json:"runId,omitempty"`
	Pattern nnindex.Pattern  `json:"pattern"`
	Result  *nnindex.Result  `json:"result"`
	Feature *geojson.Feature `json:"feature"`
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.server.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.server.MaxBodyBytes)
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Points) == 0 {
		writeError(w, http.StatusBadRequest, "points is required")
		return
	}

	fc, err := featureio.DecodeGeoJSON(req.Points)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid points: "+err.Error())
		return
	}

	var studyArea *geojson.Feature
	if len(req.StudyArea) > 0 && string(req.StudyArea) != "null" {
		studyArea, err = decodeStudyArea(req.StudyArea)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid studyArea: "+err.Error())
			return
		}
	}

	out, err := runAnalysis(r.Context(), s.store, "api", fc, studyArea, req.analysisParams, s.analysis)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		RunID:   out.RunID,
		Pattern: out.Result.Pattern(),
		Result:  out.Result,
		Feature: out.Feature,
	})
}

func decodeStudyArea(raw json.RawMessage) (*geojson.Feature, error) {
	fc, err := featureio.DecodeGeoJSON(raw)
	if err != nil {
		return nil, err
	}
	if len(fc.Features) != 1 {
		return nil, eris.Errorf("expected one feature, got %d", len(fc.Features))
	}
	f := fc.Features[0]
	switch f.Geometry.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return f, nil
	default:
		return nil, eris.Errorf("study area must be a Polygon or MultiPolygon, got %T", f.Geometry)
	}
}

func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		Status: store.RunStatus(q.Get("status")),
		Source: q.Get("source"),
	}
	var err error
	if filter.Limit, err = queryInt(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *apiServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("get run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// analysisStatus maps an analysis error to an HTTP status. Input problems
// the caller can fix are 422; everything else is a server fault.
func analysisStatus(err error) int {
	switch {
	case errors.Is(err, nnindex.ErrInvalidInput),
		errors.Is(err, nnindex.ErrDegenerateStudyArea),
		errors.Is(err, nnindex.ErrMultiPartStudyArea),
		errors.Is(err, geometry.ErrInvalidBBox),
		errors.Is(err, geometry.ErrEmptyGeometry),
		errors.Is(err, geometry.ErrUnsupportedGeometry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeAnalysisError(w http.ResponseWriter, err error) {
	status := analysisStatus(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("analysis failed", zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// rateLimit rejects requests beyond the limiter's budget with 429.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
