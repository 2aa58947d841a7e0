package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/vehicle.count/internal/counting"
	"github.com/banshee-data/vehicle.count/internal/httputil"
	"github.com/banshee-data/vehicle.count/internal/monitoring"
	"github.com/banshee-data/vehicle.count/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes the counting monitor over HTTP. Query handlers only read
// engine snapshots and monitor totals; the start/stop/reset handlers flip
// monitor state that the tick loop observes at tick boundaries.
type Server struct {
	monitor *counting.Monitor
}

// NewServer creates an API server over the given monitor.
func NewServer(monitor *counting.Monitor) *Server {
	return &Server{monitor: monitor}
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/vehicle-detection", s.showVehicleCount)
	mux.HandleFunc("/vehicle-stats", s.showVehicleStats)
	mux.HandleFunc("/detected-objects", s.listDetectedObjects)
	mux.HandleFunc("/start-detection", s.startDetection)
	mux.HandleFunc("/stop-detection", s.stopDetection)
	mux.HandleFunc("/reset-count", s.resetCount)
	mux.HandleFunc("/classes", s.showClasses)
	mux.HandleFunc("/health", s.healthCheck)
	mux.HandleFunc("/charts", s.showCharts)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) classNames() []string {
	return s.monitor.Engine().Config().Classes
}

func (s *Server) showVehicleCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"vehicle_count": s.monitor.Total(),
		"classes":       s.classNames(),
	})
}

func (s *Server) showVehicleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	engine := s.monitor.Engine()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"current_count":  s.monitor.Total(),
		"hourly_history": s.monitor.Hourly(),
		"is_running":     s.monitor.Running(),
		"last_reset":     s.monitor.LastReset().Format(time.RFC3339),
		"class_info":     s.classInfo(),
		"stats_by_class": engine.CountByClass(),
		"active_objects": engine.ActiveCount(),
	})
}

func (s *Server) listDetectedObjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	engine := s.monitor.Engine()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"objects":        engine.SnapshotAll(),
		"total_objects":  engine.TrackCount(),
		"active_objects": engine.ActiveCount(),
	})
}

func (s *Server) startDetection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	started := s.monitor.Start()
	message := "Detection started"
	if !started {
		message = "Detection already running"
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"success": started,
		"message": message,
		"classes": s.classNames(),
	})
}

func (s *Server) stopDetection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.monitor.Stop()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"success": true,
		"message": "Detection stopped",
	})
}

func (s *Server) resetCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.monitor.Reset()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"success":   true,
		"message":   "Count reset",
		"new_count": s.monitor.Total(),
	})
}

func (s *Server) classInfo() map[string]interface{} {
	names := s.classNames()
	return map[string]interface{}{
		"total_classes": len(names),
		"class_names":   names,
	}
}

func (s *Server) showClasses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.classInfo())
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	engine := s.monitor.Engine()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":                "healthy",
		"version":               version.Version,
		"detection_running":     s.monitor.Running(),
		"timestamp":             time.Now().Format(time.RFC3339),
		"classes_loaded":        len(s.classNames()),
		"available_classes":     s.classNames(),
		"total_detected":        s.monitor.Total(),
		"active_objects":        engine.ActiveCount(),
		"total_tracked_objects": engine.TrackCount(),
	})
}
