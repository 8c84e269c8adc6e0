package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(app.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Post("/analyze-video", app.AnalyzeVideoHandler)
	r.Get("/analysis-status/{taskID}", app.AnalysisStatusHandler)

	r.Get("/analyses", app.ListAnalysesHandler)
	r.Get("/analyses/{analysisID}", app.GetAnalysisHandler)
	r.Get("/storage/usage", app.StorageUsageHandler)
	r.Get("/history", app.HistoryHandler)

	return r
}

// requestLogger is chi's Logger middleware shape with zerolog output.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
