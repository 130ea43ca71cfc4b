package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	chimw "github.com/go-chi/chi/v5/middleware"
)

var methodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true).Background(lipgloss.Color("12")).Width(8).Align(lipgloss.Center)

// Logging logs one structured line per request with the matched route, the
// status code and the duration.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return logging(logger, false)
}

// LoggingColored is like Logging but renders the method and status with
// terminal colors. Meant for the development server.
func LoggingColored(logger *slog.Logger) func(http.Handler) http.Handler {
	return logging(logger, true)
}

func logging(logger *slog.Logger, colored bool) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			r, info := withRouteInfo(r)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			method := r.Method
			code := strconv.Itoa(status)
			if colored {
				method = methodStyle.Render(method)
				code = statusStyle(status).Render(code)
			}

			logger.LogAttrs(r.Context(), levelForStatus(status), method+" "+r.URL.Path+" "+code,
				slog.String("route", routeLabel(info)),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(now)),
			)
		})
	}
}

func levelForStatus(status int) slog.Level {
	if status >= 500 {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// statusStyle colors 2xx green, 3xx yellow, 4xx orange and 5xx red.
func statusStyle(status int) lipgloss.Style {
	switch {
	case status >= 200 && status < 300:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	case status >= 300 && status < 400:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	case status >= 400 && status < 500:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	case status >= 500:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	}
}
