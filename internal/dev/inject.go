package dev

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

// InjectReloadScript wraps next so that full HTML responses carry the hot
// reload client script. Other responses pass through untouched.
func InjectReloadScript(script string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			iw := &injectWriter{ResponseWriter: w}
			next.ServeHTTP(iw, r)

			if !iw.buffering {
				if !iw.wroteHeader {
					iw.WriteHeader(http.StatusOK)
				}
				return
			}

			body := InjectScript(iw.buf.String(), script)
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(iw.status)
			w.Write([]byte(body))
		})
	}
}

// injectWriter buffers 200 text/html responses and streams everything else.
type injectWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
	buffering   bool
}

func (w *injectWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code

	if code == http.StatusOK && strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		w.buffering = true
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *injectWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.buffering {
		return w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}
