package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeCSS   ReloadMessageType = "css"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
	File  string            `json:"file,omitempty"`
}

// ReloadServer manages WebSocket connections for hot reload.
type ReloadServer struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewReloadServer creates a new reload server.
func NewReloadServer(logger *slog.Logger) *ReloadServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadServer{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger.With("component", "reload"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection.
func (r *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	r.mu.Lock()
	r.clients[conn] = true
	r.mu.Unlock()

	// Keep connection alive until client disconnects
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}

	r.mu.Lock()
	delete(r.clients, conn)
	r.mu.Unlock()
	conn.Close()
}

// NotifyReload sends a full page reload message to all clients.
func (r *ReloadServer) NotifyReload() {
	r.broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyCSS sends a CSS-only reload message to all clients.
func (r *ReloadServer) NotifyCSS(file string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeCSS, File: file})
}

// NotifyError sends an error message to all clients.
func (r *ReloadServer) NotifyError(errMsg string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError clears the error overlay on all clients.
func (r *ReloadServer) ClearError() {
	r.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

// broadcast sends a message to all connected clients.
func (r *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	// gorilla/websocket allows one concurrent writer per connection.
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	for _, client := range clients {
		client.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := client.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			r.mu.Lock()
			delete(r.clients, client)
			r.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for client := range r.clients {
		client.Close()
		delete(r.clients, client)
	}
}

// ClientScript returns the browser side of hot reload for a server whose
// reload endpoint is at path.
func ClientScript(path string) string {
	// json.Marshal escapes <, > and &, so the path cannot end the script.
	quoted, _ := json.Marshal(path)
	return "\n<script>\n(function(endpoint) {\n" + clientScript + "})(" + string(quoted) + ");\n</script>\n"
}

// InjectScript inserts script before the closing body tag, or the closing
// html tag, or appends it.
func InjectScript(body, script string) string {
	if idx := strings.LastIndex(body, "</body>"); idx != -1 {
		return body[:idx] + script + body[idx:]
	}
	if idx := strings.LastIndex(body, "</html>"); idx != -1 {
		return body[:idx] + script + body[idx:]
	}
	return body + script
}

// clientScript is the body of a function taking the reload endpoint.
const clientScript = `  var overlayID = 'fsroute-error-overlay';
  var attempt = 0;

  function log(text) { console.log('[fsroute] ' + text); }

  function refreshSheet(link) {
    var u = new URL(link.href);
    u.searchParams.set('v', String(Date.now()));
    link.href = u.href;
  }

  function hideError() {
    var el = document.getElementById(overlayID);
    if (el) el.parentNode.removeChild(el);
  }

  function showError(text) {
    hideError();
    var el = document.createElement('pre');
    el.id = overlayID;
    el.textContent = 'fsroute: route build failed\n\n' + text;
    el.setAttribute('style', [
      'position:fixed', 'inset:0', 'margin:0', 'padding:24px', 'z-index:2147483647',
      'overflow:auto', 'white-space:pre-wrap', 'font:13px/1.5 monospace',
      'background:#1e1e1e', 'color:#f48771'
    ].join(';'));
    document.body.appendChild(el);
  }

  var handlers = {
    reload: function() { log('reload'); location.reload(); },
    css: function(msg) {
      var sheets = Array.prototype.slice.call(document.querySelectorAll('link[rel="stylesheet"]'));
      var hit = msg.file ? sheets.filter(function(l) {
        return new URL(l.href).pathname.slice(-(msg.file.length + 1)) === '/' + msg.file;
      }) : [];
      (hit.length ? hit : sheets).forEach(refreshSheet);
      log('css ' + (msg.file || '*'));
    },
    error: function(msg) { console.error('[fsroute]', msg.error); showError(msg.error); },
    clear: hideError
  };

  function open() {
    var scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var sock = new WebSocket(scheme + location.host + endpoint);
    sock.onopen = function() { attempt = 0; hideError(); log('connected'); };
    sock.onmessage = function(ev) {
      var msg;
      try { msg = JSON.parse(ev.data); } catch (_) { return; }
      var fn = handlers[msg.type];
      if (fn) fn(msg);
    };
    sock.onerror = function() { sock.close(); };
    sock.onclose = function() {
      attempt++;
      setTimeout(open, Math.min(500 * Math.pow(2, attempt), 20000));
    };
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', open);
  } else {
    open();
  }
`
