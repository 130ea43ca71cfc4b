// Package dev provides watch mode: hot reload of the route table and of
// the browsers looking at it.
//
// This package implements:
//   - Polling file watcher (Watcher)
//   - Route table rebuilds with atomic swap (Reloader)
//   - WebSocket-based browser refresh (ReloadServer)
//   - Reload script injection into HTML responses
//
// # Usage
//
//	rl, err := dev.NewReloader(r, "./public", dev.ReloaderOptions{})
//	srv := dev.NewServer(rl, dev.ServerOptions{Interval: time.Second})
//
//	mux.Handle("/__fsroute/reload", srv.ReloadHandler())
//	mux.Handle("/*", dev.InjectReloadScript(dev.ClientScript("/__fsroute/reload"))(
//	    serve.New(rl, serve.FileResponder),
//	))
//
//	go srv.Start(ctx)
//
// # Hot Reload Protocol
//
// The browser connects to the reload path via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload"}                // Triggers full page reload
//	{"type": "css", "file": "a.css"}  // Triggers CSS-only reload
//	{"type": "error", "error": "..."} // Shows error overlay
//	{"type": "clear"}                 // Clears error overlay
package dev
