// Package serve binds a router.Matcher to net/http.
//
// A Handler matches each request against the current Matcher of its
// Source and hands the result to a Responder. Unmatched requests get the
// not-found handler (http.NotFound by default):
//
//	m, _ := r.Scan("./public")
//	h := serve.New(serve.Static(m), serve.FileResponder)
//	http.ListenAndServe(":8080", h)
//
// The Source is consulted on every request, so a hot-reloading Source can
// swap Matchers without restarting the server.
package serve
