// Package router builds HTTP routers from directory trees.
//
// A Router scans a directory with a glob, converts each matching file's
// relative path into a route pattern with a Style, and compiles the
// patterns into a Matcher:
//
//	r, err := router.New(router.Options[router.File]{})
//	m, err := r.Scan("./public")
//	ctx := m.Match(req)
//	if file, ok := ctx.Value(); ok {
//		// serve file.Path
//	}
//
// The basic style maps "blog/[slug].md" to "blog/:slug", "docs/[...rest].md"
// to "docs/*" and "index.md" to the root. Static segments take precedence
// over parameters, and parameters over catch-alls.
//
// A Matcher is immutable. To pick up filesystem changes, scan again and
// replace it.
package router
