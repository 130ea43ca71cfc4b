// Package radix implements the segment tree used to resolve request paths
// against route patterns.
//
// Patterns are "/"-separated segments. A segment is a literal, a parameter
// (":name") or a trailing catch-all ("*" or "*name"):
//
//	b := radix.NewBuilder[string]()
//	b.Insert("", "home")
//	b.Insert("blog/:slug", "post")
//	b.Insert("api/*", "api")
//
//	tree, err := b.Compile()
//	m, ok := tree.LookupPath("/blog/hello")
//	// m.Value == "post", m.Params["slug"] == "hello"
//
// Matching prefers a literal child over a parameter child over a catch-all,
// and backtracks when a more specific branch dead-ends. A catch-all consumes
// at least one segment. Values are opaque: the tree stores and returns them
// and never calls them.
//
// A Builder is single-use. Compile freezes it into a Tree, which is immutable
// and safe for concurrent lookups.
package radix
