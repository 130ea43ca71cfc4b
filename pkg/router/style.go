package router

import (
	"strings"

	"github.com/vango-dev/fsroute/internal/errors"
)

// Style converts a file path, relative to the scanned directory and using
// "/" separators, into a route pattern.
type Style func(path string) string

// StyleName names a built-in style.
type StyleName string

// StyleBasic is the default convention implemented by Basic.
const StyleBasic StyleName = "basic"

var namedStyles = map[StyleName]Style{
	StyleBasic: Basic,
}

// StyleChoice selects the style a Router uses: either a built-in
// convention by name or a custom function. The zero value selects
// StyleBasic.
type StyleChoice struct {
	name   StyleName
	custom Style
}

// Named selects a built-in style.
func Named(name StyleName) StyleChoice {
	return StyleChoice{name: name}
}

// Custom selects a user-supplied style function.
func Custom(fn Style) StyleChoice {
	return StyleChoice{custom: fn}
}

// Resolve returns the style function for the choice.
func (c StyleChoice) Resolve() (Style, error) {
	if c.custom != nil {
		return c.custom, nil
	}
	name := c.name
	if name == "" {
		name = StyleBasic
	}
	fn, ok := namedStyles[name]
	if !ok {
		return nil, errors.New("E220").
			WithPath(string(name)).
			WithSuggestion(`Use router.Named(router.StyleBasic) or router.Custom(fn)`)
	}
	return fn, nil
}

// String returns the style name, or "custom".
func (c StyleChoice) String() string {
	switch {
	case c.custom != nil:
		return "custom"
	case c.name == "":
		return string(StyleBasic)
	default:
		return string(c.name)
	}
}

// Basic is the default path style.
//
//	index.ts            → ""
//	about.ts            → about
//	blog/index.ts       → blog
//	blog/[slug].ts      → blog/:slug
//	[org]/[repo]/x.ts   → :org/:repo/x
//	api/[...rest].ts    → api/*
//
// Text outside brackets is copied verbatim, minus any stray bracket. "[name]" becomes ":name". A
// "[..." bracket becomes "*" and ends the pattern; anything after it is
// dropped. The text after the last bracket (or the whole path when there
// are none) loses its extension and a trailing "index" segment.
func Basic(path string) string {
	open := strings.IndexByte(path, '[')
	if open == -1 {
		return trimFileSuffix(stripBrackets(path))
	}

	var b strings.Builder
	b.Grow(len(path) + 1)
	cursor := 0

	for open != -1 {
		b.WriteString(stripBrackets(path[cursor:open]))

		inner := path[open+1:]
		if strings.HasPrefix(inner, "...") {
			b.WriteByte('*')
			return b.String()
		}

		b.WriteByte(':')
		end := strings.IndexByte(inner, ']')
		if end == -1 {
			// Unclosed bracket: the rest of the path names the parameter.
			b.WriteString(stripBrackets(trimExt(inner)))
			return b.String()
		}
		b.WriteString(stripBrackets(inner[:end]))

		cursor = open + 1 + end + 1
		open = strings.IndexByte(path[cursor:], '[')
		if open != -1 {
			open += cursor
		}
	}

	b.WriteString(trimFileSuffix(stripBrackets(path[cursor:])))
	return b.String()
}

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// stripBrackets drops brackets that are not part of a parameter, such as a
// stray "]" or a "[" nested inside a name.
func stripBrackets(s string) string {
	if !strings.ContainsAny(s, "[]") {
		return s
	}
	return bracketStripper.Replace(s)
}

// trimFileSuffix drops the extension, then a trailing "index" that starts
// the segment or follows a "/". The "/" goes with it.
func trimFileSuffix(seg string) string {
	seg = trimExt(seg)

	const index = "index"
	if !strings.HasSuffix(seg, index) {
		return seg
	}
	head := seg[:len(seg)-len(index)]
	switch {
	case head == "":
		return ""
	case head[len(head)-1] == '/':
		return head[:len(head)-1]
	default:
		return seg
	}
}

func trimExt(seg string) string {
	if dot := strings.LastIndexByte(seg, '.'); dot != -1 {
		return seg[:dot]
	}
	return seg
}
