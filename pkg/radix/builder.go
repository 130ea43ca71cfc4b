package radix

import (
	"fmt"
	"strings"
)

// Builder accumulates routes before they are compiled into a Tree.
type Builder[T any] struct {
	root     *node[T]
	routes   []*Route[T]
	compiled bool
}

// NewBuilder creates an empty builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{root: &node[T]{}}
}

// Insert adds a route. Inserting a pattern that is already present replaces
// its value (last insert wins).
func (b *Builder[T]) Insert(pattern string, value T) error {
	if b.compiled {
		return ErrCompiled
	}

	segments := Split(pattern)
	current := b.root

	for i, seg := range segments {
		var err error
		switch seg[0] {
		case '*':
			if i != len(segments)-1 {
				return fmt.Errorf("radix: insert %q: %w", pattern, ErrWildcardNotLast)
			}
			name := seg[1:]
			if strings.ContainsAny(name, ":*") {
				return fmt.Errorf("radix: insert %q: %w", pattern, ErrMarkerInSegment)
			}
			if name == "" {
				name = CatchAllKey
			}
			current, err = current.addCatchAllChild(name)
		case ':':
			if len(seg) == 1 {
				return fmt.Errorf("radix: insert %q: %w", pattern, ErrEmptyParam)
			}
			if strings.ContainsAny(seg[1:], ":*") {
				return fmt.Errorf("radix: insert %q: %w", pattern, ErrMarkerInSegment)
			}
			current, err = current.addParamChild(seg[1:])
		default:
			// A marker only has meaning at the start of a segment.
			if strings.ContainsAny(seg, ":*") {
				return fmt.Errorf("radix: insert %q: %w", pattern, ErrMarkerInSegment)
			}
			current = current.addChild(seg)
		}
		if err != nil {
			return fmt.Errorf("radix: insert %q: %w", pattern, err)
		}
	}

	normalized := Normalize(pattern)
	if current.route != nil {
		current.route.Value = value
		return nil
	}
	current.route = &Route[T]{Pattern: normalized, Value: value}
	b.routes = append(b.routes, current.route)
	return nil
}

// Contains reports whether a pattern has already been inserted.
func (b *Builder[T]) Contains(pattern string) bool {
	normalized := Normalize(pattern)
	for _, r := range b.routes {
		if r.Pattern == normalized {
			return true
		}
	}
	return false
}

// Len returns the number of distinct patterns inserted.
func (b *Builder[T]) Len() int {
	return len(b.routes)
}

// Routes returns a copy of the inserted routes in insertion order.
func (b *Builder[T]) Routes() []Route[T] {
	out := make([]Route[T], len(b.routes))
	for i, r := range b.routes {
		out[i] = *r
	}
	return out
}

// Compile freezes the builder into an immutable Tree. The builder cannot
// be used afterwards.
func (b *Builder[T]) Compile() (*Tree[T], error) {
	if b.compiled {
		return nil, ErrCompiled
	}
	b.compiled = true
	b.root.compile()
	return &Tree[T]{root: b.root, routes: b.Routes()}, nil
}

// Tree is a compiled, read-only route tree.
type Tree[T any] struct {
	root   *node[T]
	routes []Route[T]
}

// Lookup resolves already-split path segments.
func (t *Tree[T]) Lookup(segments []string) (Match[T], bool) {
	var params Params
	found := t.root.match(segments, &params)
	if found == nil {
		return Match[T]{}, false
	}
	return Match[T]{
		Value:   found.route.Value,
		Pattern: found.route.Pattern,
		Params:  params,
	}, true
}

// LookupPath splits path and resolves it.
func (t *Tree[T]) LookupPath(path string) (Match[T], bool) {
	return t.Lookup(Split(path))
}

// Len returns the number of routes in the tree.
func (t *Tree[T]) Len() int {
	return len(t.routes)
}

// Routes returns the routes in insertion order.
func (t *Tree[T]) Routes() []Route[T] {
	out := make([]Route[T], len(t.routes))
	copy(out, t.routes)
	return out
}
