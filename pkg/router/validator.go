package router

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/vango-dev/fsroute/pkg/fsscan"
)

// Entry is one scanned file and the pattern its path compiles to.
type Entry struct {
	// File is the path relative to the scanned directory, "/"-separated.
	File string

	// Pattern is the compiled route pattern.
	Pattern string
}

// Entries scans rootDir and compiles each path with the Router's style
// without producing values or building a tree.
func (r *Router[T]) Entries(rootDir string) ([]Entry, error) {
	var entries []Entry
	for rel, err := range fsscan.Scan(rootDir, r.pattern, scanOptions) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{File: rel, Pattern: r.style(rel)})
	}
	return entries, nil
}

// ValidationError describes one problem in a route table.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Files are the source files involved
	Files []string

	// Pattern is the route pattern (or pattern prefix) involved
	Pattern string

	// Details contains additional error-specific information
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorDuplicateRoute indicates multiple files compile to the same pattern.
	// Example: blog/index.md and blog.md both compile to blog
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorParamConflict indicates different parameter names at the same position.
	// Example: users/[id].md and users/[name]/posts.md
	ErrorParamConflict ValidationErrorType = "PARAM_CONFLICT"

	// ErrorWildcardNotLast indicates a catch-all followed by more segments.
	ErrorWildcardNotLast ValidationErrorType = "WILDCARD_NOT_LAST"

	// ErrorMarkerInSegment indicates a parameter that does not fill its
	// whole segment.
	// Example: user-[id].md
	ErrorMarkerInSegment ValidationErrorType = "MARKER_IN_SEGMENT"

	// ErrorEmptyParam indicates a parameter without a name.
	// Example: [].md
	ErrorEmptyParam ValidationErrorType = "EMPTY_PARAM"
)

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validator reports every problem in a route table at once. Scan stops at
// the first one; Validate is for tooling that wants the full list.
type Validator struct {
	entries []Entry
	errors  []ValidationError
}

// NewValidator creates a new route validator.
func NewValidator(entries []Entry) *Validator {
	return &Validator{entries: entries}
}

// Validate checks all entries. Returns nil if the table is valid, or a
// *MultiValidationError listing every problem in a stable order.
func (v *Validator) Validate() error {
	v.errors = nil

	v.validateSegments()
	v.validateDuplicateRoutes()
	v.validateParamNames()

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

// validateSegments checks each pattern on its own.
func (v *Validator) validateSegments() {
	for _, e := range v.entries {
		segments := strings.Split(e.Pattern, "/")
		for i, seg := range segments {
			switch {
			case seg == ":":
				v.errors = append(v.errors, ValidationError{
					Type:    ErrorEmptyParam,
					Message: fmt.Sprintf("Empty parameter name in %s", e.File),
					Pattern: e.Pattern,
					Files:   []string{e.File},
				})
			case markerInside(seg):
				v.errors = append(v.errors, ValidationError{
					Type:    ErrorMarkerInSegment,
					Message: fmt.Sprintf("Parameter inside a segment in %s", e.File),
					Pattern: e.Pattern,
					Files:   []string{e.File},
					Details: fmt.Sprintf("Segment: %s", seg),
				})
			case strings.HasPrefix(seg, "*") && i != len(segments)-1:
				v.errors = append(v.errors, ValidationError{
					Type:    ErrorWildcardNotLast,
					Message: fmt.Sprintf("Catch-all is not the last segment in %s", e.File),
					Pattern: e.Pattern,
					Files:   []string{e.File},
				})
			}
		}
	}
}

// markerInside reports a ':' or '*' anywhere but the first byte of seg.
func markerInside(seg string) bool {
	return len(seg) > 1 && strings.ContainsAny(seg[1:], ":*")
}

// validateDuplicateRoutes checks for files that compile to the same pattern.
// The build keeps the last one; the others are unreachable.
func (v *Validator) validateDuplicateRoutes() {
	byPattern := make(map[string][]string)
	var order []string
	for _, e := range v.entries {
		p := strings.Trim(e.Pattern, "/")
		if _, seen := byPattern[p]; !seen {
			order = append(order, p)
		}
		byPattern[p] = append(byPattern[p], e.File)
	}

	for _, p := range order {
		files := byPattern[p]
		if len(files) <= 1 {
			continue
		}
		v.errors = append(v.errors, ValidationError{
			Type:    ErrorDuplicateRoute,
			Message: fmt.Sprintf("Duplicate route detected at %s", displayPattern(p)),
			Pattern: p,
			Files:   files,
			Details: fmt.Sprintf("Files: %s", strings.Join(files, ", ")),
		})
	}
}

// validateParamNames checks that every parameter at the same tree position
// has the same name. Positions are keyed by the pattern prefix with
// parameter names erased, which is how the tree shares parameter nodes.
func (v *Validator) validateParamNames() {
	type use struct {
		name string
		file string
	}
	byPosition := make(map[string][]use)
	var order []string

	for _, e := range v.entries {
		var prefix []string
		for _, seg := range strings.Split(strings.Trim(e.Pattern, "/"), "/") {
			var shape string
			switch {
			case strings.HasPrefix(seg, ":"):
				shape = ":"
			case strings.HasPrefix(seg, "*"):
				shape = "*"
			}
			if shape != "" {
				key := strings.Join(append(prefix, shape), "/")
				if _, seen := byPosition[key]; !seen {
					order = append(order, key)
				}
				byPosition[key] = append(byPosition[key], use{name: seg, file: e.File})
				prefix = append(prefix, shape)
				continue
			}
			prefix = append(prefix, seg)
		}
	}

	for _, key := range order {
		uses := byPosition[key]
		names := make([]string, 0, len(uses))
		files := make([]string, 0, len(uses))
		for _, u := range uses {
			if !slices.Contains(names, u.name) {
				names = append(names, u.name)
			}
			files = append(files, u.file)
		}
		if len(names) <= 1 {
			continue
		}
		v.errors = append(v.errors, ValidationError{
			Type:    ErrorParamConflict,
			Message: fmt.Sprintf("Conflicting parameter names at %s", displayPattern(key)),
			Pattern: key,
			Files:   files,
			Details: fmt.Sprintf("Names: %s", strings.Join(names, " vs ")),
		})
	}
}

// SortBySpecificity orders entries the way lookups prefer them: segment by
// segment, static before parameter before catch-all, then alphabetically,
// with shorter patterns first on a common prefix.
func SortBySpecificity(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		as := strings.Split(strings.Trim(a.Pattern, "/"), "/")
		bs := strings.Split(strings.Trim(b.Pattern, "/"), "/")
		if a.Pattern == "" {
			as = nil
		}
		if b.Pattern == "" {
			bs = nil
		}
		for i := 0; i < len(as) && i < len(bs); i++ {
			if c := cmp.Compare(segmentRank(bs[i]), segmentRank(as[i])); c != 0 {
				return c
			}
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(as), len(bs))
	})
}

func segmentRank(seg string) int {
	switch {
	case strings.HasPrefix(seg, "*"):
		return 0
	case strings.HasPrefix(seg, ":"):
		return 1
	default:
		return 2
	}
}

// FormatValidationError formats a validation error for display:
//
//	ERROR: Duplicate route detected at /blog
//	  blog.md → /blog
//	  blog/index.md → /blog
func FormatValidationError(err ValidationError) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ERROR: %s\n", err.Message))

	for _, file := range err.Files {
		sb.WriteString(fmt.Sprintf("  %s → %s\n", file, displayPattern(err.Pattern)))
	}

	if err.Details != "" {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", err.Details))
	}

	return sb.String()
}

func displayPattern(p string) string {
	return "/" + strings.Trim(p, "/")
}
