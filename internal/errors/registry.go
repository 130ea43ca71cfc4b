package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid fsroute.json",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://fsroute.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Missing required config field",
		Detail:   "A required field is empty in fsroute.json.",
		DocURL:   "https://fsroute.dev/docs/errors/E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The configured port is outside the valid range.",
		DocURL:   "https://fsroute.dev/docs/errors/E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "A duration field could not be parsed. Use Go duration syntax such as \"500ms\" or \"2s\".",
		DocURL:   "https://fsroute.dev/docs/errors/E123",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Not an fsroute project",
		Detail:   "No fsroute.json was found.",
		DocURL:   "https://fsroute.dev/docs/errors/E141",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Directory not found",
		Detail:   "The directory to serve does not exist or is not a directory.",
		DocURL:   "https://fsroute.dev/docs/errors/E142",
	},

	// ============================================
	// Scan Errors (E200-E209)
	// ============================================

	"E201": {
		Category: CategoryScan,
		Message:  "Broken symbolic link",
		Detail:   "A symbolic link in the scanned tree points to a file that does not exist.",
		DocURL:   "https://fsroute.dev/docs/errors/E201",
	},
	"E202": {
		Category: CategoryScan,
		Message:  "Unreadable directory entry",
		Detail:   "An entry in the scanned tree could not be read.",
		DocURL:   "https://fsroute.dev/docs/errors/E202",
	},
	"E203": {
		Category: CategoryScan,
		Message:  "Invalid glob pattern",
		Detail:   "The file pattern is not a valid glob. Supported syntax: *, **, ?, [class], {alt,alt}.",
		DocURL:   "https://fsroute.dev/docs/errors/E203",
	},

	// ============================================
	// Compile Errors (E210-E219)
	// ============================================

	"E210": {
		Category: CategoryCompile,
		Message:  "Wildcard is not the last segment",
		Detail:   "A catch-all segment (*) must be the final segment of a route pattern.",
		DocURL:   "https://fsroute.dev/docs/errors/E210",
	},
	"E211": {
		Category: CategoryCompile,
		Message:  "Conflicting parameter names",
		Detail:   "Two routes use different parameter names at the same position, e.g. [id] and [slug] in the same directory.",
		DocURL:   "https://fsroute.dev/docs/errors/E211",
	},
	"E212": {
		Category: CategoryCompile,
		Message:  "Empty parameter name",
		Detail:   "A dynamic segment has no name, e.g. a file or directory called [].",
		DocURL:   "https://fsroute.dev/docs/errors/E212",
	},

	"E213": {
		Category: CategoryCompile,
		Message:  "Parameter inside a segment",
		Detail:   "A dynamic segment must fill its whole path segment. Rename user-[id] to user/[id], or [a]-[b] to [a]/[b].",
		DocURL:   "https://fsroute.dev/docs/errors/E213",
	},

	// ============================================
	// Router Errors (E220-E229)
	// ============================================

	"E220": {
		Category: CategoryRouter,
		Message:  "Unknown route style",
		Detail:   "The named path style is not built in. The only built-in style is \"basic\".",
		DocURL:   "https://fsroute.dev/docs/errors/E220",
	},
	"E221": {
		Category: CategoryRouter,
		Message:  "Missing value producer",
		Detail:   "Options.On is nil and the value type is not router.File, so there is no default producer.",
		DocURL:   "https://fsroute.dev/docs/errors/E221",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
