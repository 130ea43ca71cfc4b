package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vango-dev/fsroute/internal/errors"
	"github.com/vango-dev/fsroute/pkg/fsscan"
	"github.com/vango-dev/fsroute/pkg/router"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "fsroute.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultRoot is the default directory to serve.
	DefaultRoot = "public"

	// DefaultPollInterval is the default watch polling interval.
	DefaultPollInterval = "500ms"

	// DefaultReloadPath is the WebSocket endpoint for reload notifications.
	DefaultReloadPath = "/__fsroute/reload"

	// DefaultMetricsPath is where Prometheus metrics are exposed.
	DefaultMetricsPath = "/metrics"

	// DefaultServiceName is the tracing service name.
	DefaultServiceName = "fsroute"
)

// Cache-Control policies accepted in server.cacheControl.
const (
	CacheControlDefault    = "default"
	CacheControlNone       = "none"
	CacheControlProduction = "production"
)

// Config represents the complete fsroute.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Root is the directory scanned for routes, relative to the config file.
	Root string `json:"root,omitempty"`

	// Pattern is the glob selecting route files (default: "**/*").
	Pattern string `json:"pattern,omitempty"`

	// Style is the path style name (default: "basic").
	Style string `json:"style,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Dev contains watch and hot reload configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry export configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// CacheControl is "default", "none" or "production".
	CacheControl string `json:"cacheControl,omitempty"`

	// Headers are added to every file response.
	Headers map[string]string `json:"headers,omitempty"`

	// NotFound is a file, relative to Root, served with status 404 for
	// unmatched requests.
	NotFound string `json:"notFound,omitempty"`
}

// DevConfig contains watch settings.
type DevConfig struct {
	// Watch rebuilds the route table when files change.
	Watch bool `json:"watch,omitempty"`

	// PollInterval is how often the tree is checked for changes.
	PollInterval string `json:"pollInterval,omitempty"`

	// Ignore contains glob patterns excluded from watching.
	Ignore []string `json:"ignore,omitempty"`

	// ReloadPath is the WebSocket endpoint browsers connect to for
	// reload notifications.
	ReloadPath string `json:"reloadPath,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes metrics and instruments requests.
	Enabled bool `json:"enabled,omitempty"`

	// Path is the metrics endpoint.
	Path string `json:"path,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled exports spans over OTLP/HTTP.
	Enabled bool `json:"enabled,omitempty"`

	// Endpoint is the collector host:port.
	Endpoint string `json:"endpoint,omitempty"`

	// Insecure disables TLS to the collector.
	Insecure bool `json:"insecure,omitempty"`

	// ServiceName is reported as service.name.
	ServiceName string `json:"serviceName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Root:    DefaultRoot,
		Pattern: router.DefaultPattern,
		Style:   string(router.StyleBasic),
		Server: ServerConfig{
			Port:         DefaultPort,
			Host:         DefaultHost,
			CacheControl: CacheControlDefault,
		},
		Dev: DevConfig{
			PollInterval: DefaultPollInterval,
			Ignore:       []string{"**/.*", "**/node_modules/**"},
			ReloadPath:   DefaultReloadPath,
		},
		Metrics: MetricsConfig{
			Path:      DefaultMetricsPath,
			Namespace: "fsroute",
		},
		Tracing: TracingConfig{
			ServiceName: DefaultServiceName,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for fsroute.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No fsroute.json found in " + filepath.Dir(path)).
				WithSuggestion("Create fsroute.json or pass the directory to serve as an argument")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithPath(path).
			WithDetail("Failed to parse fsroute.json: " + err.Error()).
			WithSuggestion("Check that fsroute.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.Pattern == "" {
		c.Pattern = router.DefaultPattern
	}
	if c.Style == "" {
		c.Style = string(router.StyleBasic)
	}

	// Server
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.CacheControl == "" {
		c.Server.CacheControl = CacheControlDefault
	}

	// Dev
	if c.Dev.PollInterval == "" {
		c.Dev.PollInterval = DefaultPollInterval
	}
	if c.Dev.ReloadPath == "" {
		c.Dev.ReloadPath = DefaultReloadPath
	}

	// Metrics
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "fsroute"
	}

	// Tracing
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Server.Port))
	}

	if _, err := c.PollInterval(); err != nil {
		return err
	}

	if err := fsscan.Validate(c.Pattern); err != nil {
		return err
	}

	if _, err := router.Named(router.StyleName(c.Style)).Resolve(); err != nil {
		return err
	}

	switch c.Server.CacheControl {
	case "", CacheControlDefault, CacheControlNone, CacheControlProduction:
	default:
		return errors.New("E120").
			WithDetail("server.cacheControl must be \"default\", \"none\" or \"production\", got " + strconv.Quote(c.Server.CacheControl))
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return errors.New("E121").
			WithDetail("tracing.endpoint is required when tracing is enabled")
	}

	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the base URL of the server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// PollInterval parses Dev.PollInterval.
func (c *Config) PollInterval() (time.Duration, error) {
	s := c.Dev.PollInterval
	if s == "" {
		s = DefaultPollInterval
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("E123").
			WithDetail("dev.pollInterval: " + strconv.Quote(s))
	}
	return d, nil
}

// RootPath returns the absolute path to the directory to serve.
func (c *Config) RootPath() string {
	path := c.Root
	if path == "" {
		path = DefaultRoot
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// NotFoundPath returns the absolute path to the not-found page, or "".
func (c *Config) NotFoundPath() string {
	if c.Server.NotFound == "" {
		return ""
	}
	if filepath.IsAbs(c.Server.NotFound) {
		return c.Server.NotFound
	}
	return filepath.Join(c.RootPath(), c.Server.NotFound)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing fsroute.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No fsroute.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create fsroute.json or pass the directory to serve as an argument")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
