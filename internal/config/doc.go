// Package config provides configuration parsing for fsroute projects.
//
// The configuration is stored in fsroute.json at the project root.
// This package handles loading, saving, and validating configuration.
// Command-line flags override the loaded values.
//
// # Configuration File Structure
//
//	{
//	  "root": "public",
//	  "pattern": "**/*.html",
//	  "style": "basic",
//	  "server": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "cacheControl": "production",
//	    "headers": {"X-Frame-Options": "DENY"},
//	    "notFound": "404.html"
//	  },
//	  "dev": {
//	    "watch": true,
//	    "pollInterval": "500ms",
//	    "ignore": ["**/.*"]
//	  },
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "tracing": {"enabled": true, "endpoint": "localhost:4318", "insecure": true}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Serving", cfg.RootPath(), "on", cfg.Address())
package config
