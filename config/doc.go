// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files. It covers the transport, the sandbox
// resource limits, submission screening, logging, the audit sink and the
// per-language execution profiles.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Server transport: %s\n", cfg.Server.Transport)
package config
