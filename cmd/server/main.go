// Package main is the entry point for the execbox server.
//
// Execbox runs untrusted student submissions (Java, Python, JavaScript, C++)
// inside short-lived, network-isolated containers and classifies the outcome
// for the calling learning platform. The server speaks MCP over stdio or
// streamable HTTP, or plain JSON over REST, selected by configuration.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/edukit/execbox/audit"
	"github.com/edukit/execbox/config"
	"github.com/edukit/execbox/engine"
	"github.com/edukit/execbox/httpserver"
	"github.com/edukit/execbox/language"
	"github.com/edukit/execbox/logger"
	"github.com/edukit/execbox/mcpserver"
	"github.com/edukit/execbox/sandbox"
	"github.com/edukit/execbox/security"
	"github.com/edukit/execbox/workspace"
)

func appOptions() fx.Option {
	return fx.Options(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Language profiles
			language.FromConfig,

			// Source screening
			security.FromConfig,

			// Ephemeral workspaces
			workspace.FromConfig,

			// Container runner
			sandbox.FromConfig,
			func(r *sandbox.Runner) engine.Sandbox { return r },

			// Audit trail, closed at shutdown so buffered entries flush
			func(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (audit.Sink, error) {
				sink, err := audit.NewSink(logger, cfg)
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error { return sink.Close() },
				})
				return sink, nil
			},

			// Execution engine
			engine.NewService,
			func(s *engine.Service) mcpserver.Executor { return s },
			func(s *engine.Service) httpserver.Executor { return s },

			// Transports
			mcpserver.New,
			httpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, mcp *mcpserver.MCPServer, rest *httpserver.Server) {
				switch cfg.Server.Transport {
				case "stdio":
					go func() {
						if err := mcp.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := mcp.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				case "rest":
					go func() {
						if err := rest.Serve(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)
}

func main() {
	// Start the application
	fx.New(appOptions()).Run()
}
