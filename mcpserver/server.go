package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/edukit/execbox/config"
	"github.com/edukit/execbox/engine"
)

// Executor is the execution surface exposed through the MCP tool.
type Executor interface {
	Execute(ctx context.Context, req engine.Request) engine.Result
	Languages() []string
}

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	executor  Executor
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, executor Executor) (*MCPServer, error) {
	s := &MCPServer{
		config:   cfg,
		logger:   logger,
		executor: executor,
	}

	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("sandbox.runtime", cfg.Sandbox.Runtime),
		zap.Int("sandbox.memory_mb", cfg.Sandbox.MemoryMB),
		zap.Float64("sandbox.cpus", cfg.Sandbox.CPUs),
		zap.Int("sandbox.default_timeout_sec", cfg.Sandbox.DefaultTimeoutSec),
		zap.Int("sandbox.max_concurrent", cfg.Sandbox.MaxConcurrent),
		zap.Strings("languages", executor.Languages()),
	)

	s.mcpServer = server.NewMCPServer("execbox", "A sandboxed student code execution server")

	s.registerExecuteStudentCodeTool()

	return s, nil
}

// registerExecuteStudentCodeTool registers the execute_student_code tool
func (s *MCPServer) registerExecuteStudentCodeTool() {
	tool := mcp.Tool{
		Name:        "execute_student_code",
		Description: "Execute a student code submission in a sandboxed environment",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Submitted source code",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Submission language",
					"enum":        s.executor.Languages(),
				},
				"stdin": map[string]any{
					"type":        "string",
					"description": "Text fed to the program's standard input (optional)",
				},
				"timeout_sec": map[string]any{
					"type":        "integer",
					"description": "Execution timeout in seconds (optional, server default applies)",
				},
			},
			Required: []string{"code", "language"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleExecuteStudentCode)
}

// handleExecuteStudentCode handles the execute_student_code tool
func (s *MCPServer) handleExecuteStudentCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	lang, err := request.RequireString("language")
	if err != nil {
		return nil, fmt.Errorf("language parameter is required: %w", err)
	}

	stdin := request.GetString("stdin", "")
	timeoutSec := request.GetInt("timeout_sec", 0)

	s.logger.Info("executing submission",
		zap.String("language", lang),
		zap.Bool("has_stdin", stdin != ""),
		zap.Int("timeout_sec", timeoutSec))

	result := s.executor.Execute(ctx, engine.Request{
		Language:   lang,
		SourceCode: code,
		Stdin:      stdin,
		TimeoutSec: timeoutSec,
	})

	s.logger.Info("submission finished",
		zap.String("language", lang),
		zap.String("status", string(result.Status)),
		zap.Int("exit_code", result.ExitCode),
		zap.Int64("duration_ms", result.ExecutionTimeMs))

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(payload),
			},
		},
		IsError: result.Status == engine.StatusSystemError,
	}, nil
}

// GetMCPServer returns the underlying MCP server instance
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}
