// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package implements an MCP-compliant server that exposes the
// execute_student_code tool as the interface for sandboxed execution of
// student submissions. It uses the mark3labs/mcp-go library to handle the
// protocol details.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, service)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
