// Package httpserver provides the plain HTTP transport.
//
// The httpserver package exposes the execution engine to collaborators
// that speak JSON over HTTP rather than MCP: POST /api/v1/execute runs one
// submission synchronously, GET /api/v1/languages lists the supported
// languages and GET /healthz probes the container runtime.
package httpserver
