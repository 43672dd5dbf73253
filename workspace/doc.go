// Package workspace manages the ephemeral per-request directories.
//
// Each execution request owns exactly one workspace: a uniquely named
// directory holding the submitted source file and any compiler-produced
// artifacts. Workspaces are created before any container launches and
// destroyed unconditionally when the request finishes, on every exit path.
package workspace
