package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edukit/execbox/config"
	"github.com/edukit/execbox/language"
)

// File permission constants
const (
	DirPermission  = 0o755
	FilePermission = 0o644
)

// publicClassPattern locates the first public class declaration in a
// java-like submission so it can be renamed to the profile's entry class.
var publicClassPattern = regexp.MustCompile(`public\s+class\s+([A-Za-z_][A-Za-z0-9_]*)`)

// FileSystem defines an interface for file system operations
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Workspace is the ephemeral directory owned by one execution request.
type Workspace struct {
	ID  string
	Dir string
}

// Manager creates and destroys workspaces under a base directory.
type Manager struct {
	logger  *zap.Logger
	baseDir string
	fs      FileSystem
}

// ManagerOption defines a functional option for Manager
type ManagerOption func(*Manager)

// WithFileSystem sets the FileSystem for the Manager
func WithFileSystem(fs FileSystem) ManagerOption {
	return func(m *Manager) {
		m.fs = fs
	}
}

// New creates a workspace manager rooted at baseDir. An empty baseDir
// falls back to the system temporary directory.
func New(logger *zap.Logger, baseDir string, opts ...ManagerOption) *Manager {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "execbox")
	}
	m := &Manager{
		logger:  logger,
		baseDir: baseDir,
		fs:      &RealFileSystem{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FromConfig builds the manager out of the loaded configuration.
func FromConfig(logger *zap.Logger, cfg *config.Config) *Manager {
	return New(logger, cfg.Sandbox.WorkspaceDir)
}

// Create makes a fresh uniquely named workspace directory. The id combines
// a monotonic timestamp with a random component so concurrent requests can
// never collide.
func (m *Manager) Create() (*Workspace, error) {
	id := fmt.Sprintf("exec-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
	dir := filepath.Join(m.baseDir, id)
	if err := m.fs.MkdirAll(dir, DirPermission); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// WriteSource writes the submitted source into the workspace under the
// profile's source file name and returns the full path. For profiles that
// declare an entry class, the first public class declaration is renamed to
// match; this is a textual substitution, not a parse.
func (m *Manager) WriteSource(ws *Workspace, source string, profile language.Profile) (string, error) {
	if profile.EntryClass != "" {
		source = rewriteEntryClass(source, profile.EntryClass)
	}
	path := filepath.Join(ws.Dir, profile.SourceFile)
	if err := m.fs.WriteFile(path, []byte(source), FilePermission); err != nil {
		return "", fmt.Errorf("write source file %s: %w", path, err)
	}
	return path, nil
}

// Destroy removes the workspace directory recursively. Cleanup failures
// are logged, never escalated, so they cannot mask the execution result.
func (m *Manager) Destroy(ws *Workspace) {
	if ws == nil {
		return
	}
	if err := m.fs.RemoveAll(ws.Dir); err != nil {
		m.logger.Error("failed to remove workspace",
			zap.String("workspace_id", ws.ID),
			zap.String("path", ws.Dir),
			zap.Error(err))
	}
}

// rewriteEntryClass renames the first declared public class to entryClass.
func rewriteEntryClass(source, entryClass string) string {
	match := publicClassPattern.FindStringSubmatchIndex(source)
	if match == nil {
		return source
	}
	// match[2]:match[3] bounds the captured class name
	return source[:match[2]] + entryClass + source[match[3]:]
}
