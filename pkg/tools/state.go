package tools

import (
	"os"
	"path/filepath"

	tooltypes "github.com/mpazaryna/telos/pkg/types/tools"
)

// BasicState is the default execution state for built-in tools. It pins the
// working directory used by file tools and the optional companion script
// directory used by run_command.
type BasicState struct {
	workingDir string
	scriptDir  string
}

var _ tooltypes.State = &BasicState{}

// BasicStateOption configures a BasicState
type BasicStateOption func(*BasicState)

// WithWorkingDir sets the working directory
func WithWorkingDir(dir string) BasicStateOption {
	return func(s *BasicState) {
		s.workingDir = dir
	}
}

// WithScriptDir sets the companion script directory for command execution
func WithScriptDir(dir string) BasicStateOption {
	return func(s *BasicState) {
		s.scriptDir = dir
	}
}

// NewBasicState creates a BasicState. Without options the working directory
// defaults to the process working directory.
func NewBasicState(opts ...BasicStateOption) *BasicState {
	s := &BasicState{workingDir: "."}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WorkingDir returns the directory file tools resolve paths against
func (s *BasicState) WorkingDir() string {
	return s.workingDir
}

// CommandDir returns the directory shell commands execute in. It is the
// companion script directory when one is configured and exists, else the
// working dir.
func (s *BasicState) CommandDir() string {
	if s.scriptDir != "" {
		if info, err := os.Stat(s.scriptDir); err == nil && info.IsDir() {
			return s.scriptDir
		}
	}
	return s.workingDir
}

// ResolvePath resolves path against the working directory. Absolute paths
// are returned unchanged.
func (s *BasicState) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.workingDir, path)
}
