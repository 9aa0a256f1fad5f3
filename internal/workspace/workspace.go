// Package workspace owns the per-job scratch directories.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Workspace is a job-exclusive directory. Remove is safe to call more than
// once; only the first call touches the disk.
type Workspace struct {
	dir      string
	registry *Registry

	once sync.Once
	err  error
}

// Registry tracks live workspaces so a shutting-down process can purge them.
type Registry struct {
	root string

	mu   sync.Mutex
	live map[string]struct{}
}

// NewRegistry creates workspaces under root. An empty root means os.TempDir().
func NewRegistry(root string) *Registry {
	if root == "" {
		root = os.TempDir()
	}
	return &Registry{root: root, live: make(map[string]struct{})}
}

func (r *Registry) Root() string { return r.root }

// Create makes a fresh, uniquely named directory.
func (r *Registry) Create() (*Workspace, error) {
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	dir := filepath.Join(r.root, "shortz-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	r.mu.Lock()
	r.live[dir] = struct{}{}
	r.mu.Unlock()
	return &Workspace{dir: dir, registry: r}, nil
}

// Live returns the directories that have not been removed yet.
func (r *Registry) Live() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.live))
	for d := range r.live {
		out = append(out, d)
	}
	return out
}

// PurgeAll removes every live workspace and returns the first error seen.
func (r *Registry) PurgeAll() error {
	var first error
	for _, d := range r.Live() {
		if err := os.RemoveAll(d); err != nil && first == nil {
			first = err
		}
		r.forget(d)
	}
	return first
}

func (r *Registry) forget(dir string) {
	r.mu.Lock()
	delete(r.live, dir)
	r.mu.Unlock()
}

func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string { return filepath.Join(w.dir, name) }

func (w *Workspace) Remove() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.dir)
		w.registry.forget(w.dir)
	})
	return w.err
}
