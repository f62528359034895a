package vfs

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/progress"
)

// Node is a lazy handle on a path within a backend. Creating one does no
// I/O; every query goes to the backend, which may answer from its caches.
type Node struct {
	backend Backend
	path    string
}

// NewNode returns the node for p within b.
func NewNode(b Backend, p string) *Node {
	return &Node{backend: b, path: cleanPath(p)}
}

func (n *Node) Backend() Backend {
	return n.backend
}

// Path is the rooted, slash-separated path within the backend.
func (n *Node) Path() string {
	return n.path
}

// Name is the last path element; empty for the root.
func (n *Node) Name() string {
	if n.IsRoot() {
		return ""
	}
	return path.Base(n.path)
}

func (n *Node) IsRoot() bool {
	return n.path == "/"
}

// Parent returns the containing directory, or nil for the root.
func (n *Node) Parent() *Node {
	if n.IsRoot() {
		return nil
	}
	return &Node{backend: n.backend, path: path.Dir(n.path)}
}

// Child returns the node for name inside n.
func (n *Node) Child(name string) *Node {
	return NewNode(n.backend, path.Join(n.path, name))
}

// Children lists the entries of a directory node.
func (n *Node) Children(ctx context.Context) ([]*Node, error) {
	names, err := n.backend.ListDirectory(ctx, n.path)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, len(names))
	for i, name := range names {
		out[i] = n.Child(name)
	}
	return out, nil
}

// Exists is false when the backend reports the path as not found.
func (n *Node) Exists(ctx context.Context) (bool, error) {
	_, err := n.backend.Stat(ctx, n.path)
	switch {
	case err == nil:
		return true, nil
	case errs.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func (n *Node) IsFolder(ctx context.Context) (bool, error) {
	return n.backend.IsDirectory(ctx, n.path)
}

// IsData reports whether the node is an existing regular file.
func (n *Node) IsData(ctx context.Context) (bool, error) {
	fi, err := n.backend.Stat(ctx, n.path)
	if err != nil {
		if errs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir, nil
}

func (n *Node) Size(ctx context.Context) (int64, error) {
	fi, err := n.backend.Stat(ctx, n.path)
	if err != nil {
		return 0, err
	}
	return fi.Size, nil
}

func (n *Node) LastModified(ctx context.Context) (time.Time, error) {
	fi, err := n.backend.Stat(ctx, n.path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime, nil
}

// Materialize makes the content available locally and returns its path.
func (n *Node) Materialize(ctx context.Context, mon progress.Monitor) (string, error) {
	return n.backend.GetFile(ctx, n.path, mon)
}

// Open materializes the node and opens the local copy.
func (n *Node) Open(ctx context.Context) (*os.File, error) {
	local, err := n.Materialize(ctx, nil)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, mapOSError(err, "open "+local)
	}
	return f, nil
}

func (n *Node) String() string {
	return n.backend.Root() + n.path
}
