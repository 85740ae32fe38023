package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// PublicPrefix is the URL path local files are served under.
const PublicPrefix = "/storage/"

// Local writes files below a directory on disk.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

// Root returns the directory files are written to.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) Save(_ context.Context, folder, filename, _ string, r io.Reader) (string, error) {
	name := objectName(folder, filename)
	target := filepath.Join(l.root, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return PublicPrefix + name, nil
}

func (l *Local) Delete(_ context.Context, publicPath string) error {
	target, ok := l.resolve(publicPath)
	if !ok {
		log.Debug().Str("path", publicPath).Msg("Skipping delete of file outside local storage")
		return nil
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", publicPath, err)
	}
	return nil
}

// resolve maps a public path back to a file under root, rejecting anything
// that would escape it.
func (l *Local) resolve(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return "", false
	}
	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(publicPath, PublicPrefix)))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return filepath.Join(l.root, rel), true
}
