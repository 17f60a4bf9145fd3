package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/metrics"
)

// Options configures a store. Zero values are usable.
type Options struct {
	Compression string
	Logger      logging.Logger
	Metrics     *metrics.Registry
}

func (o Options) logger(component string) logging.Logger {
	l := o.Logger
	if l == nil {
		l = logging.NewNopLogger()
	}
	return l.With(logging.Component(component))
}

// FileStore keeps one directory per run under its root:
//
//	<root>/<run id>/graph.json.sz
//	<root>/<run id>/manifest.json
type FileStore struct {
	root        string
	compression string
	logger      logging.Logger
	metrics     *metrics.Registry
	now         func() time.Time
}

// NewFileStore opens (creating if needed) a store rooted at dir.
func NewFileStore(dir string, opts Options) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{
		root:        dir,
		compression: opts.Compression,
		logger:      opts.logger("store.file"),
		metrics:     opts.Metrics,
		now:         time.Now,
	}, nil
}

// Name identifies the backend in logs and metrics.
func (s *FileStore) Name() string { return "file" }

// Root returns the store directory.
func (s *FileStore) Root() string { return s.root }

// Put saves c as the snapshot of runID.
func (s *FileStore) Put(ctx context.Context, runID uuid.UUID, c *graph.Collection) error {
	_, err := s.Save(ctx, runID, c)
	return err
}

// Save writes the snapshot file, then its manifest. A snapshot without a manifest is never
// listed, so a crash between the two writes leaves no visible snapshot.
func (s *FileStore) Save(ctx context.Context, runID uuid.UUID, c *graph.Collection) (m Manifest, err error) {
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordStoreWrite(s.Name(), m.Bytes, err)
		}
	}()
	if err := ctx.Err(); err != nil {
		return Manifest{}, err
	}

	data, m, err := Encode(runID, c, s.compression, s.now())
	if err != nil {
		return Manifest{}, err
	}
	dir := filepath.Join(s.root, runID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Manifest{}, err
	}
	if err := writeFileAtomic(filepath.Join(dir, m.File), data); err != nil {
		return Manifest{}, err
	}
	head, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	if err := writeFileAtomic(filepath.Join(dir, manifestName), head); err != nil {
		return Manifest{}, err
	}

	s.logger.Info("snapshot saved",
		logging.RunID(runID), logging.Path(dir), logging.Int64("bytes", m.Bytes),
		logging.Nodes(m.NumNodes()), logging.Edges(m.NumEdges()))
	return m, nil
}

// Manifest reads the manifest of runID.
func (s *FileStore) Manifest(runID uuid.UUID) (Manifest, error) {
	return readManifest(filepath.Join(s.root, runID.String(), manifestName))
}

// Open loads and verifies the snapshot of runID. The data file is read through a memory
// map.
func (s *FileStore) Open(runID uuid.UUID) (*graph.Collection, Manifest, error) {
	m, err := s.Manifest(runID)
	if err != nil {
		return nil, Manifest{}, err
	}

	r, err := mmap.Open(filepath.Join(s.root, runID.String(), m.File))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Manifest{}, fmt.Errorf("%w: run %s data file", ErrNotFound, runID)
		}
		return nil, Manifest{}, err
	}
	defer r.Close()

	data := make([]byte, r.Len())
	if _, err := r.ReadAt(data, 0); err != nil && len(data) > 0 {
		return nil, Manifest{}, err
	}
	c, err := Decode(data, m)
	if err != nil {
		return nil, Manifest{}, err
	}
	return c, m, nil
}

// List returns the manifests of every stored snapshot, oldest first.
func (s *FileStore) List() ([]Manifest, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var out []Manifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		m, err := readManifest(filepath.Join(s.root, e.Name(), manifestName))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Latest returns the manifest of the most recent snapshot.
func (s *FileStore) Latest() (Manifest, error) {
	all, err := s.List()
	if err != nil {
		return Manifest{}, err
	}
	if len(all) == 0 {
		return Manifest{}, ErrNotFound
	}
	return all[len(all)-1], nil
}

func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return m, nil
}

// writeFileAtomic writes through a temp file in the same directory and renames it into
// place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
