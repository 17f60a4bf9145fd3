// Package store persists assembled graphs as snapshots: the node-link JSON document of a
// collection, optionally snappy compressed, described by a manifest carrying a blake2b
// digest of the stored bytes. Snapshots are written to a local directory and, when
// configured, to an S3 bucket.
package store

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/dd0wney/cluso-kg/pkg/graph"
)

// Compression schemes.
const (
	CompressionSnappy = "snappy"
	CompressionNone   = "none"
)

const manifestName = "manifest.json"

var (
	// ErrNotFound is returned when no snapshot exists for a run id.
	ErrNotFound = errors.New("snapshot not found")
	// ErrCorrupt is returned when stored bytes do not match their manifest.
	ErrCorrupt = errors.New("snapshot corrupt")
)

// Manifest describes one stored snapshot.
type Manifest struct {
	RunID       uuid.UUID      `json:"run_id"`
	CreatedAt   time.Time      `json:"created_at"`
	File        string         `json:"file"`
	Compression string         `json:"compression"`
	Digest      string         `json:"digest"`
	Bytes       int64          `json:"bytes"`
	Nodes       map[string]int `json:"nodes"`
	Edges       map[string]int `json:"edges"`
}

// NumNodes returns the total node count recorded in the manifest.
func (m Manifest) NumNodes() int {
	n := 0
	for _, v := range m.Nodes {
		n += v
	}
	return n
}

// NumEdges returns the total edge count recorded in the manifest.
func (m Manifest) NumEdges() int {
	n := 0
	for _, v := range m.Edges {
		n += v
	}
	return n
}

// Encode renders c as stored snapshot bytes plus the manifest describing them.
func Encode(runID uuid.UUID, c *graph.Collection, compression string, now time.Time) ([]byte, Manifest, error) {
	raw, err := json.Marshal(graph.NewDocument(c))
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("encode snapshot: %w", err)
	}

	file := "graph.json"
	data := raw
	switch compression {
	case CompressionSnappy:
		data = snappy.Encode(nil, raw)
		file += ".sz"
	case CompressionNone, "":
		compression = CompressionNone
	default:
		return nil, Manifest{}, fmt.Errorf("unknown compression %q", compression)
	}

	m := Manifest{
		RunID:       runID,
		CreatedAt:   now.UTC(),
		File:        file,
		Compression: compression,
		Digest:      digest(data),
		Bytes:       int64(len(data)),
		Nodes:       make(map[string]int),
		Edges:       make(map[string]int),
	}
	for _, t := range c.NodeTables() {
		m.Nodes[t.Type().String()] += t.Len()
	}
	for _, t := range c.EdgeTables() {
		m.Edges[t.Type().String()] += t.Len()
	}
	return data, m, nil
}

// Decode checks data against m and rebuilds the collection.
func Decode(data []byte, m Manifest) (*graph.Collection, error) {
	if int64(len(data)) != m.Bytes {
		return nil, fmt.Errorf("%w: %s has %d bytes, manifest says %d", ErrCorrupt, m.File, len(data), m.Bytes)
	}
	if got := digest(data); got != m.Digest {
		return nil, fmt.Errorf("%w: %s digest %s, manifest says %s", ErrCorrupt, m.File, got, m.Digest)
	}

	raw := data
	switch m.Compression {
	case CompressionSnappy:
		var err error
		if raw, err = snappy.Decode(nil, data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	case CompressionNone:
	default:
		return nil, fmt.Errorf("%w: unknown compression %q", ErrCorrupt, m.Compression)
	}

	var doc graph.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc.Collection()
}

func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
