// Package blobstore abstracts where raffle artwork bytes live. The core only
// ever sees the public URL a store hands back.
package blobstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrEmptyBlob = errors.New("blob is empty")

type Store interface {
	// Put persists the bytes under a generated name derived from filename's
	// extension and returns a public URL for them.
	Put(ctx context.Context, filename string, data []byte) (string, error)
}

// DiskStore writes blobs under a base directory that the HTTP server exposes
// statically at baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll -> %w", err)
	}

	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *DiskStore) Put(_ context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyBlob
	}

	var suffix [8]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", fmt.Errorf("rand.Read -> %w", err)
	}

	name := hex.EncodeToString(suffix[:]) + strings.ToLower(filepath.Ext(filename))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("os.WriteFile -> %w", err)
	}

	return s.baseURL + path.Join("/", name), nil
}
