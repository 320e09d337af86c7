// Package storage keeps refund proof images on local disk and hands back
// the public URL recorded on the booking.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrProofTooLarge = errors.New("proof image exceeds the 5MB limit")
	ErrProofBadType  = errors.New("proof must be a jpg, png or webp image")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ProofStore writes uploads under dir and serves them at baseURL.
type ProofStore struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *zerolog.Logger
}

func NewProofStore(dir, baseURL string, maxBytes int64, logger *zerolog.Logger) (*ProofStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create proof directory: %w", err)
	}
	return &ProofStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger,
	}, nil
}

// SaveProof validates the upload and writes it under a generated name so
// uploads can never collide or traverse paths.
func (s *ProofStore) SaveProof(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	if size > s.maxBytes {
		return "", ErrProofTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrProofBadType
	}

	// The extension is not trusted either; sniff the leading bytes before
	// anything touches disk.
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read proof upload: %w", err)
	}
	head = head[:n]
	if !allowedContentTypes[http.DetectContentType(head)] {
		return "", ErrProofBadType
	}
	r = io.MultiReader(bytes.NewReader(head), r)

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create proof file: %w", err)
	}
	defer f.Close()

	// The declared size is not trusted; copy at most maxBytes+1 and reject
	// anything that still has bytes left.
	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write proof file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(path)
		return "", ErrProofTooLarge
	}

	s.logger.Debug().Str("file", name).Int64("bytes", written).Msg("Proof stored")
	return s.baseURL + "/" + name, nil
}
