// Package backup writes sample collections to self-verifying archive files
// and restores them, and prunes archive directories by retention policy.
//
// An archive is one JSON header line followed by the gzip-compressed JSON
// collection. The header carries a sha256 checksum of the compressed bytes
// so that integrity can be checked without decompressing.
package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jhsa24/randomwalk/internal/store"
)

// FormatVersion is the archive format written by this package.
const FormatVersion = 1

// MaxDecompressedSize bounds the decompressed payload (1 GiB).
const MaxDecompressedSize = 1 << 30

// Header is the plain-text first line of an archive. CreatedAt is when the
// archive was written and orders archives for retention.
type Header struct {
	Version             int       `json:"version"`
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	CreatedAt           time.Time `json:"created_at"`
	CollectionCreatedAt time.Time `json:"collection_created_at"`
	Samples             int       `json:"samples"`
	Walkers             int       `json:"walkers"`
	Checksum            string    `json:"checksum"`
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Write encodes c as an archive to w, stamped with the current time.
func Write(w io.Writer, c *store.Collection) (*Header, error) {
	return writeAt(w, c, time.Now().UTC())
}

func writeAt(w io.Writer, c *store.Collection, at time.Time) (*Header, error) {
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if err := json.NewEncoder(gz).Encode(c); err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compressing collection: %w", err)
	}

	sum := c.Summary()
	h := &Header{
		Version:             FormatVersion,
		ID:                  c.ID,
		Name:                c.Name,
		CreatedAt:           at,
		CollectionCreatedAt: c.CreatedAt,
		Samples:             sum.Samples,
		Walkers:             sum.Walkers,
		Checksum:            checksum(compressed.Bytes()),
	}
	line, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}
	line = append(line, '\n')

	if _, err := w.Write(line); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(compressed.Bytes()); err != nil {
		return nil, fmt.Errorf("writing payload: %w", err)
	}
	return h, nil
}

// WriteFile writes c to path with owner-only permissions, creating parent
// directories as needed.
func WriteFile(path string, c *store.Collection) (*Header, error) {
	return writeFileAt(path, c, time.Now().UTC())
}

func writeFileAt(path string, c *store.Collection, at time.Time) (*Header, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	h, err := writeAt(f, c, at)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return h, nil
}

// readVerified parses the header and returns the checksum-verified
// compressed payload.
func readVerified(r io.Reader) (*Header, []byte, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header line: %w", err)
	}
	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return nil, nil, fmt.Errorf("parsing header: %w", err)
	}
	if h.Version != FormatVersion {
		return nil, nil, fmt.Errorf("unsupported archive version %d", h.Version)
	}

	payload, err := io.ReadAll(br)
	if err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	if got := checksum(payload); got != h.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", h.Checksum, got)
	}
	return &h, payload, nil
}

// Read decodes an archive, verifying its checksum first.
func Read(r io.Reader) (*store.Collection, *Header, error) {
	h, payload, err := readVerified(r)
	if err != nil {
		return nil, nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("opening gzip payload: %w", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(io.LimitReader(gz, MaxDecompressedSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if len(data) > MaxDecompressedSize {
		return nil, nil, fmt.Errorf("decompressed payload exceeds %d bytes", MaxDecompressedSize)
	}

	var c store.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, nil, fmt.Errorf("parsing collection: %w", err)
	}
	return &c, h, nil
}

// ReadFile reads the archive at path.
func ReadFile(path string) (*store.Collection, *Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// ReadHeader reads only the header line of the archive at path.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}
	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported archive version %d", h.Version)
	}
	return &h, nil
}

// Verify checks the checksum of the archive at path without decompressing.
func Verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	_, _, err = readVerified(f)
	return err
}
