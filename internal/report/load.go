package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Load decodes a report from r and normalizes it.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	Normalize(&doc)
	return &doc, nil
}

// LoadFile reads a report from path. Gzip and zstd compressed files are
// detected by their magic bytes.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, closeFn, err := decompress(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer closeFn()

	doc, err := Load(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func decompress(br *bufio.Reader) (io.Reader, func(), error) {
	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return br, func() {}, nil
	}
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteFile writes doc to path, compressing when the name ends in .gz or .zst.
func WriteFile(path string, doc *Document) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zw := gzip.NewWriter(f)
		if err := Write(zw, doc); err != nil {
			return err
		}
		return zw.Close()
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return err
		}
		if err := Write(zw, doc); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	default:
		return Write(f, doc)
	}
}
