package archive

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"unicode"
)

// Extension is appended to the name of a compressed sidecar.
const Extension = ".gz"

// Gzip streams src through a gzip writer into dst and returns the number of
// uncompressed bytes consumed.
func Gzip(dst io.Writer, src io.Reader, name string) (int64, error) {
	if dst == nil || src == nil {
		return 0, errors.New("nil reader or writer")
	}
	gzipWriter, err := gzip.NewWriterLevel(dst, gzip.DefaultCompression)
	if err != nil {
		return 0, fmt.Errorf("new gzip writer: %w", err)
	}
	// the gzip header only carries Latin-1
	if isLatin1(name) {
		gzipWriter.Name = name
	}

	written, err := io.Copy(gzipWriter, src)
	if err != nil {
		_ = gzipWriter.Close()
		return written, fmt.Errorf("compress: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return written, fmt.Errorf("close gzip writer: %w", err)
	}
	return written, nil
}

// GzipBytes compresses data in memory.
func GzipBytes(data []byte, name string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Gzip(&buf, bytes.NewReader(data), name); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isLatin1(s string) bool {
	for _, r := range s {
		if r > unicode.MaxLatin1 {
			return false
		}
	}
	return true
}

// SidecarName returns the name used for the compressed copy of name.
func SidecarName(name string) string { return name + Extension }
