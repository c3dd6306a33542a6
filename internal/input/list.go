// Package input reads NPI lists for batch validation: plain or gzipped text
// lists, and JSON provider rosters.
package input

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// ReadList reads NPIs from a text file, one or more per line separated by
// commas or whitespace. Blank lines and lines starting with # are skipped.
// Gzipped files are detected by their magic bytes.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, closeFn, err := maybeGunzip(f)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer closeFn()

	return ParseList(r)
}

// ParseList reads NPIs from r. See ReadList for the format.
func ParseList(r io.Reader) ([]string, error) {
	var npis []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		npis = append(npis, SplitList(line)...)
	}
	return npis, scanner.Err()
}

// SplitList splits a comma or whitespace separated NPI list, dropping
// empty fields.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// maybeGunzip wraps r in a parallel gzip reader when it starts with the
// gzip magic bytes.
func maybeGunzip(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, nil, err
	}
	if !bytes.Equal(head, gzipMagic) {
		return br, func() {}, nil
	}
	gz, err := pgzip.NewReader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("gzip reader: %w", err)
	}
	return gz, func() { gz.Close() }, nil
}
