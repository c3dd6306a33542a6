package input

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/danielchalef/jsplit/pkg/jsplit"
	simdjson "github.com/minio/simdjson-go"
)

// RosterKey is the top-level array in a roster file that holds providers.
const RosterKey = "providers"

var useSimd = simdjson.SupportedCPU()

// ParserName reports which JSON parser roster scanning uses.
func ParserName() string {
	if useSimd {
		return "simdjson"
	}
	return "encoding/json (standard)"
}

// ReadRoster extracts NPIs from a JSON roster of the form
//
//	{"name": "...", "providers": [{"npi": "1234567893", ...}, ...]}
//
// The file may be gzipped. It is split into NDJSON under a temporary
// directory so large rosters are never held in memory. Entries without an
// npi field are skipped; npi may be a string or a number.
func ReadRoster(path string) ([]string, error) {
	dir, err := os.MkdirTemp("", "npi-roster-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	files, err := splitRoster(path, dir)
	if err != nil {
		return nil, err
	}

	var npis []string
	for _, f := range files {
		var found []string
		if useSimd {
			found, err = scanRosterFileSimd(f)
		} else {
			found, err = scanRosterFile(f)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", filepath.Base(f), err)
		}
		npis = append(npis, found...)
	}
	return npis, nil
}

// splitRoster runs jsplit and returns the sorted NDJSON files holding the
// providers array.
func splitRoster(inputPath, outputDir string) ([]string, error) {
	// jsplit prints to stdout
	origStdout := os.Stdout
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, fmt.Errorf("failed to open /dev/null: %w", err)
	}
	os.Stdout = devNull
	err = jsplit.Split(inputPath, outputDir, true)
	os.Stdout = origStdout
	devNull.Close()
	if err != nil {
		return nil, fmt.Errorf("splitting roster: %w", err)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read split output dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, RosterKey+"_") && strings.HasSuffix(name, ".jsonl") {
			files = append(files, filepath.Join(outputDir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

func newLineScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return scanner
}

func scanRosterFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var npis []string
	scanner := newLineScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry struct {
			NPI json.RawMessage `json:"npi"`
		}
		if err := json.Unmarshal(line, &entry); err != nil || len(entry.NPI) == 0 {
			continue
		}
		if n := rawNPI(entry.NPI); n != "" {
			npis = append(npis, n)
		}
	}
	return npis, scanner.Err()
}

// rawNPI accepts "1234567893" or 1234567893.
func rawNPI(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func scanRosterFileSimd(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		npis []string
		pj   *simdjson.ParsedJson
	)
	scanner := newLineScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		pj, err = simdjson.Parse(line, pj)
		if err != nil {
			continue
		}
		pj.ForEach(func(i simdjson.Iter) error {
			if n := extractNPI(i); n != "" {
				npis = append(npis, n)
			}
			return nil
		})
	}
	return npis, scanner.Err()
}

func extractNPI(i simdjson.Iter) string {
	elem, err := i.FindElement(nil, "npi")
	if err != nil {
		return ""
	}
	switch elem.Iter.Type() {
	case simdjson.TypeString:
		s, _ := elem.Iter.String()
		return strings.TrimSpace(s)
	case simdjson.TypeInt:
		n, _ := elem.Iter.Int()
		return strconv.FormatInt(n, 10)
	case simdjson.TypeUint:
		n, _ := elem.Iter.Uint()
		return strconv.FormatUint(n, 10)
	}
	return ""
}
