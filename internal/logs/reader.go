package logs

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// MaxLines caps the number of lines a single retrieval returns. It is a
// hard resource bound, not a pagination cursor: callers needing more must
// narrow their filters.
const MaxLines = 5000

const logExt = ".log"

// ErrNotFound covers missing files, wrong extensions and traversal
// attempts alike, so callers cannot probe for files outside the root.
var ErrNotFound = errors.New("log file not found")

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Reader serves log files confined to a single root directory.
type Reader struct {
	root string
}

func NewReader(root string) *Reader { return &Reader{root: root} }

// ListFiles returns the names of the log files directly under the root,
// sorted for stable output.
func (r *Reader) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), logExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// resolve maps a requested name onto a path inside the root. Names
// without the log extension or resolving outside the root yield
// ErrNotFound.
func (r *Reader) resolve(name string) (string, error) {
	if !strings.HasSuffix(name, logExt) {
		return "", ErrNotFound
	}
	full := filepath.Join(r.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(r.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	return full, nil
}

// Retrieve reads the named file and returns the lines passing the filter,
// most recent physical line first, sanitized and capped at MaxLines. The
// file is read whole; with the line cap in place that stays cheaper than
// tracking line boundaries backwards.
func (r *Reader) Retrieve(name string, f Filter) ([]string, error) {
	full, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, ErrNotFound
	}
	lines := strings.Split(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1] // trailing newline, not an empty record
	}
	out := make([]string, 0, min(len(lines), MaxLines))
	for i := len(lines) - 1; i >= 0; i-- {
		if !f.Match(lines[i]) {
			continue
		}
		out = append(out, sanitizeLine(lines[i]))
		if len(out) >= MaxLines {
			break
		}
	}
	return out, nil
}

// sanitizeLine strips ANSI color sequences, trailing whitespace and any
// embedded carriage returns before a line reaches the client.
func sanitizeLine(line string) string {
	line = strings.TrimRight(line, " \t\r\n")
	line = strings.ReplaceAll(line, "\r", "")
	return ansiSeq.ReplaceAllString(line, "")
}
