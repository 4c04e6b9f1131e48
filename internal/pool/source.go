package pool

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source reads pool entries from text files in a directory. Files are read
// fresh on every call so externally appended entries show up immediately;
// nothing is cached.
type Source struct {
	Dir string
}

// Entries returns the ordered entries of the named pool. Blank lines and
// "#" comment lines are skipped. A missing file yields an empty slice and
// no error, matching a pool that exists but has nothing to hand out.
func (s Source) Entries(name string) ([]string, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pool: open source %q: %w", name, err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pool: read source %q: %w", name, err)
	}
	return entries, nil
}

// Append adds entries to the end of the named pool file, creating it if
// needed. Returns the number of entries written.
func (s Source) Append(name string, entries []string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("pool: create dir %s: %w", s.Dir, err)
	}

	f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("pool: open source %q for append: %w", name, err)
	}
	defer f.Close()

	written := 0
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, err := fmt.Fprintln(f, e); err != nil {
			return written, fmt.Errorf("pool: append to %q: %w", name, err)
		}
		written++
	}
	return written, nil
}
