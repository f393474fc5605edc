// Package universe loads named ticker lists from text files.
//
// A universe file is <dir>/<name>.txt with one ticker per line. Lines starting
// with "#" are comments, except "## Category" lines which open a category for
// the tickers that follow.
package universe

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// All names the union of every universe file.
const All = "all"

// ErrUnknownUniverse is returned when a name matches no universe file.
var ErrUnknownUniverse = errors.New("unknown universe")

const fileExt = ".txt"

// Universe is one loaded ticker list.
type Universe struct {
	Name       string
	Tickers    []string
	Categories map[string][]string
}

// Loader reads universes from a directory.
type Loader struct {
	dir string
}

// NewLoader creates a Loader for dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the directory universes are read from.
func (l *Loader) Dir() string { return l.dir }

// Names lists the available universes, sorted.
func (l *Loader) Names() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read universe dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a single universe by name.
func (l *Loader) Load(name string) (*Universe, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid universe name %q", name)
	}
	f, err := os.Open(filepath.Join(l.dir, name+fileExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w %q", ErrUnknownUniverse, name)
		}
		return nil, fmt.Errorf("open universe %s: %w", name, err)
	}
	defer f.Close()

	u := &Universe{Name: name, Categories: make(map[string][]string)}
	seen := make(map[string]bool)
	category := ""

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "##"):
			category = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		case strings.HasPrefix(line, "#"):
			continue
		}
		// Allow trailing comments: "AAPL  # Apple".
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		t := strings.ToUpper(line)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		u.Tickers = append(u.Tickers, t)
		if category != "" {
			u.Categories[category] = append(u.Categories[category], t)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read universe %s: %w", name, err)
	}
	return u, nil
}

// Resolve turns a universe spec into tickers. The spec is "all", a universe
// name, or a comma separated ticker list. A single word that names no universe
// file is an ErrUnknownUniverse rather than a one-ticker list. The returned label names the selection.
func (l *Loader) Resolve(spec string) (label string, tickers []string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", nil, fmt.Errorf("empty universe")
	}

	if strings.EqualFold(spec, All) {
		names, err := l.Names()
		if err != nil {
			return "", nil, err
		}
		if len(names) == 0 {
			return "", nil, fmt.Errorf("no universe files in %s", l.dir)
		}
		seen := make(map[string]bool)
		for _, n := range names {
			u, err := l.Load(n)
			if err != nil {
				return "", nil, err
			}
			for _, t := range u.Tickers {
				if !seen[t] {
					seen[t] = true
					tickers = append(tickers, t)
				}
			}
		}
		return All, tickers, nil
	}

	// A single word is always a universe name; "IBM," selects one ticker.
	if !strings.ContainsAny(spec, ", \t\n") {
		u, err := l.Load(spec)
		if errors.Is(err, ErrUnknownUniverse) {
			names, _ := l.Names()
			return "", nil, fmt.Errorf("%w %q (available: %s); pass tickers as a comma separated list",
				ErrUnknownUniverse, strings.ToLower(spec), strings.Join(append(names, All), ", "))
		}
		if err != nil {
			return "", nil, err
		}
		return u.Name, u.Tickers, nil
	}

	return "custom", ParseList(spec), nil
}

// ParseList splits a comma or whitespace separated ticker list, upper-casing
// and dropping blanks and duplicates.
func ParseList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		t := strings.ToUpper(strings.TrimSpace(f))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
