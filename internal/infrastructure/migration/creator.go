package migration

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// versionWidth matches the zero padding of 000001_init
const versionWidth = 6

// Migration is one versioned file pair as golang-migrate names them:
// <version>_<name>.up.sql and <version>_<name>.down.sql
type Migration struct {
	Version uint
	Name    string
	HasUp   bool
	HasDown bool
}

// Complete reports whether both directions exist
func (m Migration) Complete() bool { return m.HasUp && m.HasDown }

func (m Migration) String() string {
	return fmt.Sprintf("%0*d_%s", versionWidth, m.Version, m.Name)
}

// ListMigrations reads the migration pairs in the root of fsys ordered by
// version. Files that do not follow the naming scheme are skipped.
func ListMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[uint]*Migration)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		version, name, direction, ok := parseFileName(e.Name())
		if !ok {
			continue
		}
		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		switch direction {
		case "up":
			m.HasUp = true
		case "down":
			m.HasDown = true
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

func parseFileName(file string) (version uint, name, direction string, ok bool) {
	base, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", "", false
	}
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return 0, "", "", false
	}
	base, direction = base[:dot], base[dot+1:]
	if direction != "up" && direction != "down" {
		return 0, "", "", false
	}
	num, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return 0, "", "", false
	}
	v, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, "", "", false
	}
	return uint(v), name, direction, true
}

// NewMigration is a freshly written file pair
type NewMigration struct {
	Migration
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty transactional pair into dir using the
// next free version number
func CreateMigration(dir, name, description string) (*NewMigration, error) {
	slug := slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	m := Migration{Version: next, Name: slug, HasUp: true, HasDown: true}
	nm := &NewMigration{
		Migration: m,
		UpPath:    filepath.Join(dir, m.String()+".up.sql"),
		DownPath:  filepath.Join(dir, m.String()+".down.sql"),
	}

	header := "-- " + m.String()
	if description != "" {
		header += "\n-- " + description
	}
	if err := writeNew(nm.UpPath, header+"\n\nBEGIN;\n\nCOMMIT;\n"); err != nil {
		return nil, err
	}
	if err := writeNew(nm.DownPath, header+" (rollback)\n\nBEGIN;\n\nCOMMIT;\n"); err != nil {
		_ = os.Remove(nm.UpPath)
		return nil, err
	}
	return nm, nil
}

// writeNew refuses to overwrite an existing migration
func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// slugify lowercases ASCII letters and digits and joins the words with
// single underscores
func slugify(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	return strings.Join(words, "_")
}
