package catalog

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/google/uuid"
)

// Catalog stores uploads under root/{department}/{session_id}/{filename}.
// The directory tree is the only index; nothing else records what was
// uploaded.
type Catalog struct {
	root string
}

// StoredFile is one file found in the catalog.
type StoredFile struct {
	Path    string
	Name    string
	ModTime time.Time
}

func New(root string) (*Catalog, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload root %s: %w", root, err)
	}
	return &Catalog{root: root}, nil
}

func (c *Catalog) Root() string {
	return c.root
}

// NewSessionID builds an upload session identifier: a sortable timestamp
// prefix plus a short random suffix.
func NewSessionID() string {
	return time.Now().Format("20060102_150405_") + uuid.NewString()[:8]
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SecureFilename strips path components and replaces characters that are
// unsafe in filesystem names.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "upload"
	}
	return name
}

// SaveUpload writes an uploaded file into a session directory and returns
// its stored path.
func (c *Catalog) SaveUpload(dept domain.Department, sessionID, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(c.root, string(dept), sessionID)
	return c.save(dir, filename, r)
}

// SaveDirect writes a file straight into the department directory, skipping
// the session layer.
func (c *Catalog) SaveDirect(dept domain.Department, filename string, r io.Reader) (string, error) {
	return c.save(filepath.Join(c.root, string(dept)), filename, r)
}

func (c *Catalog) save(dir, filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, SecureFilename(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Locate resolves a file identifier to a stored path. The chain, in
// priority order: the direct department path, an exact-name walk of the
// department subtree, the upload root itself, a partial-name walk, and
// finally a session-directory name match. Identifiers without an extension
// get ".csv" appended for the direct checks.
func (c *Catalog) Locate(dept domain.Department, fileID string) (string, error) {
	candidates := []string{fileID}
	if filepath.Ext(fileID) == "" {
		candidates = append(candidates, fileID+".csv")
	}

	deptDir := filepath.Join(c.root, string(dept))

	for _, name := range candidates {
		direct := filepath.Join(deptDir, name)
		if fileExists(direct) {
			return direct, nil
		}
	}

	if path := walkFor(deptDir, func(name string) bool {
		for _, cand := range candidates {
			if name == cand {
				return true
			}
		}
		return false
	}); path != "" {
		return path, nil
	}

	for _, name := range candidates {
		rootPath := filepath.Join(c.root, name)
		if fileExists(rootPath) {
			return rootPath, nil
		}
	}

	if path := walkFor(deptDir, func(name string) bool {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		return strings.Contains(name, fileID) || strings.Contains(fileID, stem)
	}); path != "" {
		return path, nil
	}

	// Identifiers shaped like "{name}_{session_id}" point at a session
	// directory; any tabular file inside it satisfies the lookup.
	if parts := strings.SplitN(fileID, "_", 2); len(parts) == 2 {
		if files := c.SessionFiles(dept, parts[1]); len(files) > 0 {
			return files[0].Path, nil
		}
	}

	return "", fmt.Errorf("%w: %q in department %q", domain.ErrNotFound, fileID, dept)
}

// SessionFiles lists the tabular files of one upload session.
func (c *Catalog) SessionFiles(dept domain.Department, sessionID string) []StoredFile {
	dir := filepath.Join(c.root, string(dept), sessionID)
	return listTabular(dir)
}

// DepartmentFiles lists every tabular file stored for a department, newest
// first.
func (c *Catalog) DepartmentFiles(dept domain.Department) []StoredFile {
	var files []StoredFile
	deptDir := filepath.Join(c.root, string(dept))
	_ = filepath.WalkDir(deptDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !tabularName(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, StoredFile{Path: path, Name: d.Name(), ModTime: info.ModTime()})
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files
}

// Departments lists departments that have at least one stored file.
func (c *Catalog) Departments() []domain.Department {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil
	}
	var depts []domain.Department
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if len(c.DepartmentFiles(domain.Department(e.Name()))) > 0 {
			depts = append(depts, domain.Department(e.Name()))
		}
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i] < depts[j] })
	return depts
}

func listTabular(dir string) []StoredFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []StoredFile
	for _, e := range entries {
		if e.IsDir() || !tabularName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			Path:    filepath.Join(dir, e.Name()),
			Name:    e.Name(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

func tabularName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".xlsx", ".xls":
		return true
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func walkFor(dir string, match func(name string) bool) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return nil
		}
		if tabularName(d.Name()) && match(d.Name()) {
			found = path
		}
		return nil
	})
	return found
}
