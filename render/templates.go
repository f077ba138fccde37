package render

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListTemplates returns the .html files in dir, sorted alphabetically. A
// missing directory yields an empty list.
func ListTemplates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(e.Name())) == ".html" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadTemplate returns the source text of a template. The name is reduced to
// its base so callers cannot escape the template directory.
func ReadTemplate(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(name)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveTemplate writes template source text, creating or overwriting the file.
func SaveTemplate(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, filepath.Base(name)), []byte(content), 0o644)
}
