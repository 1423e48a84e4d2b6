package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one source file from the knowledge folder.
type Document struct {
	Name    string
	Content string
}

var loadableExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
}

// LoadDocuments reads every supported document in the folder. A missing
// folder is an error the caller treats as startup-fatal; unreadable
// individual files are skipped and reported.
func LoadDocuments(path string) ([]Document, []error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, []error{fmt.Errorf("read docs folder: %w", err)}
	}

	var docs []Document
	var problems []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := loadableExtensions[ext]; !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(path, entry.Name()))
		if err != nil {
			problems = append(problems, fmt.Errorf("read %s: %w", entry.Name(), err))
			continue
		}
		content := strings.TrimSpace(string(data))
		if content == "" {
			continue
		}
		docs = append(docs, Document{Name: entry.Name(), Content: content})
	}
	return docs, problems
}
