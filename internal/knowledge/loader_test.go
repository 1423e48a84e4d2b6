package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDocuments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"hours.txt":   "Open 9am to 8pm.",
		"fees.md":     "# Fees\n50 cents per day.",
		"notes.MD":    "Uppercase extension still counts.",
		"binary.docx": "not supported",
		"blank.txt":   "\n\t  \n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir.txt"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	docs, problems := LoadDocuments(dir)
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	got := map[string]string{}
	for _, doc := range docs {
		got[doc.Name] = doc.Content
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 documents, got %d: %v", len(got), got)
	}
	if got["hours.txt"] != "Open 9am to 8pm." {
		t.Fatalf("content not preserved: %q", got["hours.txt"])
	}
	if _, ok := got["notes.MD"]; !ok {
		t.Fatal("extension match must be case insensitive")
	}
	if _, ok := got["binary.docx"]; ok {
		t.Fatal("unsupported extension must be skipped")
	}
	if _, ok := got["blank.txt"]; ok {
		t.Fatal("whitespace-only files must be skipped")
	}
}

func TestLoadDocumentsMissingFolder(t *testing.T) {
	t.Parallel()

	docs, problems := LoadDocuments(filepath.Join(t.TempDir(), "nope"))
	if docs != nil {
		t.Fatalf("expected no documents, got %v", docs)
	}
	if len(problems) != 1 {
		t.Fatalf("expected one problem, got %v", problems)
	}
}

func TestLoadDocumentsTrimsContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "padded.txt"), []byte("\n  hello  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	docs, _ := LoadDocuments(dir)
	if len(docs) != 1 || docs[0].Content != "hello" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}
