package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectDocType(t *testing.T) {
	tests := []struct {
		path string
		want DocType
	}{
		{"report.pdf", PDF},
		{"Report.PDF", PDF},
		{"notes.docx", DOCX},
		{"notes.txt", DOCX},
		{"notes.rtf", DOCX},
		{"notes.odt", DOCX},
		{"image.png", ERR},
		{"noextension", ERR},
	}
	for _, tt := range tests {
		if got := DetectDocType(tt.path); got != tt.want {
			t.Errorf("DetectDocType(%q) = %v; want %v", tt.path, got, tt.want)
		}
	}
}

func TestFileText_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	content := "First line of the document.\nSecond line with more words."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := FileText(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "First line") || !strings.Contains(text, "Second line") {
		t.Errorf("extracted text lost content: %q", text)
	}
}

func TestFileText_UnsupportedExtension(t *testing.T) {
	if _, err := FileText("diagram.png"); err == nil {
		t.Error("expected error for unsupported file type")
	}
}

func TestFileText_MissingFile(t *testing.T) {
	if _, err := FileText(filepath.Join(t.TempDir(), "gone.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}
