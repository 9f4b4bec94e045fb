package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/kingcader/personal-assistant-ai-sub002/pkg/logger_i"
)

// DocType identifies the extraction path for an uploaded file.
type DocType string

const (
	PDF  DocType = "pdf"
	DOCX DocType = "docx"
	ERR  DocType = "unsupported"
)

var logger = logger_i.NewLogger("file extraction")

// DetectDocType maps a file extension to the extraction path. docx, txt,
// odt and rtf all go through the same reader.
func DetectDocType(docPath string) DocType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return PDF
	case ".docx", ".txt", ".rtf", ".odt":
		return DOCX
	default:
		return ERR
	}
}

// FileText extracts all text from a local file as one string. Page breaks
// become blank lines so the chunker treats them as paragraph boundaries.
// Reader exposes file extraction behind an interface for wiring.
type Reader struct{}

func (Reader) FileText(path string) (string, error) {
	return FileText(path)
}

func FileText(path string) (string, error) {
	switch DetectDocType(path) {
	case PDF:
		return extractPDF(path)
	case DOCX:
		return extractDocxTxtRtf(path)
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	logger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file", "path", path)
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			//a broken page should not sink the whole document
			logger.Error("error parsing page content", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, content)
	}

	if len(pages) == 0 {
		return "", errors.New("no extractable text in pdf")
	}
	return strings.Join(pages, "\n\n"), nil
}

// reads a .odt, .docx, .rtf or plaintext file and returns the content
func extractDocxTxtRtf(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("error extracting content from doc", "path", path)
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

// protectExtract runs a single page extraction with a timeout guard. The pdf
// library can hang on malformed pages.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		logger.Error("pageExtract", "timeout", true)
		return "", errors.New("timeout")
	}
}
