// Package ingestion turns uploaded resumes into structured candidate data.
package ingestion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// minTextRunes is the shortest text layer taken as a real one. Scanned
// resumes often carry only page numbers or a watermark.
const minTextRunes = 20

var ErrUnsupported = errors.New("unsupported file type")

// ExtractText returns the text of a resume file, reading the PDF text layer
// first and falling back to OCR for scanned documents and images.
func ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case ".pdf":
		text, err := ExtractTextFromPDF(path)
		if err == nil && utf8.RuneCountInString(strings.TrimSpace(text)) >= minTextRunes {
			return text, nil
		}
		ocr, ocrErr := ExtractTextWithOCR(path)
		if ocrErr != nil && err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		return ocr, ocrErr
	case ".png", ".jpg", ".jpeg":
		return ExtractTextWithOCR(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}
