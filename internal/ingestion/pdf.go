package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ExtractTextFromPDF reads the text layer of a PDF. It returns an empty
// string when the document has none.
func ExtractTextFromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		// pdftotext (poppler) copes with some encodings the pure Go reader does not
		if out, err := exec.Command("pdftotext", "-layout", path, "-").Output(); err == nil {
			return strings.TrimSpace(string(out)), nil
		}
	}
	return text, nil
}
