package kb

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/crestdesk/crestdesk/core"
)

// ExtractText pulls plain text out of a stored source file. PDF files go
// through the PDF text extractor; everything else is treated as UTF-8
// text with invalid sequences dropped.
func ExtractText(path, filename, mimeType string, data []byte) (string, error) {
	if isPDF(filename, mimeType) {
		return extractPDF(path)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// isPDF detects PDFs by declared mime type or file extension.
func isPDF(filename, mimeType string) bool {
	if strings.EqualFold(mimeType, "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// extractPDF extracts the plain text of every page of a PDF file.
func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", core.WrapFault(core.FaultInput, "cannot parse PDF file", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", core.WrapFault(core.FaultInput, "cannot extract PDF text", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
