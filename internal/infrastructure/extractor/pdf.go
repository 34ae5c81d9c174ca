package extractor

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

func extractPDF(path string) (text string, err error) {
	// The pdf library panics on malformed xref tables; a bad upload must
	// not take down the request.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plain text: %w", err)
	}

	raw, err := io.ReadAll(io.LimitReader(plain, int64(4*extractCharLimit)))
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(raw), nil
}
