// Package extractor converts stored intranet documents into bounded plain
// text for retrieval. Formats it cannot parse yield clearly-marked
// placeholders instead of failing the request.
package extractor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/workhub/intranet-assistant/internal/core/domain"
)

// extractCharLimit caps extracted text; huge files never block a request.
const extractCharLimit = 10000

var textExtensions = map[string]struct{}{
	"txt": {}, "md": {}, "json": {}, "csv": {}, "xml": {}, "html": {}, "css": {}, "js": {},
}

var officeExtensions = map[string]struct{}{
	"doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {},
}

type Extractor struct {
	uploadDir string
}

func New(uploadDir string) *Extractor {
	return &Extractor{uploadDir: uploadDir}
}

func (e *Extractor) Extract(_ context.Context, doc domain.Document) domain.Extraction {
	path, ok := e.resolvePath(doc.StoragePath)
	if !ok {
		return domain.Extraction{Status: domain.ExtractionMissing}
	}

	ext := strings.ToLower(strings.TrimPrefix(doc.Extension, "."))
	if ext == "" {
		ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	mime := strings.ToLower(doc.MimeType)

	switch {
	case strings.HasPrefix(mime, "text/") || hasKey(textExtensions, ext):
		text, err := readBounded(path)
		if err != nil {
			return domain.Extraction{Status: domain.ExtractionMissing, ResolvedPath: path}
		}
		return domain.Extraction{Status: domain.ExtractionOK, Text: text, ResolvedPath: path}

	case mime == "application/pdf" || ext == "pdf":
		text, err := extractPDF(path)
		if err != nil || strings.TrimSpace(text) == "" {
			return domain.Extraction{
				Status:       domain.ExtractionPlaceholder,
				Text:         fmt.Sprintf("[could not extract text from PDF document: %s]", doc.Name),
				ResolvedPath: path,
			}
		}
		return domain.Extraction{Status: domain.ExtractionOK, Text: truncateRunes(text, extractCharLimit), ResolvedPath: path}

	case strings.Contains(mime, "officedocument") || strings.Contains(mime, "msword") || hasKey(officeExtensions, ext):
		// Office parsing is a known limitation; the placeholder keeps the
		// document visible to the model without pretending to quote it.
		return domain.Extraction{
			Status:       domain.ExtractionPlaceholder,
			Text:         fmt.Sprintf("[content extracted from Office document: %s]", doc.Name),
			ResolvedPath: path,
		}

	default:
		detected := mime
		if detected == "" {
			detected = ext
		}
		if detected == "" {
			detected = "unknown"
		}
		return domain.Extraction{
			Status:       domain.ExtractionPlaceholder,
			Text:         fmt.Sprintf("[cannot extract text directly from this document type: %s (%s)]", doc.Name, detected),
			ResolvedPath: path,
		}
	}
}

// resolvePath tries the recorded path first, then a deterministic fallback
// chain; catalog paths go stale when the upload volume is relocated.
func (e *Extractor) resolvePath(recorded string) (string, bool) {
	recorded = strings.TrimSpace(recorded)
	if recorded == "" {
		return "", false
	}

	candidates := []string{recorded}
	if e.uploadDir != "" {
		candidates = append(candidates, filepath.Join(e.uploadDir, filepath.Base(recorded)))
	}
	if !filepath.IsAbs(recorded) {
		if wd, err := os.Getwd(); err == nil {
			candidates = append(candidates, filepath.Join(wd, recorded))
		}
	}
	if abs, err := filepath.Abs(recorded); err == nil {
		candidates = append(candidates, abs)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		resolved := filepath.Clean(candidate)
		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}
		return resolved, true
	}
	return "", false
}

func readBounded(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// UTF-8 runes are at most 4 bytes; reading 4x the char cap is always enough.
	raw, err := io.ReadAll(io.LimitReader(f, int64(4*extractCharLimit)))
	if err != nil {
		return "", err
	}
	return truncateRunes(string(raw), extractCharLimit), nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
