package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/internal/domain/faults"
	"github.com/clinicore/docrag/pkg/logger_i"
)

type MediaKind string

const (
	KindPDF   MediaKind = "pdf"
	KindDocx  MediaKind = "docx" // docx, odt, rtf and plaintext share one extractor
	KindImage MediaKind = "image"
)

type Page struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// OCRClient recovers text from scanned input. Confidence is the mean
// word confidence in [0, 100].
type OCRClient interface {
	ExtractText(ctx context.Context, path string) (text string, confidence float64, err error)
}

// ResolveKind maps an upload to an extractor. The declared media type
// wins; the file extension is the tie-breaker for generic types like
// application/octet-stream.
func ResolveKind(fileName, mediaType string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0])) {
	case "application/pdf":
		return KindPDF, nil
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.oasis.opendocument.text",
		"application/rtf", "text/rtf",
		"text/plain", "text/markdown":
		return KindDocx, nil
	case "image/png", "image/jpeg", "image/tiff":
		return KindImage, nil
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return KindPDF, nil
	case ".docx", ".odt", ".rtf", ".txt", ".md":
		return KindDocx, nil
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return KindImage, nil
	}
	return "", faults.Newf(faults.UnsupportedMediaType, "no extractor for %q (%s)", fileName, mediaType)
}

// Extractor turns an uploaded file into pages of plain text. The OCR
// client is optional; without it image uploads fail and scanned
// documents come back empty.
type Extractor struct {
	ocr    OCRClient
	logger *logger_i.Logger
}

func NewExtractor(ocr OCRClient) *Extractor {
	return &Extractor{
		ocr:    ocr,
		logger: logger_i.NewLogger("Extractor"),
	}
}

func (e *Extractor) Text(ctx context.Context, path, fileName, mediaType string) ([]Page, error) {
	kind, err := ResolveKind(fileName, mediaType)
	if err != nil {
		return nil, err
	}
	log := e.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "file", fileName, "kind", kind)

	var pages []Page
	switch kind {
	case KindPDF:
		pages, err = extractPDF(path, log)
	case KindDocx:
		pages, err = extractDocxTxtRtf(path)
	case KindImage:
		return e.runOCR(ctx, path, log)
	}
	if err != nil {
		return nil, faults.Wrap(faults.IngestionFailed, "extracting text", err)
	}

	if !hasText(pages) {
		// Likely a scanned document. One OCR pass before giving up.
		log.Warn("extraction yielded no text, attempting OCR fallback")
		return e.runOCR(ctx, path, log)
	}
	return pages, nil
}

func (e *Extractor) runOCR(ctx context.Context, path string, log *logger_i.Logger) ([]Page, error) {
	if e.ocr == nil {
		return nil, faults.New(faults.IngestionFailed, "document has no extractable text and OCR is not configured")
	}

	text, confidence, err := e.ocr.ExtractText(ctx, path)
	if err != nil {
		return nil, faults.Wrap(faults.IngestionFailed, "ocr extraction", err)
	}
	log.Info("OCR extraction finished", "confidence", confidence)

	if confidence < config.OCRMinConfidence {
		return nil, faults.Newf(faults.IngestionFailed, "ocr confidence %.1f below threshold %.1f", confidence, config.OCRMinConfidence)
	}
	if strings.TrimSpace(text) == "" {
		return nil, faults.New(faults.IngestionFailed, "document has no extractable text")
	}
	return []Page{{Number: 1, Content: text}}, nil
}

func hasText(pages []Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Content) != "" {
			return true
		}
	}
	return false
}
