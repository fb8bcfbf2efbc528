package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/clinicore/docrag/internal/config"
	"github.com/clinicore/docrag/pkg/logger_i"
)

func extractPDF(path string, log *logger_i.Logger) ([]Page, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []Page
	numPages := f.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page, log)
		if err != nil {
			// A broken page should not sink the whole document.
			log.Warn("skipping unparseable page", "page", i, "error", err)
			continue
		}

		pages = append(pages, Page{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// File reads a .odt, .docx, .rtf or plaintext file and returns the
// content as a single page.
func extractDocxTxtRtf(path string) ([]Page, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}
	return []Page{
		{
			Number:  1,
			Content: text,
		},
	}, nil
}

// protectExtract isolates GetPlainText, which can hang on malformed
// pages, behind a timeout.
func protectExtract(page pdf.Page, log *logger_i.Logger) (string, error) {
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
	case <-time.After(config.PDFPageExtractTimeout):
		log.Error("pageExtract", "timeout", config.PDFPageExtractTimeout)
		return "", errors.New("timeout")
	}
}
