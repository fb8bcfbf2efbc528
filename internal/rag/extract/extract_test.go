package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinicore/docrag/internal/domain/faults"
)

type fakeOCR struct {
	text       string
	confidence float64
	err        error
	calls      int
}

func (f *fakeOCR) ExtractText(ctx context.Context, path string) (string, float64, error) {
	f.calls++
	return f.text, f.confidence, f.err
}

func TestResolveKind(t *testing.T) {
	tests := []struct {
		name      string
		fileName  string
		mediaType string
		want      MediaKind
		wantErr   bool
	}{
		{"pdf by media type", "scan.bin", "application/pdf", KindPDF, false},
		{"pdf by extension", "protocol.pdf", "application/octet-stream", KindPDF, false},
		{"docx by media type", "notes.bin", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", KindDocx, false},
		{"plaintext", "notes.txt", "text/plain", KindDocx, false},
		{"media type with charset", "notes.txt", "text/plain; charset=utf-8", KindDocx, false},
		{"image by extension", "scan.png", "", KindImage, false},
		{"spreadsheet rejected", "labs.xlsx", "application/vnd.ms-excel", "", true},
		{"unknown rejected", "data.zip", "application/zip", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveKind(tt.fileName, tt.mediaType)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got kind %q", got)
				}
				if !faults.IsKind(err, faults.UnsupportedMediaType) {
					t.Errorf("expected UnsupportedMediaType, got %v", faults.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestText_Plaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("Ashwagandha dosing for adrenal support."), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(nil)
	pages, err := e.Text(context.Background(), path, "notes.txt", "text/plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Content == "" {
		t.Error("expected page content")
	}
}

func TestText_OCRFallbackOnEmptyExtraction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.txt")
	if err := os.WriteFile(path, []byte("   \n\t  "), 0o644); err != nil {
		t.Fatal(err)
	}

	ocr := &fakeOCR{text: "recovered text", confidence: 88}
	e := NewExtractor(ocr)

	pages, err := e.Text(context.Background(), path, "scan.txt", "text/plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ocr.calls != 1 {
		t.Fatalf("expected 1 OCR call, got %d", ocr.calls)
	}
	if len(pages) != 1 || pages[0].Content != "recovered text" {
		t.Errorf("unexpected pages: %+v", pages)
	}
}

func TestText_OCRLowConfidenceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.txt")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	ocr := &fakeOCR{text: "garbage", confidence: 12}
	e := NewExtractor(ocr)

	_, err := e.Text(context.Background(), path, "scan.txt", "text/plain")
	if err == nil {
		t.Fatal("expected error for low confidence OCR")
	}
	if !faults.IsKind(err, faults.IngestionFailed) {
		t.Errorf("expected IngestionFailed, got %v", faults.KindOf(err))
	}
}

func TestText_NoOCRConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.txt")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(nil)
	_, err := e.Text(context.Background(), path, "scan.txt", "text/plain")
	if err == nil {
		t.Fatal("expected error when OCR is not configured")
	}
}
