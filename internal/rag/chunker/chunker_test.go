package chunker

import (
	"strings"
	"testing"

	"github.com/clinicore/docrag/internal/domain/faults"
)

func TestSplit_Contiguity(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50) // 500 runes
	chunkSize, overlap := 120, 30

	segments, err := Split(text, chunkSize, overlap)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(segments) == 0 {
		t.Fatal("expected segments, got none")
	}

	runes := []rune(text)
	stride := chunkSize - overlap
	for i, seg := range segments {
		if seg.Start != i*stride {
			t.Errorf("segment %d start = %d, want %d", i, seg.Start, i*stride)
		}
		if string(runes[seg.Start:seg.End]) != seg.Content {
			t.Errorf("segment %d content does not match its offsets", i)
		}
		if i > 0 {
			prev := segments[i-1]
			sharedPrev := string(runes[seg.Start:prev.End])
			sharedHead := seg.Content[:len(sharedPrev)]
			if sharedPrev != sharedHead {
				t.Errorf("segment %d does not share %d runes with its predecessor", i, overlap)
			}
		}
	}

	last := segments[len(segments)-1]
	if last.End != len(runes) {
		t.Errorf("final segment ends at %d, want %d", last.End, len(runes))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("the vitamin D deficiency protocol requires weekly review. ", 40)

	first, err := Split(text, 200, 50)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	second, err := Split(text, 200, 50)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("segment counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("segment %d differs between identical calls", i)
		}
	}
}

func TestSplit_ShortInput(t *testing.T) {
	segments, err := Split("short", 1000, 200)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Content != "short" || segments[0].Start != 0 || segments[0].End != 5 {
		t.Errorf("unexpected segment: %+v", segments[0])
	}
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t  \n"} {
		segments, err := Split(input, 100, 10)
		if err != nil {
			t.Errorf("Split(%q) returned error: %v", input, err)
		}
		if len(segments) != 0 {
			t.Errorf("Split(%q) returned %d segments, want 0", input, len(segments))
		}
	}
}

func TestSplit_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
		{"zero chunk size", 0, 0},
		{"negative overlap", 100, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.chunkSize, tt.overlap)
			if !faults.IsKind(err, faults.InvalidConfiguration) {
				t.Errorf("expected InvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestSplit_FinalShortSegmentKept(t *testing.T) {
	// 10 runes, chunkSize 8, overlap 4 -> stride 4: [0,8) [4,10)
	segments, err := Split("0123456789", 8, 4)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[1].Content != "456789" {
		t.Errorf("final segment = %q, want %q", segments[1].Content, "456789")
	}
}
