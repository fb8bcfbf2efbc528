package chunker

import (
	"strings"

	"github.com/clinicore/docrag/internal/domain/faults"
)

// Segment is one fixed-size slice of the input text. Offsets are rune
// positions into the original string, end exclusive.
type Segment struct {
	Content string
	Start   int
	End     int
}

// Split cuts text into overlapping segments of at most chunkSize
// runes. Each segment after the first starts chunkSize-overlap runes
// after the previous one, so consecutive segments share exactly
// overlap runes. The final segment may be shorter and is kept as long
// as it is non-empty. Whitespace-only input yields no segments.
//
// Split is pure: same input, same output, no side effects.
func Split(text string, chunkSize, overlap int) ([]Segment, error) {
	if chunkSize <= 0 {
		return nil, faults.Newf(faults.InvalidConfiguration, "chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, faults.Newf(faults.InvalidConfiguration, "overlap must not be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, faults.Newf(faults.InvalidConfiguration, "overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	stride := chunkSize - overlap

	var segments []Segment
	for start := 0; start < len(runes); start += stride {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, Segment{
			Content: string(runes[start:end]),
			Start:   start,
			End:     end,
		})
		if end == len(runes) {
			break
		}
	}
	return segments, nil
}
