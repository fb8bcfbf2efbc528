package gosseractOCR

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/clinicore/docrag/pkg/logger_i"
)

// Client runs tesseract via gosseract. A fresh gosseract client is
// created per extraction because the underlying handle is not safe for
// concurrent use.
type Client struct {
	language string
	logger   *logger_i.Logger
}

func NewClient(language string) *Client {
	if language == "" {
		language = "eng"
	}
	return &Client{
		language: language,
		logger:   logger_i.NewLogger("Gosseract OCR"),
	}
}

func (c *Client) ExtractText(ctx context.Context, path string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(c.language); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", 0, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to get text: %w", err)
	}

	return text, c.meanConfidence(client, text), nil
}

// meanConfidence averages word-level confidences. Tesseract reports
// them in [0, 100].
func (c *Client) meanConfidence(client *gosseract.Client, text string) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		c.logger.Warn("failed to get bounding boxes", "error", err)
		return 0
	}
	if len(boxes) == 0 {
		return 0
	}

	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}
