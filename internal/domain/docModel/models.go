package docModel

import "time"

// TenantGlobal is the reserved tenant whose completed documents are
// visible in every tenant's candidate set. It must be chosen
// explicitly by a privileged uploader, never defaulted into.
const TenantGlobal = "global"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// CanTransition enforces the forward-only lifecycle. The backward
// edges are the manual retry out of error and the reprocess reset out
// of completed.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusError
	case StatusCompleted:
		return to == StatusPending
	case StatusError:
		return to == StatusPending
	default:
		return false
	}
}

type Category string

const (
	CategoryClinicalProtocols Category = "clinical-protocols"
	CategoryTCM               Category = "tcm"
	CategoryPhytotherapy      Category = "phytotherapy"
	CategoryCourseTranscripts Category = "course-transcripts"
	CategoryLabReference      Category = "lab-reference"
	CategoryGeneral           Category = "general"
)

var categories = map[Category]bool{
	CategoryClinicalProtocols: true,
	CategoryTCM:               true,
	CategoryPhytotherapy:      true,
	CategoryCourseTranscripts: true,
	CategoryLabReference:      true,
	CategoryGeneral:           true,
}

func ValidCategory(c Category) bool {
	return categories[c]
}

// Document is one uploaded source file, exclusively owned by its
// tenant. Chunks exist if and only if Status is completed.
type Document struct {
	Id          string   `json:"id"`
	TenantId    string   `json:"tenant_id"`
	UploaderId  string   `json:"uploader_id"`
	Category    Category `json:"category"`
	FileName    string   `json:"file_name"`
	FileSize    int64    `json:"file_size"`
	MediaType   string   `json:"media_type"`
	ObjectKey   string   `json:"object_key"`
	ContentHash string   `json:"content_hash"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Retained so reprocessing can skip re-extraction.
	ExtractedText string `json:"extracted_text,omitempty"`

	ChunkCount     int    `json:"chunk_count"`
	AvgChunkSize   int    `json:"avg_chunk_size"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	ProcessingMS   int64  `json:"processing_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chunk is one retrievable unit of a document's text. Created only by
// the ingestion pipeline, immutable afterwards, deleted only together
// with its parent document.
type Chunk struct {
	Id          string    `json:"id"`
	DocumentId  string    `json:"document_id"`
	TenantId    string    `json:"tenant_id"`
	Category    Category  `json:"category"`
	Index       int       `json:"index"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	PageNum     int       `json:"page_num,omitempty"`
}
