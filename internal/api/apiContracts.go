package api

import "time"

type DocumentResponse struct {
	Id             string    `json:"id" example:"ce0b3a1e-4b3f-4e5d-9d0a-0a4b7c2f9d11"`
	TenantId       string    `json:"tenant_id" example:"clinic-nl-001"`
	Category       string    `json:"category" example:"phytotherapy"`
	FileName       string    `json:"file_name" example:"ashwagandha-monograph.pdf"`
	FileSize       int64     `json:"file_size"`
	MediaType      string    `json:"media_type" example:"application/pdf"`
	Status         string    `json:"status" example:"completed"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	ChunkCount     int       `json:"chunk_count"`
	AvgChunkSize   int       `json:"avg_chunk_size"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	ProcessingMS   int64     `json:"processing_ms"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type IngestAcceptedResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type DocumentListResponse struct {
	Documents  []DocumentResponse `json:"documents"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

type SearchMatch struct {
	Content     string  `json:"content"`
	DocumentId  string  `json:"document_id"`
	ChunkIndex  int     `json:"chunk_index"`
	Score       float64 `json:"score"`
	Category    string  `json:"category"`
	PageNum     int     `json:"page_num,omitempty"`
	StartOffset int     `json:"start_offset"`
	EndOffset   int     `json:"end_offset"`
}

type SearchResponse struct {
	Query   string        `json:"query"`
	Matches []SearchMatch `json:"matches"`
	Count   int           `json:"count"`
}

type StatsResponse struct {
	TotalDocuments int            `json:"total_documents"`
	ByStatus       map[string]int `json:"by_status"`
	ByCategory     map[string]int `json:"by_category"`
	TotalChunks    int            `json:"total_chunks"`
}

type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Kind    string `json:"kind,omitempty" example:"invalid_parameter"`
	Message string `json:"message" example:"tenant id is required"`
	Retry   bool   `json:"can_retry" example:"false"`
}

// requests---------------------

type SearchRequest struct {
	Query     string   `json:"query" validate:"required"`
	Category  string   `json:"category,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}
