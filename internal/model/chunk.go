package model

// Chunk is a contiguous word window over a record's text. The parent is
// referenced by identifier only.
type Chunk struct {
	ParentID   string `json:"parent_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}
