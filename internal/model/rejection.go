package model

// RejectionSample is a record excluded by the anachronism filter and kept for audit.
type RejectionSample struct {
	Identifier      string
	PublicationYear *int
	Title           string
	MatchedTerm     *string
	MatchOffset     int
	Snippet         string
}

// AuditEntry is the on-disk NDJSON form of a rejection sample.
type AuditEntry struct {
	PublicationDate *int    `json:"publication_date"`
	ShortBookTitle  string  `json:"short_book_title"`
	Match           *string `json:"match"`
	Snippet         string  `json:"snippet"`
}
