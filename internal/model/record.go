// Package model defines the record, chunk, and audit types shared across the corpus pipeline.
package model

// SourceName identifies the external collection a record came from.
type SourceName string

// Record is one source document after assembly.
type Record struct {
	Text            string     `json:"text"`
	PublicationYear *int       `json:"publication_year,omitempty"`
	Identifier      string     `json:"identifier"`
	Source          SourceName `json:"source"`
	Title           string     `json:"title,omitempty"`
}

// HasYear reports whether the record carries a parsed publication year.
func (r Record) HasYear() bool {
	return r.PublicationYear != nil
}

// Year returns the publication year, or 0 when unknown.
func (r Record) Year() int {
	if r.PublicationYear == nil {
		return 0
	}
	return *r.PublicationYear
}

// YearPtr returns a pointer to a copy of y.
func YearPtr(y int) *int {
	return &y
}
