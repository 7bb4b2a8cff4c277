package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Source kinds.
const (
	SourceText = "text"
	SourcePDF  = "pdf"
)

// Metadata describes where a piece of ingested text came from.
type Metadata struct {
	Source    string `json:"source,omitempty"` // File name or path
	Kind      string `json:"kind"`             // text or pdf
	Pages     int    `json:"pages,omitempty"`  // PDF page count
	Chars     int    `json:"chars"`            // Length of the cleaned text in runes
	Timestamp string `json:"timestamp"`        // RFC3339 format
	Hash      string `json:"hash"`             // SHA256 hex digest of the cleaned text
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(content, source, kind string, pages int) *Metadata {
	return &Metadata{
		Source:    source,
		Kind:      kind,
		Pages:     pages,
		Chars:     len([]rune(content)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
