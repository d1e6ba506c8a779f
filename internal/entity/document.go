package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Document is one uploaded résumé, immutable once received.
type Document struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	MediaType  string    `json:"media_type"`
	Content    []byte    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewDocument stamps an ID and receive time on raw upload bytes.
func NewDocument(filename, mediaType string, content []byte) Document {
	return Document{
		ID:         uuid.New(),
		Filename:   filename,
		MediaType:  mediaType,
		Content:    content,
		ReceivedAt: time.Now().UTC(),
	}
}

// ContentHashHex returns the SHA-256 of the document bytes.
func (d Document) ContentHashHex() string {
	sum := sha256.Sum256(d.Content)
	return hex.EncodeToString(sum[:])
}

// Mode selects how much of a document the pipeline reads.
type Mode string

const (
	// ModeFull rasterizes every page, transcribes each, then extracts from the joined text.
	ModeFull Mode = "full"
	// ModeFast rasterizes the first page only and extracts directly from its image.
	ModeFast Mode = "fast"
)

// PageImage is one rasterized page. Index is 0-based.
type PageImage struct {
	Index     int    `json:"index"`
	Data      []byte `json:"-"`
	MediaType string `json:"media_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	DPI       int    `json:"dpi"`
}

// PageTranscript is the markdown text read from one page. Text is "" for empty or degraded pages.
type PageTranscript struct {
	PageIndex int    `json:"page_index"`
	Text      string `json:"text"`
	Degraded  bool   `json:"degraded,omitempty"`
}

// ConsolidatedDocument is every page transcript joined in page order.
type ConsolidatedDocument struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}
