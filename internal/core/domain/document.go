package domain

import "time"

// Document is a project document as provided by the document-discovery
// collaborator. The review core only reads FullText and the page offsets
// needed for citation; discovery, classification and text extraction happen
// upstream.
type Document struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	DisplayName string    `json:"display_name"`
	FullText    string    `json:"full_text"`
	Pages       []Page    `json:"pages,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Page records where a page starts inside FullText.
type Page struct {
	Number      int `json:"number"`
	StartOffset int `json:"start_offset"`
}

// PageFor maps a character offset in FullText to a page number for citation.
// Returns 1 when no page boundaries are known.
func (d *Document) PageFor(offset int) int {
	if len(d.Pages) == 0 {
		return 1
	}
	page := d.Pages[0].Number
	for _, p := range d.Pages {
		if p.StartOffset > offset {
			break
		}
		page = p.Number
	}
	return page
}

// DocumentRelevance is the mapper's judgment of how useful a document is for
// a requirement. A nonzero score always carries a reasoning string.
type DocumentRelevance struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"relevance_score"`
	Reasoning  string  `json:"reasoning"`
}
