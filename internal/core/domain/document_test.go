package domain

import "testing"

func TestDocument_PageFor(t *testing.T) {
	doc := &Document{
		FullText: "page one text page two text page three text",
		Pages: []Page{
			{Number: 1, StartOffset: 0},
			{Number: 2, StartOffset: 14},
			{Number: 3, StartOffset: 28},
		},
	}

	tests := []struct {
		offset int
		want   int
	}{
		{0, 1},
		{13, 1},
		{14, 2},
		{27, 2},
		{28, 3},
		{999, 3},
	}
	for _, tt := range tests {
		if got := doc.PageFor(tt.offset); got != tt.want {
			t.Errorf("PageFor(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestDocument_PageFor_NoPages(t *testing.T) {
	doc := &Document{FullText: "no page boundaries"}
	if got := doc.PageFor(5); got != 1 {
		t.Errorf("PageFor without pages = %d, want 1", got)
	}
}
