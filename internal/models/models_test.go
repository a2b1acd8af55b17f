package models

import (
	"testing"
	"time"
)

func TestNewPaginationInfo(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		pageSize   int
		totalCount int
		wantPages  int
		wantNext   bool
		wantPrev   bool
	}{
		{"empty", 1, 10, 0, 1, false, false},
		{"single page", 1, 10, 7, 1, false, false},
		{"exact fit", 1, 10, 20, 2, true, false},
		{"remainder gets own page", 2, 10, 15, 2, false, true},
		{"middle page", 2, 10, 35, 4, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginationInfo(tt.page, tt.pageSize, tt.totalCount)
			if p.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.HasNext != tt.wantNext {
				t.Errorf("HasNext = %v, want %v", p.HasNext, tt.wantNext)
			}
			if p.HasPrev != tt.wantPrev {
				t.Errorf("HasPrev = %v, want %v", p.HasPrev, tt.wantPrev)
			}
		})
	}
}

func TestPaginationCeilDivision(t *testing.T) {
	// Total pages must always be ceil(totalCount / pageSize)
	for totalCount := 0; totalCount <= 55; totalCount++ {
		p := NewPaginationInfo(1, 10, totalCount)
		want := (totalCount + 9) / 10
		if want == 0 {
			want = 1
		}
		if p.TotalPages != want {
			t.Fatalf("totalCount=%d: TotalPages = %d, want %d", totalCount, p.TotalPages, want)
		}
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		totalCount int
		want       int
	}{
		{"zero page", 0, 30, 1},
		{"negative page", -5, 30, 1},
		{"valid page", 2, 30, 2},
		{"past the end", 99, 30, 3},
		{"empty set", 5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPage(tt.page, 10, tt.totalCount); got != tt.want {
				t.Errorf("ClampPage(%d, 10, %d) = %d, want %d", tt.page, tt.totalCount, got, tt.want)
			}
		})
	}
}

func TestIsEdited(t *testing.T) {
	post := &Post{}
	if post.IsEdited() {
		t.Error("new post should not be edited")
	}

	now := time.Now()
	post.EditedAt = &now
	if !post.IsEdited() {
		t.Error("post with EditedAt should be edited")
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"trims whitespace", "  hello  ", "hello"},
		{"normalizes crlf", "line1\r\nline2", "line1\nline2"},
		{"keeps unicode", "héllo wörld", "héllo wörld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTextLatin1Fallback(t *testing.T) {
	// 0xE9 is é in ISO-8859-1 and invalid UTF-8 on its own
	input := "caf" + string([]byte{0xE9})
	got := NormalizeText(input)
	if got != "café" {
		t.Errorf("NormalizeText latin1 fallback = %q, want %q", got, "café")
	}
}
