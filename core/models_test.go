package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "campaign export",
			content:  `{"campaign_id":"120210","impressions":"18231","objective":"OUTCOME_LEADS"}`,
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestID_Hex(t *testing.T) {
	if got := ID(255).Hex(); got != "00000000000000ff" {
		t.Errorf("Hex() = %q, want %q", got, "00000000000000ff")
	}

	if got := IDFromContent("x").Hex(); len(got) != 16 {
		t.Errorf("Hex() length = %d, want 16", len(got))
	}
}
