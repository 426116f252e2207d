package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExtractSummary(t *testing.T) {
	long := strings.Repeat("word ", 60)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "problem statement section",
			content: "# App\n\nIntro line.\n\n## Problem Statement\nUsers lose track.\n\nThey churn.\n## Goals\nGrow.",
			want:    "Users lose track. They churn.",
		},
		{
			name:    "problem heading variant",
			content: "# App\n## Problem\nToo slow.\n## Next",
			want:    "Too slow.",
		},
		{
			name:    "first three non-heading lines",
			content: "# Title\n\nOne.\n## Sub\nTwo.\nThree.\nFour.",
			want:    "One. Two. Three.",
		},
		{
			name:    "headings only",
			content: "# Title\n## Sub\n",
			want:    "No summary available",
		},
		{
			name:    "empty",
			content: "",
			want:    "No summary available",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSummary(tt.content))
		})
	}

	t.Run("truncated", func(t *testing.T) {
		got := ExtractSummary("# T\n## Problem Statement\n" + long)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.Equal(t, 203, utf8.RuneCountInString(got))
	})
}

func TestTruncate_RuneSafe(t *testing.T) {
	assert.Equal(t, "héll…", truncate("héllo wörld", 4, "…"))
	assert.Equal(t, "short", truncate("short", 10, "..."))
}
