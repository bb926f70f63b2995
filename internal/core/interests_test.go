package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeInterests(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		maxCount int
		maxLen   int
		want     []string
	}{
		{"nil", nil, 10, 32, nil},
		{"only blanks", []string{"", "  "}, 10, 32, nil},
		{"trim and fold", []string{"  Music ", "CHESS"}, 10, 32, []string{"music", "chess"}},
		{"dedupe keeps first", []string{"go", "Go", "rust", "GO"}, 10, 32, []string{"go", "rust"}},
		{"count cap", []string{"a", "b", "c"}, 2, 32, []string{"a", "b"}},
		{"length cap in runes", []string{"ééééé"}, 10, 3, []string{"ééé"}},
		{"invalid utf-8 dropped", []string{"mu\xffsic", "chess"}, 10, 32, []string{"chess"}},
		{"unlimited", []string{strings.Repeat("x", 40)}, 0, 0, []string{strings.Repeat("x", 40)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeInterests(tt.raw, tt.maxCount, tt.maxLen))
		})
	}
}

func TestSharedInterests(t *testing.T) {
	assert.Equal(t, []string{"music", "films"}, SharedInterests([]string{"music", "golf", "films"}, []string{"Films", "MUSIC"}))
	assert.Nil(t, SharedInterests([]string{"music"}, []string{"chess"}))
	assert.Nil(t, SharedInterests(nil, []string{"chess"}))
}
