package driven

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigInt(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int
		wantOK bool
	}{
		{"int", 5, 5, true},
		{"int64 from toml", int64(500), 500, true},
		{"int32", int32(3), 3, true},
		{"whole float from json", 50.0, 50, true},
		{"fraction", 0.5, 0, false},
		{"quoted", " 800 ", 800, true},
		{"word", "five", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConfigInt(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
