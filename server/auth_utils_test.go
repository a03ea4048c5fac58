package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		file        string
		want        string
	}{
		{"plain", "attachment", "report.pdf", `attachment; filename="report.pdf"`},
		{"empty name", "attachment", "", `attachment; filename="attachment"`},
		{"quote and backslash", "inline", `a"b\.txt`, `inline; filename="a_b_.txt"; filename*=UTF-8''a%22b%5C.txt`},
		{"non ascii", "attachment", "日本.txt", `attachment; filename="__.txt"; filename*=UTF-8''%E6%97%A5%E6%9C%AC.txt`},
		{"control character", "attachment", "a\tb.txt", `attachment; filename="a_b.txt"; filename*=UTF-8''a%09b.txt`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, contentDisposition(tt.disposition, tt.file))
		})
	}
}
