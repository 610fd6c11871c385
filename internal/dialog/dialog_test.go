package dialog

import (
	"errors"
	"strings"
	"testing"

	"keybrame/internal/media"
)

func TestImageFilterMatchesLibrary(t *testing.T) {
	for _, p := range ImageFilter.Patterns {
		name := "x" + strings.TrimPrefix(p, "*")
		if !media.IsImage(name) {
			t.Errorf("filter pattern %q not accepted by the library", p)
		}
	}
}

func TestImportResult(t *testing.T) {
	tests := []struct {
		imported []string
		failed   map[string]error
		want     string
	}{
		{nil, nil, "No images imported."},
		{[]string{"a.png"}, nil, "Imported a.png."},
		{[]string{"a.png", "b.gif"}, nil, "Imported 2 images: a.png, b.gif."},
		{nil, map[string]error{"/tmp/c.txt": errors.New("invalid file name")}, "No images imported.\n/tmp/c.txt: invalid file name"},
	}
	for _, tt := range tests {
		if got := ImportResult(tt.imported, tt.failed); got != tt.want {
			t.Errorf("ImportResult(%v, %v) = %q, want %q", tt.imported, tt.failed, got, tt.want)
		}
	}
}
