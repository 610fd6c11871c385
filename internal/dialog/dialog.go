// Package dialog wraps the native dialogs opened from the tray.
package dialog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ncruces/zenity"
)

// ImageFilter matches the file types the assets library accepts
var ImageFilter = zenity.FileFilter{
	Name:     "Images",
	Patterns: []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.bmp", "*.svg"},
}

// PickImages asks for one or more image files. A cancelled dialog returns
// no paths and no error.
func PickImages() ([]string, error) {
	paths, err := zenity.SelectFileMultiple(
		zenity.Title("keybrame - Import images"),
		zenity.FileFilters{ImageFilter},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file dialog: %w", err)
	}
	return paths, nil
}

// ImportResult summarizes an import for the user
func ImportResult(imported []string, failed map[string]error) string {
	var b strings.Builder
	switch len(imported) {
	case 0:
		b.WriteString("No images imported.")
	case 1:
		fmt.Fprintf(&b, "Imported %s.", imported[0])
	default:
		fmt.Fprintf(&b, "Imported %d images: %s.", len(imported), strings.Join(imported, ", "))
	}
	for path, err := range failed {
		fmt.Fprintf(&b, "\n%s: %v", path, err)
	}
	return b.String()
}

// ShowInfo shows an information message
func ShowInfo(title, message string) {
	if err := zenity.Info(message, zenity.Title(title)); err != nil && !errors.Is(err, zenity.ErrCanceled) {
		slog.Debug("[dialog] info dialog failed", "error", err)
	}
}

// ShowError shows an error message
func ShowError(title, message string) {
	if err := zenity.Error(message, zenity.Title(title)); err != nil && !errors.Is(err, zenity.ErrCanceled) {
		slog.Debug("[dialog] error dialog failed", "error", err)
	}
}
