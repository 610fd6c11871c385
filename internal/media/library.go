// Package media manages the overlay's image assets directory.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// AssetPrefix is the URL prefix under which assets are referenced by
// bindings and served to the overlay.
const AssetPrefix = "assets/"

var (
	// ErrNotFound is returned when an asset does not exist
	ErrNotFound = errors.New("image not found")

	// ErrInvalidName is returned for names that escape the assets directory
	// or have an unsupported extension
	ErrInvalidName = errors.New("invalid image name")
)

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".svg":  true,
}

// IsImage reports whether name has a supported image extension
func IsImage(name string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(name))]
}

// Image describes one file in the library.
type Image struct {
	Path     string `json:"path"` // reference form, "assets/<file>"
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Duration *int   `json:"duration"` // GIF only, milliseconds
}

// Library is a flat directory of image files.
type Library struct {
	dir string
}

// NewLibrary creates a library rooted at dir, creating it if needed
func NewLibrary(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets dir: %w", err)
	}
	return &Library{dir: dir}, nil
}

// Dir returns the library root
func (l *Library) Dir() string {
	return l.dir
}

// Name strips the "assets/" prefix from an image reference and validates the
// remaining file name.
func Name(ref string) (string, error) {
	name := strings.TrimPrefix(strings.TrimPrefix(ref, "/"), AssetPrefix)
	if name == "" || name == "." || strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, ref)
	}
	return name, nil
}

// Ref returns the reference form of a file name
func Ref(name string) string {
	return AssetPrefix + name
}

// Path resolves an image reference to a file path inside the library
func (l *Library) Path(ref string) (string, error) {
	name, err := Name(ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.dir, name), nil
}

// Exists reports whether ref names a regular file in the library
func (l *Library) Exists(ref string) bool {
	p, err := l.Path(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Duration returns the total animation time of a GIF reference, 0 for
// anything else.
func (l *Library) Duration(ref string) (int, error) {
	if !strings.EqualFold(filepath.Ext(ref), ".gif") {
		return 0, nil
	}
	p, err := l.Path(ref)
	if err != nil {
		return 0, err
	}
	return GIFDuration(p)
}

// List returns the images in the library sorted by file name
func (l *Library) List() ([]Image, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Image{}, nil
		}
		return nil, fmt.Errorf("failed to read assets dir: %w", err)
	}

	images := make([]Image, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsImage(e.Name()) {
			continue
		}
		img, err := l.describe(e.Name())
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	sort.Slice(images, func(i, j int) bool {
		return strings.ToLower(images[i].Filename) < strings.ToLower(images[j].Filename)
	})
	return images, nil
}

// Save writes r under name. An existing file is never overwritten: on a
// collision a short random suffix is added.
func (l *Library) Save(name string, r io.Reader) (Image, error) {
	name = filepath.Base(name)
	if _, err := Name(name); err != nil || !IsImage(name) {
		return Image{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	p := filepath.Join(l.dir, name)
	if _, err := os.Stat(p); err == nil {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s_%s%s", strings.TrimSuffix(name, ext), uuid.NewString()[:8], ext)
		p = filepath.Join(l.dir, name)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return Image{}, fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return Image{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return Image{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return l.describe(name)
}

// Import copies an image from anywhere on disk into the library
func (l *Library) Import(src string) (Image, error) {
	f, err := os.Open(src)
	if err != nil {
		return Image{}, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()
	return l.Save(filepath.Base(src), f)
}

// Delete removes the file named by ref
func (l *Library) Delete(ref string) error {
	p, err := l.Path(ref)
	if err != nil {
		return err
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a file", ErrInvalidName)
	}
	return os.Remove(p)
}

func (l *Library) describe(name string) (Image, error) {
	info, err := os.Stat(filepath.Join(l.dir, name))
	if err != nil {
		return Image{}, err
	}
	ext := strings.ToLower(filepath.Ext(name))
	img := Image{
		Path:     Ref(name),
		Filename: name,
		Size:     info.Size(),
		Type:     strings.TrimPrefix(ext, "."),
	}
	if ext == ".gif" {
		d, _ := GIFDuration(filepath.Join(l.dir, name))
		img.Duration = &d
	}
	return img, nil
}
