package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGIF(t *testing.T, path string, delays ...int) {
	t.Helper()
	pal := color.Palette{color.Black, color.White}
	g := &gif.GIF{}
	for _, d := range delays {
		g.Image = append(g.Image, image.NewPaletted(image.Rect(0, 0, 2, 2), pal))
		g.Delay = append(g.Delay, d)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGIFDuration(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		delays []int
		want   int
	}{
		{"animated", []int{10, 20, 30}, 600},
		{"missing delays", []int{10, 0}, 200},
		{"single frame", []int{50}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(dir, tt.name+".gif")
			writeGIF(t, p, tt.delays...)
			got, err := GIFDuration(p)
			if err != nil {
				t.Fatalf("GIFDuration: %v", err)
			}
			if got != tt.want {
				t.Errorf("GIFDuration = %d, want %d", got, tt.want)
			}
		})
	}

	bad := filepath.Join(dir, "bad.gif")
	os.WriteFile(bad, []byte("not a gif"), 0644)
	if _, err := GIFDuration(bad); err == nil {
		t.Error("expected error for corrupt gif")
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"assets/a.png", "a.png", false},
		{"/assets/a.png", "a.png", false},
		{"a.png", "a.png", false},
		{"assets/../secret", "", true},
		{"assets/sub/a.png", "", true},
		{"", "", true},
		{"assets/", "", true},
	}
	for _, tt := range tests {
		got, err := Name(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("Name(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidName) {
			t.Errorf("Name(%q) error = %v, want ErrInvalidName", tt.ref, err)
		}
		if got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestLibrary(t *testing.T) {
	lib, err := NewLibrary(filepath.Join(t.TempDir(), "assets"))
	if err != nil {
		t.Fatal(err)
	}

	img, err := lib.Save("Logo.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if img.Path != "assets/Logo.png" || img.Type != "png" || img.Size != 9 || img.Duration != nil {
		t.Errorf("Save = %+v", img)
	}

	dup, err := lib.Save("Logo.png", strings.NewReader("other"))
	if err != nil {
		t.Fatalf("Save duplicate: %v", err)
	}
	if dup.Filename == "Logo.png" || !strings.HasPrefix(dup.Filename, "Logo_") || !strings.HasSuffix(dup.Filename, ".png") {
		t.Errorf("duplicate saved as %q", dup.Filename)
	}

	if _, err := lib.Save("notes.txt", strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Save txt error = %v, want ErrInvalidName", err)
	}

	writeGIF(t, filepath.Join(lib.Dir(), "anim.gif"), 5, 5)
	os.WriteFile(filepath.Join(lib.Dir(), "readme.md"), []byte("x"), 0644)

	list, err := lib.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List returned %d images: %+v", len(list), list)
	}
	if list[0].Filename != "anim.gif" || list[0].Duration == nil || *list[0].Duration != 100 {
		t.Errorf("first image = %+v", list[0])
	}

	if d, err := lib.Duration("assets/anim.gif"); err != nil || d != 100 {
		t.Errorf("Duration = %d, %v", d, err)
	}
	if d, err := lib.Duration("assets/Logo.png"); err != nil || d != 0 {
		t.Errorf("Duration(png) = %d, %v", d, err)
	}

	if !lib.Exists("assets/Logo.png") || lib.Exists("assets/missing.png") || lib.Exists("../x") {
		t.Error("Exists gave wrong answers")
	}

	if err := lib.Delete("assets/Logo.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := lib.Delete("assets/Logo.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestLibraryImport(t *testing.T) {
	lib, err := NewLibrary(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(t.TempDir(), "cat.jpg")
	os.WriteFile(src, []byte("jpeg"), 0644)

	img, err := lib.Import(src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if img.Path != "assets/cat.jpg" || !lib.Exists(img.Path) {
		t.Errorf("Import = %+v", img)
	}
}
