package fallback

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "src.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCanDecode(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"image/webp", true},
		{"image/svg+xml", false},
		{"video/mp4", false},
		{"application/pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := CanDecode(tt.mime); got != tt.want {
				t.Errorf("CanDecode(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}

func TestGenerateDownscales(t *testing.T) {
	src := writePNG(t, t.TempDir(), 800, 600)

	img, err := Generate(src, 128)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	b := img.Bounds()
	if b.Dx() > 128 || b.Dy() > 128 {
		t.Errorf("thumbnail is %dx%d, want both sides <= 128", b.Dx(), b.Dy())
	}
	// Aspect ratio is preserved: the longest side hits the limit.
	if b.Dx() != 128 {
		t.Errorf("longest side = %d, want 128", b.Dx())
	}
}

func TestGenerateKeepsSmallImages(t *testing.T) {
	src := writePNG(t, t.TempDir(), 40, 30)

	img, err := Generate(src, 128)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("small image was rescaled to %dx%d", b.Dx(), b.Dy())
	}
}

func TestGenerateRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Generate(src, 128); err == nil {
		t.Error("expected decode error for garbage input")
	}
}

func TestGenerateRejectsMissingFile(t *testing.T) {
	if _, err := Generate(filepath.Join(t.TempDir(), "nope.png"), 128); err == nil {
		t.Error("expected error for missing file")
	}
}
