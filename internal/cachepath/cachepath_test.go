package cachepath

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "PlainPath",
			uri:  "file:///home/user/photo.png",
			want: "6a24f7556d0ea4de5b81d0349cef0444",
		},
		{
			name: "PercentEncodedPath",
			uri:  "file:///home/user/photo%20album/pic.png",
			want: "ef931afc080b8e4136aa44dbb514b5a0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ID(tt.uri)
			if got != tt.want {
				t.Errorf("ID(%q) = %s, want %s", tt.uri, got, tt.want)
			}
		})
	}
}

func TestIDIsDeterministic(t *testing.T) {
	uri := "file:///tmp/some/file.jpg"
	first := ID(uri)
	for i := 0; i < 10; i++ {
		if got := ID(uri); got != first {
			t.Fatalf("ID not deterministic: %s vs %s", got, first)
		}
	}
	if len(first) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(first))
	}
	if first != strings.ToLower(first) {
		t.Errorf("expected lowercase digest, got %s", first)
	}
}

func TestIDDistinctURIs(t *testing.T) {
	a := ID("file:///home/user/a.png")
	b := ID("file:///home/user/b.png")
	if a == b {
		t.Errorf("distinct URIs produced the same identifier %s", a)
	}
}

func TestURI(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"Simple", "/home/user/photo.png", "file:///home/user/photo.png"},
		{"WithSpace", "/home/user/photo album/pic.png", "file:///home/user/photo%20album/pic.png"},
		{"WithSemicolon", "/tmp/a;b.png", "file:///tmp/a;b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := URI(tt.path)
			if err != nil {
				t.Fatalf("URI(%q) returned error: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("URI(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestURIRejectsRelativePath(t *testing.T) {
	if _, err := URI("relative/photo.png"); err == nil {
		t.Error("expected error for relative path")
	}
}

func TestEntryPath(t *testing.T) {
	got := EntryPath("/cache/thumbnails", "normal", "abc123")
	want := filepath.Join("/cache/thumbnails", "normal", "abc123.png")
	if got != want {
		t.Errorf("EntryPath = %s, want %s", got, want)
	}
}

func TestFailPath(t *testing.T) {
	got := FailPath("/cache/thumbnails", "thumbcache", "abc123")
	want := filepath.Join("/cache/thumbnails", "fail", "thumbcache", "abc123.png")
	if got != want {
		t.Errorf("FailPath = %s, want %s", got, want)
	}
}

func TestTiersCannotCollide(t *testing.T) {
	id := "deadbeef"
	normal := EntryPath("/root", "normal", id)
	large := EntryPath("/root", "large", id)
	if normal == large {
		t.Errorf("entry paths for different tiers collide: %s", normal)
	}
	if FailPath("/root", "app", id) == normal {
		t.Error("failure path collides with entry path")
	}
}
