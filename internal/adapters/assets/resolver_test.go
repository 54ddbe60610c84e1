package assets_test

import (
	"testing"

	"campus_market/internal/adapters/assets"
)

func TestResolve(t *testing.T) {
	r := assets.NewResolver("http://files.example.com/")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"http passthrough", "http://cdn.example.com/x.jpg", "http://cdn.example.com/x.jpg"},
		{"https passthrough", "https://cdn.example.com/x.jpg", "https://cdn.example.com/x.jpg"},
		{"bare filename", "photo.png", "http://files.example.com/uploads/listings/photo.png"},
		{"unix path", "uploads/listings/photo.png", "http://files.example.com/uploads/listings/photo.png"},
		{"windows path", `C:\uploads\listings\photo.png`, "http://files.example.com/uploads/listings/photo.png"},
		{"mixed separators", `uploads\listings/photo.png`, "http://files.example.com/uploads/listings/photo.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Resolve(tc.in); got != tc.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestResolveAll_DropsEmpties(t *testing.T) {
	r := assets.NewResolver("http://files.example.com")
	got := r.ResolveAll([]string{"", "a.jpg"})
	if len(got) != 1 || got[0] != "http://files.example.com/uploads/listings/a.jpg" {
		t.Fatalf("unexpected: %v", got)
	}
}
