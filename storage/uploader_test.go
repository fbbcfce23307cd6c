package storage

import (
	"errors"
	"testing"
)

func TestObjectKeys(t *testing.T) {
	if got, want := CrestKey(7, "a1b2c3", "png"), "crests/7/a1b2c3.png"; got != want {
		t.Errorf("CrestKey = %q, want %q", got, want)
	}
	if got, want := AvatarKey(42, "ffeedd", "webp"), "avatars/42/ffeedd.webp"; got != want {
		t.Errorf("AvatarKey = %q, want %q", got, want)
	}
}

func TestImageExtension(t *testing.T) {
	cases := []struct {
		contentType string
		want        string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpg"},
		{"image/webp", "webp"},
		{"image/svg+xml", "svg"},
	}
	for _, tc := range cases {
		got, err := ImageExtension(tc.contentType)
		if err != nil {
			t.Errorf("ImageExtension(%q): unexpected error %v", tc.contentType, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ImageExtension(%q) = %q, want %q", tc.contentType, got, tc.want)
		}
	}

	for _, contentType := range []string{"image/gif", "application/pdf", ""} {
		if _, err := ImageExtension(contentType); !errors.Is(err, ErrUnsupportedImageType) {
			t.Errorf("ImageExtension(%q): expected ErrUnsupportedImageType, got %v", contentType, err)
		}
	}
}

func TestGetPublicURL(t *testing.T) {
	cases := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"bare host", "https://cdn.example.com", "crests/7/a1.png", "https://cdn.example.com/crests/7/a1.png"},
		{"trailing slash", "https://cdn.example.com/", "crests/7/a1.png", "https://cdn.example.com/crests/7/a1.png"},
		{"base with path", "https://cdn.example.com/pub", "avatars/42/b2.webp", "https://cdn.example.com/pub/avatars/42/b2.webp"},
		{"leading slash key", "https://cdn.example.com", "/avatars/42/b2.webp", "https://cdn.example.com/avatars/42/b2.webp"},
		{"empty key", "https://cdn.example.com", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base, err := parsePublicBaseURL(tc.base)
			if err != nil {
				t.Fatalf("parsePublicBaseURL(%q): %v", tc.base, err)
			}
			u := &cloudflareR2Uploader{publicBase: base}
			if got := u.GetPublicURL(tc.key); got != tc.want {
				t.Errorf("GetPublicURL(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}
