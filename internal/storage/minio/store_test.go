package minio

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return &Store{
		bucket:         "lost-items",
		publicEndpoint: "images.example.jp",
		log:            zap.NewNop(),
		now:            func() time.Time { return time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC) },
		newID:          func() string { return "obj-1" },
	}
}

func TestObjectName(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", "uploads/2025-08-15/obj-1.jpg"},
		{"財布.png", "uploads/2025-08-15/obj-1.png"},
		{"noext", "uploads/2025-08-15/obj-1"},
	}
	for _, tc := range tests {
		if got := s.objectName(tc.filename); got != tc.want {
			t.Errorf("objectName(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestPublicURL(t *testing.T) {
	s := testStore(t)
	if got := s.publicURL("uploads/a.jpg"); got != "https://images.example.jp/lost-items/uploads/a.jpg" {
		t.Errorf("unexpected url: %s", got)
	}

	s.publicEndpoint = "http://localhost:9000"
	if got := s.publicURL("uploads/a.jpg"); got != "http://localhost:9000/lost-items/uploads/a.jpg" {
		t.Errorf("unexpected url: %s", got)
	}
}

func TestObjectFromURL(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		url  string
		want string
	}{
		{"https://images.example.jp/lost-items/uploads/2025-08-15/obj-1.jpg", "uploads/2025-08-15/obj-1.jpg"},
		// bucket name duplicated by a malformed writer
		{"https://images.example.jp/lost-items/lost-items/uploads/a.jpg", "uploads/a.jpg"},
		{"https://images.example.jp/other/uploads/a.jpg", "other/uploads/a.jpg"},
	}
	for _, tc := range tests {
		if got := s.objectFromURL(tc.url); got != tc.want {
			t.Errorf("objectFromURL(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
