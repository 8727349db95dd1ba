package service

import (
	"testing"

	"github.com/yisunguk/drawing-detector-sub003/config"
)

func TestNewMinioLister(t *testing.T) {
	lister, err := NewMinioLister(&config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "contracts",
		UseSSL:    false,
	})
	if err != nil {
		t.Fatalf("Expected client construction to succeed, got %v", err)
	}
	if lister.bucket != "contracts" {
		t.Errorf("Expected bucket contracts, got %s", lister.bucket)
	}
}

func TestNewMinioListerInvalidEndpoint(t *testing.T) {
	_, err := NewMinioLister(&config.MinioConfig{
		Endpoint:  "http://invalid endpoint with spaces",
		AccessKey: "k",
		SecretKey: "s",
		Bucket:    "b",
	})
	if err == nil {
		t.Error("Expected error for invalid endpoint")
	}
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		key      string
		prefix   string
		expected string
	}{
		{"alice/json/contract.json", "alice/json/", "contract.json"},
		{"alice/json/sub/", "alice/json/", "sub"},
		{"top-level.json", "", "top-level.json"},
	}

	for _, tt := range tests {
		if got := entryName(tt.key, tt.prefix); got != tt.expected {
			t.Errorf("entryName(%q, %q) = %q, want %q", tt.key, tt.prefix, got, tt.expected)
		}
	}
}
