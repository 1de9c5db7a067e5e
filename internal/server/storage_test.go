package server

import "testing"

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{"localhost:9000", "localhost:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://storage.example.com", "storage.example.com", true, false},
		{"https://storage.example.com/", "storage.example.com", true, false},
		{"https://storage.example.com/some/path", "", false, true},
		{"", "", false, true},
		{"http://", "", false, true},
	}

	for _, tt := range tests {
		host, secure, err := normaliseEndpoint(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("normaliseEndpoint(%q): expected error, got %q", tt.in, host)
			}
			continue
		}
		if err != nil {
			t.Errorf("normaliseEndpoint(%q): %v", tt.in, err)
			continue
		}
		if host != tt.wantHost || secure != tt.wantSecure {
			t.Errorf("normaliseEndpoint(%q) = (%q, %v), want (%q, %v)",
				tt.in, host, secure, tt.wantHost, tt.wantSecure)
		}
	}
}

func TestNewBlobStorageRejectsIncompleteConfig(t *testing.T) {
	incomplete := []S3Config{
		{},
		{Endpoint: "minio:9000"},
		{Endpoint: "minio:9000", AccessKey: "k"},
		{Endpoint: "minio:9000", AccessKey: "k", SecretKey: "s"},
	}
	for _, cfg := range incomplete {
		if _, err := NewBlobStorage(cfg); err == nil {
			t.Errorf("NewBlobStorage(%+v): expected error", cfg)
		}
	}
}
