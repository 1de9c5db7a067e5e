package server

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@example.co.uk",
		"user+tag@example.com",
		"user_name@sub.example.com",
	}
	for _, e := range valid {
		if !validateEmail(e) {
			t.Errorf("validateEmail(%q) = false, want true", e)
		}
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@example",
		"user @example.com",
		"user@exam ple.com",
	}
	for _, e := range invalid {
		if validateEmail(e) {
			t.Errorf("validateEmail(%q) = true, want false", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"abc12345", true},
		{"paSSword9", true},
		{"short1", false},
		{"onlyletters", false},
		{"12345678", false},
		{strings.Repeat("a1", 65), false},
		{"", false},
	}
	for _, tt := range tests {
		ok, _ := validatePassword(tt.password)
		if ok != tt.ok {
			t.Errorf("validatePassword(%q) = %v, want %v", tt.password, ok, tt.ok)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		ok       bool
	}{
		{"alice", true},
		{"alice_99", true},
		{"ab", false},
		{strings.Repeat("a", 51), false},
		{"alice!", false},
		{"alice bob", false},
		{"", false},
	}
	for _, tt := range tests {
		ok, _ := validateUsername(tt.username)
		if ok != tt.ok {
			t.Errorf("validateUsername(%q) = %v, want %v", tt.username, ok, tt.ok)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"  report.pdf  ", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"/etc/shadow", "shadow"},
		{"with\"quote.txt", "withquote.txt"},
		{"ctrl\x01char.txt", "ctrlchar.txt"},
		{"", "upload"},
		{".", "upload"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
