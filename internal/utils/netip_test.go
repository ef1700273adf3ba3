package utils

import (
	"net/http/httptest"
	"testing"
)

func TestParseHostNoPort(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"10.0.0.1:8080", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"10.0.0.1", "10.0.0.1"},
		{"[::1]", "::1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseHostNoPort(tt.input); got != tt.expected {
			t.Errorf("ParseHostNoPort(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	if got := ClientIP(req, false); got != "127.0.0.1" {
		t.Errorf("ClientIP(untrusted) = %q, want 127.0.0.1", got)
	}
	if got := ClientIP(req, true); got != "203.0.113.5" {
		t.Errorf("ClientIP(trusted) = %q, want 203.0.113.5", got)
	}

	req.Header.Set("CF-Connecting-IP", "198.51.100.7")
	if got := ClientIP(req, true); got != "198.51.100.7" {
		t.Errorf("ClientIP(cloudflare) = %q, want 198.51.100.7", got)
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.0.2.7 ", "not-an-ip", "2001:db8::/32"})
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := []struct {
		ip       string
		expected bool
	}{
		{"10.20.30.40", true},
		{"192.0.2.7", true},
		{"::ffff:192.0.2.7", true},
		{"192.0.2.8", false},
		{"2001:db8::1", true},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.expected {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.expected)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("nil list should give an empty matcher")
	}
}
