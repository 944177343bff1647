package httputil

import (
	"net"
	"strings"
	"testing"
)

func TestValidateIP(t *testing.T) {
	tests := []struct {
		ip   string
		kind string // empty means allowed
	}{
		{"10.0.0.1", "private"},
		{"172.16.0.1", "private"},
		{"192.168.255.255", "private"},
		{"fd00::1", "private"},
		{"127.0.0.1", "loopback"},
		{"::1", "loopback"},
		{"169.254.169.254", "link-local"},
		{"fe80::1", "link-local"},
		{"224.0.0.1", "link-local multicast"},
		{"239.1.1.1", "multicast"},
		{"0.0.0.0", "unspecified"},
		{"::", "unspecified"},
		{"140.82.112.3", ""},
		{"2606:4700::1111", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			err := ValidateIP(net.ParseIP(tt.ip), tt.ip)
			if tt.kind == "" {
				if err != nil {
					t.Errorf("expected %s to be allowed, got %v", tt.ip, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s to be refused", tt.ip)
			}
			if !strings.Contains(err.Error(), "refusing redirect to "+tt.kind+" IP") {
				t.Errorf("unexpected error for %s: %v", tt.ip, err)
			}
		})
	}
}
