package dns

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
)

func TestNetResolver_DirectARecord(t *testing.T) {
	resolver := &netResolver{
		maxDepth: 5,
		lookupCNAME: func(ctx context.Context, host string) (string, error) {
			return "", errors.New("no cname")
		},
		lookupIP: func(ctx context.Context, host string) ([]net.IPAddr, error) {
			if host == "www.customer.com" {
				return []net.IPAddr{{IP: net.ParseIP("203.0.113.10")}}, nil
			}
			return nil, errors.New("no records")
		},
	}

	result, err := resolver.Resolve(context.Background(), "www.Customer.com.")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(result.HostChain) != 1 || result.HostChain[0] != "www.customer.com" {
		t.Fatalf("unexpected host chain: %#v", result.HostChain)
	}

	if len(result.IPv4) != 1 || result.IPv4[0] != "203.0.113.10" {
		t.Fatalf("unexpected ipv4 list: %#v", result.IPv4)
	}
}

func TestNetResolver_CNAMEChain(t *testing.T) {
	resolver := &netResolver{
		maxDepth: 5,
		lookupCNAME: func(ctx context.Context, host string) (string, error) {
			switch host {
			case "www.customer.com":
				return "edge.pagecraft.site", nil
			case "edge.pagecraft.site":
				return "edge.pagecraft.site", nil
			default:
				return "", errors.New("no cname")
			}
		},
		lookupIP: func(ctx context.Context, host string) ([]net.IPAddr, error) {
			if host == "edge.pagecraft.site" {
				return []net.IPAddr{{IP: net.ParseIP("198.51.100.20")}}, nil
			}
			return nil, errors.New("no records")
		},
	}

	result, err := resolver.Resolve(context.Background(), "www.customer.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(result.HostChain) != 2 {
		t.Fatalf("expected two hosts in chain, got %#v", result.HostChain)
	}

	if result.HostChain[1] != "edge.pagecraft.site" {
		t.Fatalf("expected canonical host to be edge.pagecraft.site, got %#v", result.HostChain)
	}

	if len(result.IPv4) != 1 || result.IPv4[0] != "198.51.100.20" {
		t.Fatalf("unexpected ipv4 list: %#v", result.IPv4)
	}
}

func TestNetResolver_LoopDetection(t *testing.T) {
	resolver := &netResolver{
		maxDepth: 5,
		lookupCNAME: func(ctx context.Context, host string) (string, error) {
			if host == "a.example.com" {
				return "b.example.com", nil
			}
			if host == "b.example.com" {
				return "a.example.com", nil
			}
			return "", errors.New("no cname")
		},
		lookupIP: func(ctx context.Context, host string) ([]net.IPAddr, error) {
			return nil, errors.New("no records")
		},
	}

	_, err := resolver.Resolve(context.Background(), "a.example.com")
	if err == nil || !strings.Contains(err.Error(), "loop") {
		t.Fatalf("expected loop detection error, got %v", err)
	}
}

func TestNetResolver_LookupTXT(t *testing.T) {
	resolver := &netResolver{
		maxDepth: 5,
		lookupTXT: func(ctx context.Context, name string) ([]string, error) {
			if name == "_pagecraft-challenge.customer.com" {
				return []string{"pagecraft-verify=abc123"}, nil
			}
			return nil, errors.New("no records")
		},
	}

	records, err := resolver.LookupTXT(context.Background(), "_pagecraft-challenge.Customer.com.")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 1 || records[0] != "pagecraft-verify=abc123" {
		t.Fatalf("unexpected TXT records: %#v", records)
	}
}

func TestNormalizeHostname(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Shop.Example.COM", "shop.example.com"},
		{"  example.com.  ", "example.com"},
		{"already.lower.net", "already.lower.net"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeHostname(tc.in); got != tc.want {
			t.Errorf("NormalizeHostname(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
