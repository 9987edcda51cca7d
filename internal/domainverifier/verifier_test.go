package domainverifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pagecraft/pagecraft/internal/shared/dns"
)

type fakeResolver struct {
	txt map[string][]string
	res map[string]*dns.Resolution
}

func (f *fakeResolver) Resolve(ctx context.Context, host string) (*dns.Resolution, error) {
	if r, ok := f.res[dns.NormalizeHostname(host)]; ok {
		return r, nil
	}
	return nil, errors.New("no records")
}

func (f *fakeResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	if records, ok := f.txt[dns.NormalizeHostname(name)]; ok {
		return records, nil
	}
	return nil, errors.New("no records")
}

func TestVerify_CNAMEToEdge(t *testing.T) {
	resolver := &fakeResolver{
		txt: map[string][]string{
			"_pagecraft-challenge.shop.example.com": {"pagecraft-verify=tok123", "unrelated"},
		},
		res: map[string]*dns.Resolution{
			"shop.example.com": {
				HostChain: []string{"shop.example.com", "edge.pagecraft.site"},
				IPv4:      []string{"198.51.100.20"},
			},
		},
	}
	v := NewVerifier(resolver, "Edge.pagecraft.site.", nil)

	if err := v.Verify(context.Background(), "Shop.Example.COM", "tok123"); err != nil {
		t.Fatalf("expected verification to pass, got %v", err)
	}
}

func TestVerify_ApexWithEdgeIP(t *testing.T) {
	resolver := &fakeResolver{
		txt: map[string][]string{
			"_pagecraft-challenge.example.com": {"pagecraft-verify=tok123"},
		},
		res: map[string]*dns.Resolution{
			"example.com": {
				HostChain: []string{"example.com"},
				IPv4:      []string{"203.0.113.7"},
			},
		},
	}
	v := NewVerifier(resolver, "edge.pagecraft.site", []string{"203.0.113.7"})

	if err := v.Verify(context.Background(), "example.com", "tok123"); err != nil {
		t.Fatalf("expected verification to pass, got %v", err)
	}
}

func TestVerify_MissingTXT(t *testing.T) {
	resolver := &fakeResolver{
		res: map[string]*dns.Resolution{
			"example.com": {HostChain: []string{"example.com", "edge.pagecraft.site"}},
		},
	}
	v := NewVerifier(resolver, "edge.pagecraft.site", nil)

	err := v.Verify(context.Background(), "example.com", "tok123")
	if err == nil || !strings.Contains(err.Error(), "TXT record") {
		t.Fatalf("expected TXT failure, got %v", err)
	}
}

func TestVerify_WrongToken(t *testing.T) {
	resolver := &fakeResolver{
		txt: map[string][]string{
			"_pagecraft-challenge.example.com": {"pagecraft-verify=other"},
		},
	}
	v := NewVerifier(resolver, "edge.pagecraft.site", nil)

	err := v.Verify(context.Background(), "example.com", "tok123")
	if err == nil || !strings.Contains(err.Error(), "verification token") {
		t.Fatalf("expected token mismatch failure, got %v", err)
	}
}

func TestVerify_NotPointedAtEdge(t *testing.T) {
	resolver := &fakeResolver{
		txt: map[string][]string{
			"_pagecraft-challenge.example.com": {"pagecraft-verify=tok123"},
		},
		res: map[string]*dns.Resolution{
			"example.com": {
				HostChain: []string{"example.com", "parking.registrar.com"},
				IPv4:      []string{"192.0.2.1"},
			},
		},
	}
	v := NewVerifier(resolver, "edge.pagecraft.site", []string{"203.0.113.7"})

	err := v.Verify(context.Background(), "example.com", "tok123")
	if err == nil || !strings.Contains(err.Error(), "does not point at") {
		t.Fatalf("expected routing failure, got %v", err)
	}
}

func TestVerify_UnresolvableDomain(t *testing.T) {
	resolver := &fakeResolver{
		txt: map[string][]string{
			"_pagecraft-challenge.example.com": {"pagecraft-verify=tok123"},
		},
	}
	v := NewVerifier(resolver, "edge.pagecraft.site", nil)

	err := v.Verify(context.Background(), "example.com", "tok123")
	if err == nil || !strings.Contains(err.Error(), "does not resolve") {
		t.Fatalf("expected resolution failure, got %v", err)
	}
}
