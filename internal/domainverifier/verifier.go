// Package domainverifier checks that a customer actually controls a domain
// and has pointed it at the platform edge before it goes live.
package domainverifier

import (
	"context"
	"fmt"
	"slices"

	"github.com/pagecraft/pagecraft/internal/shared/dns"
)

// ChallengePrefix is the DNS label customers create the ownership TXT
// record under: _pagecraft-challenge.<domain>.
const ChallengePrefix = "_pagecraft-challenge"

// TokenPrefix prefixes the expected TXT record value.
const TokenPrefix = "pagecraft-verify="

// Verifier performs the two-part domain check: a TXT ownership challenge and
// a routing check that the domain resolves to the platform edge.
type Verifier struct {
	resolver   dns.Resolver
	edgeTarget string
	edgeIPs    []string
}

// NewVerifier creates a verifier. edgeTarget is the canonical CNAME target
// customers point their domain at; edgeIPs are accepted for apex domains
// that must use A records.
func NewVerifier(resolver dns.Resolver, edgeTarget string, edgeIPs []string) *Verifier {
	return &Verifier{
		resolver:   resolver,
		edgeTarget: dns.NormalizeHostname(edgeTarget),
		edgeIPs:    edgeIPs,
	}
}

// Verify returns nil when the domain passes both checks. The returned error
// is the customer-facing failure reason.
func (v *Verifier) Verify(ctx context.Context, domainName string, token string) error {
	domainName = dns.NormalizeHostname(domainName)
	if domainName == "" {
		return fmt.Errorf("domain name is empty")
	}

	if err := v.checkOwnership(ctx, domainName, token); err != nil {
		return err
	}
	return v.checkRouting(ctx, domainName)
}

func (v *Verifier) checkOwnership(ctx context.Context, domainName string, token string) error {
	challenge := ChallengePrefix + "." + domainName
	records, err := v.resolver.LookupTXT(ctx, challenge)
	if err != nil {
		return fmt.Errorf("TXT record %s not found", challenge)
	}

	expected := TokenPrefix + token
	if !slices.Contains(records, expected) {
		return fmt.Errorf("TXT record %s does not contain the verification token", challenge)
	}
	return nil
}

func (v *Verifier) checkRouting(ctx context.Context, domainName string) error {
	resolution, err := v.resolver.Resolve(ctx, domainName)
	if err != nil {
		return fmt.Errorf("domain does not resolve: %v", err)
	}

	if resolution.Canonical() == v.edgeTarget {
		return nil
	}
	for _, ip := range resolution.IPv4 {
		if slices.Contains(v.edgeIPs, ip) {
			return nil
		}
	}

	return fmt.Errorf("domain does not point at %s", v.edgeTarget)
}
