// Package dns resolves customer hostnames the way the domain verifier needs
// them: the full CNAME chain down to the canonical name, the addresses found
// there, and TXT records for ownership challenges.
package dns

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strings"
)

// DefaultMaxDepth bounds how many CNAME hops Resolve will follow.
const DefaultMaxDepth = 10

// Resolution captures the hostnames and IPs discovered while resolving a domain.
type Resolution struct {
	HostChain []string
	IPv4      []string
	IPv6      []string
}

// Canonical returns the final hostname in the resolution chain, i.e. the
// name the A/AAAA records were found on.
func (r *Resolution) Canonical() string {
	if len(r.HostChain) == 0 {
		return ""
	}
	return r.HostChain[len(r.HostChain)-1]
}

// Resolver resolves hostnames, following CNAMEs up to a fixed depth, and
// looks up TXT records for ownership challenges.
type Resolver interface {
	Resolve(ctx context.Context, host string) (*Resolution, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// netResolver implements Resolver on top of the system resolver. The lookup
// funcs are fields so tests can substitute fixed answers.
type netResolver struct {
	maxDepth    int
	lookupIP    func(ctx context.Context, host string) ([]net.IPAddr, error)
	lookupCNAME func(ctx context.Context, host string) (string, error)
	lookupTXT   func(ctx context.Context, name string) ([]string, error)
}

// NewResolver returns a Resolver backed by Go's default net.Resolver.
func NewResolver() Resolver {
	resolver := net.DefaultResolver
	return &netResolver{
		maxDepth: DefaultMaxDepth,
		lookupIP: resolver.LookupIPAddr,
		lookupCNAME: func(ctx context.Context, host string) (string, error) {
			return resolver.LookupCNAME(ctx, host)
		},
		lookupTXT: resolver.LookupTXT,
	}
}

func (r *netResolver) Resolve(ctx context.Context, host string) (*Resolution, error) {
	current := NormalizeHostname(host)
	if current == "" {
		return nil, fmt.Errorf("cannot resolve empty host")
	}

	result := &Resolution{}
	seen := map[string]bool{}

	for range r.maxDepth {
		if seen[current] {
			return nil, fmt.Errorf("CNAME loop at %s", current)
		}
		seen[current] = true
		result.HostChain = append(result.HostChain, current)

		next, followed := r.followCNAME(ctx, current)
		if followed {
			current = next
			continue
		}

		// current is canonical, read its addresses
		if err := r.collectAddrs(ctx, current, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	return nil, fmt.Errorf("gave up resolving %s after %d CNAME hops", host, r.maxDepth)
}

// followCNAME returns the next hop for host, and whether there is one.
func (r *netResolver) followCNAME(ctx context.Context, host string) (string, bool) {
	cname, err := r.lookupCNAME(ctx, host)
	if err != nil {
		return "", false
	}
	target := NormalizeHostname(cname)
	if target == "" || target == host {
		return "", false
	}
	return target, true
}

// collectAddrs resolves A/AAAA records for host into result.
func (r *netResolver) collectAddrs(ctx context.Context, host string, result *Resolution) error {
	addrs, err := r.lookupIP(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to resolve IPs for %s: %w", host, err)
	}

	for _, addr := range addrs {
		if addr.IP == nil {
			continue
		}
		if v4 := addr.IP.To4(); v4 != nil {
			if !slices.Contains(result.IPv4, v4.String()) {
				result.IPv4 = append(result.IPv4, v4.String())
			}
		} else if !slices.Contains(result.IPv6, addr.IP.String()) {
			result.IPv6 = append(result.IPv6, addr.IP.String())
		}
	}

	if len(result.IPv4) == 0 && len(result.IPv6) == 0 {
		return fmt.Errorf("no A/AAAA records found for %s", host)
	}
	return nil
}

func (r *netResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	name = NormalizeHostname(name)
	if name == "" {
		return nil, fmt.Errorf("cannot lookup TXT for empty name")
	}
	return r.lookupTXT(ctx, name)
}

// NormalizeHostname trims whitespace, removes the trailing dot and lowercases.
func NormalizeHostname(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}
