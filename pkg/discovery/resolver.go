package discovery

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/grandcat/zeroconf"
)

// ServiceMieleAtHome is the DNS-SD service appliances announce on the LAN.
const ServiceMieleAtHome = "_mieleathome._tcp"

// DefaultDomain is the mDNS domain used for all operations.
const DefaultDomain = "local."

// DefaultBrowseTimeout is the default timeout for browse operations.
const DefaultBrowseTimeout = 10 * time.Second

// DefaultLookupTimeout is the default timeout for lookup operations.
const DefaultLookupTimeout = 5 * time.Second

// Appliance describes one discovered appliance announcement.
type Appliance struct {
	// InstanceName is the DNS-SD instance name, usually the serial number.
	InstanceName string

	// HostName is the announced target host name.
	HostName string

	// Port is the HTTP port of the local API.
	Port int

	// IPs contains the resolved addresses, IPv4 first.
	IPs []net.IP

	// Text contains the raw TXT record key-value pairs.
	Text map[string]string
}

// Host returns a host string suitable for the transport config, preferring
// the first resolved IP. Falls back to the announced host name.
func (a *Appliance) Host() string {
	host := a.HostName
	if len(a.IPs) > 0 {
		host = a.IPs[0].String()
	}
	if a.Port != 0 && a.Port != 80 {
		return net.JoinHostPort(host, strconv.Itoa(a.Port))
	}
	return host
}

// MDNSResolver is the interface for mDNS service resolution. It allows for
// dependency injection in tests.
type MDNSResolver interface {
	// Browse browses for services of the given type.
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

	// Lookup looks up a specific service instance.
	Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// zeroconfResolver is the production implementation using grandcat/zeroconf.
type zeroconfResolver struct {
	resolver *zeroconf.Resolver
}

func newZeroconfResolver() (*zeroconfResolver, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return &zeroconfResolver{resolver: r}, nil
}

func (z *zeroconfResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Browse(ctx, service, domain, entries)
}

func (z *zeroconfResolver) Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Lookup(ctx, instance, service, domain, entries)
}

// ResolverConfig holds configuration for the Resolver.
type ResolverConfig struct {
	// MDNSResolver is the underlying mDNS resolver implementation.
	// If nil, the default zeroconf resolver is used.
	MDNSResolver MDNSResolver

	// BrowseTimeout is the timeout for browse operations.
	// If zero, DefaultBrowseTimeout is used.
	BrowseTimeout time.Duration

	// LookupTimeout is the timeout for lookup operations.
	// If zero, DefaultLookupTimeout is used.
	LookupTimeout time.Duration
}

// Resolver discovers appliances via DNS-SD.
type Resolver struct {
	config   ResolverConfig
	resolver MDNSResolver
}

// NewResolver creates a new Resolver with the given configuration.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	resolver := config.MDNSResolver
	if resolver == nil {
		zr, err := newZeroconfResolver()
		if err != nil {
			return nil, err
		}
		resolver = zr
	}
	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = DefaultBrowseTimeout
	}
	if config.LookupTimeout == 0 {
		config.LookupTimeout = DefaultLookupTimeout
	}

	return &Resolver{
		config:   config,
		resolver: resolver,
	}, nil
}

// Browse discovers appliances on the network. Returns a channel that
// receives discovered appliances until the context is cancelled or the
// browse timeout expires.
func (r *Resolver) Browse(ctx context.Context) (<-chan Appliance, error) {
	results := make(chan Appliance)
	entries := make(chan *zeroconf.ServiceEntry)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.BrowseTimeout)
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	go func() {
		defer close(results)

		go func() {
			defer close(entries)
			r.resolver.Browse(ctx, ServiceMieleAtHome, DefaultDomain, entries)
		}()

		for entry := range entries {
			select {
			case results <- entryToAppliance(entry):
			case <-ctx.Done():
				return
			}
		}
	}()

	return results, nil
}

// Lookup resolves a specific appliance by instance name.
func (r *Resolver) Lookup(ctx context.Context, instanceName string) (*Appliance, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.LookupTimeout)
		defer cancel()
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		defer close(entries)
		r.resolver.Lookup(ctx, instanceName, ServiceMieleAtHome, DefaultDomain, entries)
	}()

	select {
	case entry, ok := <-entries:
		if !ok || entry == nil {
			return nil, ErrServiceNotFound
		}
		appliance := entryToAppliance(entry)
		return &appliance, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

func entryToAppliance(entry *zeroconf.ServiceEntry) Appliance {
	ips := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	ips = append(ips, entry.AddrIPv4...)
	ips = append(ips, entry.AddrIPv6...)

	text := make(map[string]string, len(entry.Text))
	for _, kv := range entry.Text {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				text[kv[:i]] = kv[i+1:]
				break
			}
		}
	}

	return Appliance{
		InstanceName: entry.Instance,
		HostName:     entry.HostName,
		Port:         entry.Port,
		IPs:          ips,
		Text:         text,
	}
}
