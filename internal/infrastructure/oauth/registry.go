package oauth

import (
	"fmt"

	"voicehub/internal/config"
)

// Provider is a closed enumeration of integration providers. Dispatch on it
// with a switch so a new provider without wiring fails loudly instead of
// silently dropping data.
type Provider string

const (
	ProviderGoogle         Provider = config.ProviderGoogle
	ProviderGoogleCalendar Provider = config.ProviderGoogleCalendar
	ProviderGoogleSheets   Provider = config.ProviderGoogleSheets
	ProviderSlack          Provider = config.ProviderSlack
	ProviderHubSpot        Provider = config.ProviderHubSpot
	ProviderSalesforce     Provider = config.ProviderSalesforce
	ProviderGoHighLevel    Provider = config.ProviderGoHighLevel
	ProviderCalendly       Provider = config.ProviderCalendly
	ProviderQuickBooks     Provider = config.ProviderQuickBooks
)

// ParseProvider validates a provider name from request input.
func ParseProvider(name string) (Provider, error) {
	switch Provider(name) {
	case ProviderGoogle, ProviderGoogleCalendar, ProviderGoogleSheets,
		ProviderSlack, ProviderHubSpot, ProviderSalesforce,
		ProviderGoHighLevel, ProviderCalendly, ProviderQuickBooks:
		return Provider(name), nil
	default:
		return "", fmt.Errorf("unknown provider %q", name)
	}
}

func (p Provider) String() string {
	return string(p)
}

// Registry is the immutable provider lookup table, built once at process
// start from configuration and injected into callers.
type Registry struct {
	providers map[Provider]config.ProviderConfig
}

func NewRegistry(cfg *config.Config) (*Registry, error) {
	providers := make(map[Provider]config.ProviderConfig, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		p, err := ParseProvider(name)
		if err != nil {
			return nil, fmt.Errorf("oauth registry: %w", err)
		}
		if pc.ClientID == "" || pc.ClientSecret == "" {
			return nil, fmt.Errorf("oauth registry: provider %q missing client credentials", name)
		}
		if pc.TokenURL == "" {
			return nil, fmt.Errorf("oauth registry: provider %q missing token_url", name)
		}
		providers[p] = pc
	}

	return &Registry{providers: providers}, nil
}

// Lookup returns the provider config. An unknown or unconfigured provider is
// a hard configuration error, never a silent no-op.
func (r *Registry) Lookup(p Provider) (config.ProviderConfig, error) {
	pc, ok := r.providers[p]
	if !ok {
		return config.ProviderConfig{}, fmt.Errorf("oauth registry: provider %q is not configured", p)
	}
	return pc, nil
}
