package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
)

var errInvalidConfig = errors.New("invalid provider configuration")

// vendorConfigs resolves per-vendor settings from the application config.
type vendorConfigs struct {
	providers     map[string]config.ProviderConfig
	defaultSender string
}

func newVendorConfigs(cfg *config.Config) vendorConfigs {
	return vendorConfigs{
		providers:     cfg.Providers,
		defaultSender: cfg.Dispatch.DefaultSender,
	}
}

func (v vendorConfigs) forProvider(p *models.Provider, token string) provider.Config {
	pc := v.providers[strings.ToLower(p.Name)]

	username := pc.Username
	if username == "" {
		username = pc.Email
	}

	return provider.Config{
		BaseURL:       pc.BaseURL,
		Token:         token,
		APIKey:        pc.APIKey,
		Username:      username,
		Password:      pc.Password,
		Timeout:       time.Duration(pc.Timeout) * time.Second,
		TokenLifetime: time.Duration(pc.TokenLifetimeHours) * time.Hour,
	}
}

// sender picks the originator: the message's own, then the provider's
// default_config "from", then the vendor config, then the global default.
func (v vendorConfigs) sender(p *models.Provider, from string) string {
	if from != "" {
		return from
	}
	if len(p.DefaultConfig) > 0 {
		if s := gjson.GetBytes(p.DefaultConfig, "from").String(); s != "" {
			return s
		}
	}
	if s := v.providers[strings.ToLower(p.Name)].Sender; s != "" {
		return s
	}
	return v.defaultSender
}

// adapterSet caches adapters by provider id for the lifetime of one
// dispatch or poll sweep.
type adapterSet struct {
	registry *provider.Registry
	vendors  vendorConfigs
	adapters map[int64]provider.Adapter
}

func newAdapterSet(registry *provider.Registry, vendors vendorConfigs) *adapterSet {
	return &adapterSet{
		registry: registry,
		vendors:  vendors,
		adapters: make(map[int64]provider.Adapter),
	}
}

func (s *adapterSet) get(p *models.Provider, token string) (provider.Adapter, error) {
	if a, ok := s.adapters[p.ID]; ok {
		return a, nil
	}

	factory, ok := s.registry.Factory(p.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p.Name)
	}

	cfg := s.vendors.forProvider(p, token)
	if !factory.ValidateConfig(cfg) {
		return nil, errInvalidConfig
	}

	a := factory.New(cfg)
	s.adapters[p.ID] = a
	return a, nil
}
