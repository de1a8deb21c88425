// Package provider describes map tile providers and resolves tile URLs
// from their templates.
package provider

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
	"github.com/spf13/viper"

	"github.com/RoninZc/geotiler/tile"
)

// Defaults applied to provider definitions.
const (
	DefaultExtension = tile.PNG
	DefaultLimit     = 1
)

// Provider is a configured source of tiles.
type Provider struct {
	ID          string   `mapstructure:"id"`
	Name        string   `mapstructure:"name"`
	Attribution string   `mapstructure:"attribution"`
	URL         string   `mapstructure:"url"`
	Subdomains  []string `mapstructure:"subdomains"`
	Extension   string   `mapstructure:"extension"`

	// Limit is the number of tiles the provider allows to be fetched at
	// the same time.
	Limit int `mapstructure:"limit"`
}

// New fills in defaults and validates p.
func New(p Provider) (*Provider, error) {
	if p.Extension == "" {
		p.Extension = DefaultExtension
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Subdomains == nil {
		p.Subdomains = []string{}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the required fields.
func (p *Provider) Validate() error {
	var errs []string
	if p.ID == "" {
		errs = append(errs, "id is required")
	}
	if p.URL == "" {
		errs = append(errs, "url is required")
	}
	if p.Limit < 1 {
		errs = append(errs, fmt.Sprintf("limit must be at least 1, got %d", p.Limit))
	}
	if strings.Contains(p.URL, "{subdomain}") && len(p.Subdomains) == 0 {
		errs = append(errs, "url uses {subdomain} but no subdomains are configured")
	}
	if len(errs) > 0 {
		return fmt.Errorf("provider %q: %s", p.ID, strings.Join(errs, "; "))
	}
	return nil
}

// TileURL expands the URL template for t. Subdomains rotate with the
// tile position so neighbouring tiles hit different hosts.
func (p *Provider) TileURL(t maptile.Tile) string {
	sub := ""
	if n := len(p.Subdomains); n > 0 {
		sub = p.Subdomains[(uint64(t.X)+uint64(t.Y))%uint64(n)]
	}
	r := strings.NewReplacer(
		"{subdomain}", sub,
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.Itoa(int(t.X)),
		"{y}", strconv.Itoa(int(t.Y)),
		"{ext}", p.Extension,
	)
	return r.Replace(p.URL)
}

// Descriptor returns the descriptor of t served by p.
func (p *Provider) Descriptor(t maptile.Tile) tile.Descriptor {
	return tile.Descriptor{Tile: t, URL: p.TileURL(t)}
}

// Descriptors resolves tiles in order.
func (p *Provider) Descriptors(tiles []maptile.Tile) []tile.Descriptor {
	ds := make([]tile.Descriptor, len(tiles))
	for i, t := range tiles {
		ds[i] = p.Descriptor(t)
	}
	return ds
}

// ErrUnknownProvider is returned by Find for unregistered ids.
var ErrUnknownProvider = errors.New("provider: unknown provider")

// Load reads a provider definition from a TOML, YAML or JSON file.
func Load(path string) (*Provider, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read provider file %s: %w", path, err)
	}

	var p Provider
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("parse provider file %s: %w", path, err)
	}
	return New(p)
}
