// Package worlddef loads the world definition from YAML.
package worlddef

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed city.yaml
var embedded embed.FS

// DefaultFile is the embedded world definition.
const DefaultFile = "city.yaml"

// Loader implements ports.WorldSource.
type Loader struct {
	fs       afero.Fs
	path     string
	validate *validator.Validate
}

// NewLoader reads the definition at path on fs.
func NewLoader(fs afero.Fs, path string) *Loader {
	return &Loader{fs: fs, path: path, validate: validator.New()}
}

// NewEmbeddedLoader reads the built-in city.
func NewEmbeddedLoader() *Loader {
	return NewLoader(afero.FromIOFS{FS: embedded}, DefaultFile)
}

// NewFileLoader reads path from disk, or the built-in city when path is empty.
func NewFileLoader(path string) *Loader {
	if path == "" {
		return NewEmbeddedLoader()
	}
	return NewLoader(afero.NewOsFs(), path)
}

// Load decodes and validates the definition. Unknown keys are rejected.
func (l *Loader) Load(_ context.Context) (*domain.WorldDefinition, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		return nil, fmt.Errorf("read world definition: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var def domain.WorldDefinition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.path, err)
	}

	if err := l.validate.Struct(&def); err != nil {
		return nil, fmt.Errorf("invalid world definition %s: %w", l.path, err)
	}
	if err := l.checkReferences(&def); err != nil {
		return nil, fmt.Errorf("invalid world definition %s: %w", l.path, err)
	}

	slog.Info("World definition loaded", "path", l.path, "networks", len(def.Networks), "labs", len(def.Labs))
	return &def, nil
}

// checkReferences verifies what struct tags cannot: unique ids and hostnames,
// address ranges, and that gateways, leaks and requirements point at
// something that exists.
func (l *Loader) checkReferences(def *domain.WorldDefinition) error {
	networks := make(map[string]bool)
	hosts := make(map[string]bool)
	add := func(nd domain.NetworkDefinition, lab bool) error {
		if networks[nd.ID] && !lab {
			return fmt.Errorf("duplicate network id %q", nd.ID)
		}
		networks[nd.ID] = true
		if err := l.validate.Var(nd.Metadata.IPRange, "omitempty,cidr"); err != nil {
			return fmt.Errorf("network %s: ip_range %q is not a CIDR", nd.ID, nd.Metadata.IPRange)
		}
		for _, h := range nd.Hosts {
			if hosts[h.Hostname] && !lab {
				return fmt.Errorf("duplicate hostname %q", h.Hostname)
			}
			hosts[h.Hostname] = true
		}
		return nil
	}

	for _, nd := range def.Networks {
		if err := add(nd, false); err != nil {
			return err
		}
	}
	// Only one lab is built at a time, so labs may reuse ids and hostnames.
	for _, lab := range def.Labs {
		if err := add(lab, true); err != nil {
			return err
		}
	}

	all := append([]domain.NetworkDefinition(nil), def.Networks...)
	for _, lab := range def.Labs {
		all = append(all, lab)
	}
	for _, nd := range all {
		for _, g := range nd.Gateways {
			if !networks[g.Target] {
				return fmt.Errorf("network %s: gateway to unknown network %q", nd.ID, g.Target)
			}
			if !hosts[g.Host] {
				return fmt.Errorf("network %s: gateway host %q is not defined", nd.ID, g.Host)
			}
		}
		for _, req := range nd.Access.Requires {
			if !hosts[req] {
				return fmt.Errorf("network %s: required host %q is not defined", nd.ID, req)
			}
		}
		if nd.Access.Type == domain.AccessVPN && nd.Access.VPN == nil {
			return fmt.Errorf("network %s: VPN access needs a vpn account", nd.ID)
		}
		for _, h := range nd.Hosts {
			for _, leak := range h.Leaks {
				if !networks[leak.Network] {
					return fmt.Errorf("host %s: leak for unknown network %q", h.Hostname, leak.Network)
				}
			}
		}
	}
	return nil
}

var _ ports.WorldSource = (*Loader)(nil)
