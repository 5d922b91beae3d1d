package world

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	"github.com/lcalzada-xor/netcity/internal/core/services/auth"
	"github.com/lcalzada-xor/netcity/internal/core/services/catalog"
	"github.com/lcalzada-xor/netcity/internal/core/services/filesystem"
	"github.com/valyala/fasttemplate"
)

// Builder turns a world definition into networks and hosts.
type Builder struct {
	catalog   *catalog.Generator
	auth      *auth.AuthService
	skeletons ports.SkeletonSource
	seed      int64
	now       func() time.Time
}

// NewBuilder creates a builder. skeletons may be nil; seed varies every host
// of the world while keeping each one reproducible.
func NewBuilder(gen *catalog.Generator, authSvc *auth.AuthService, skeletons ports.SkeletonSource, seed int64, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{catalog: gen, auth: authSvc, skeletons: skeletons, seed: seed, now: now}
}

// NewLocalHost creates the player's own machine.
func NewLocalHost(now time.Time) *domain.Host {
	h := domain.NewHost(domain.HostSpec{
		Name:     "Local Machine",
		Hostname: filesystem.LocalHostname,
		IP:       "127.0.0.1",
		Type:     domain.DeviceDesktop,
		Level:    domain.SecurityMedium,
	}, now, 0)
	h.FS = filesystem.NewDefaultTree(h.Hostname, now)
	return h
}

// ExpandPlaceholders fills {{hostname}}, {{ip}}, {{user}} and {{name}} in
// content. Unknown placeholders are kept.
func ExpandPlaceholders(content string, h *domain.Host) string {
	if !strings.Contains(content, "{{") {
		return content
	}
	return fasttemplate.ExecuteStringStd(content, "{{", "}}", map[string]interface{}{
		"hostname": h.Hostname,
		"ip":       h.IP,
		"user":     h.DefaultUser,
		"name":     h.Name,
	})
}

// Build adds every network of def to w, plus the lab network registered for
// difficulty, if any.
func (b *Builder) Build(ctx context.Context, w *World, def *domain.WorldDefinition, difficulty string) error {
	defs := append([]domain.NetworkDefinition(nil), def.Networks...)
	if lab, ok := def.Labs[difficulty]; ok {
		defs = append(defs, lab)
	}

	byID := make(map[string]domain.NetworkDefinition, len(defs))
	hosts := make(map[string]*domain.Host)
	for _, nd := range defs {
		byID[nd.ID] = nd
		n := domain.NewNetwork(nd.ID, nd.Metadata, nd.Security)
		for _, hd := range nd.Hosts {
			h, err := b.buildHost(ctx, hd)
			if err != nil {
				return fmt.Errorf("network %s: host %s: %w", nd.ID, hd.Hostname, err)
			}
			if err := n.AddSystem(h); err != nil {
				return fmt.Errorf("network %s: %w", nd.ID, err)
			}
			hosts[strings.ToLower(h.Hostname)] = h
		}
		for _, g := range nd.Gateways {
			n.AddGateway(domain.Gateway{Type: g.Type, SourceNetwork: nd.ID, TargetNetwork: g.Target, Hostname: g.Host})
		}
		if err := w.AddNetwork(n); err != nil {
			return err
		}
		w.access.SetProfile(AccessProfileFor(nd))
		if nd.Discovered {
			w.ledger.MarkDiscovered(nd.ID)
		}
	}

	// Leaks point at hosts of any network, so they are planted last.
	for _, nd := range defs {
		for _, hd := range nd.Hosts {
			h := hosts[strings.ToLower(hd.Hostname)]
			if err := b.plantLeaks(h, hd.Leaks, byID, hosts); err != nil {
				return fmt.Errorf("network %s: host %s: %w", nd.ID, hd.Hostname, err)
			}
		}
	}

	slog.Info("World built", "networks", len(defs), "hosts", len(hosts), "difficulty", difficulty)
	return nil
}

// AccessProfileFor derives the access profile of a network definition. An
// unset type means VPN, except for the public network.
func AccessProfileFor(nd domain.NetworkDefinition) *domain.AccessProfile {
	typ := nd.Access.Type
	if typ == "" {
		typ = domain.AccessVPN
		if nd.ID == PublicNetworkID {
			typ = domain.AccessPublic
		}
	}
	var reqs []domain.AccessRequirement
	if v := nd.Access.VPN; v != nil {
		reqs = append(reqs, domain.VPNCredentialRequirement{Username: v.Username, Password: v.Password, Server: v.Server})
	}
	for _, host := range nd.Access.Requires {
		reqs = append(reqs, domain.CompromisedSystemRequirement{Hostname: host})
	}
	return domain.NewAccessProfile(nd.ID, typ, reqs...)
}

func (b *Builder) buildHost(ctx context.Context, hd domain.HostDefinition) (*domain.Host, error) {
	now := b.now()
	h := domain.NewHost(hd.HostSpec, now, b.seed)
	h.FS = filesystem.NewDefaultTree(h.Hostname, now)

	if b.skeletons != nil {
		files, err := b.skeletons.Files(h.Type)
		if err != nil {
			return nil, err
		}
		if err := writeFiles(h, files); err != nil {
			return nil, err
		}
	}
	if err := writeFiles(h, hd.Files); err != nil {
		return nil, err
	}

	b.catalog.Populate(h)
	for _, name := range hd.Software {
		if _, err := b.catalog.Install(h, name); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(hd.Vulnerabilities) {
		sw, err := b.catalog.Install(h, name)
		if err != nil {
			return nil, err
		}
		if err := b.catalog.Plant(ctx, sw, hd.Vulnerabilities[name]); err != nil {
			return nil, err
		}
	}
	for _, user := range sortedKeys(hd.Accounts) {
		if err := b.auth.SetPassword(h, user, hd.Accounts[user]); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func writeFiles(h *domain.Host, files map[string]string) error {
	for _, path := range sortedKeys(files) {
		if _, err := h.FS.WriteFile(ExpandPlaceholders(path, h), ExpandPlaceholders(files[path], h)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func (b *Builder) plantLeaks(h *domain.Host, leaks []domain.LeakDefinition, byID map[string]domain.NetworkDefinition, hosts map[string]*domain.Host) error {
	if len(leaks) == 0 {
		return nil
	}
	bundles := make([]domain.NetworkCredentials, 0, len(leaks))
	for _, leak := range leaks {
		nd, ok := byID[leak.Network]
		if !ok {
			return fmt.Errorf("leak: %w: %s", domain.ErrNetworkNotFound, leak.Network)
		}
		bundle := domain.NetworkCredentials{NetworkID: nd.ID}
		if v := nd.Access.VPN; v != nil {
			protocol := v.Protocol
			if protocol == "" {
				protocol = "OpenVPN"
			}
			bundle.VPN = &domain.VPNCredential{
				NetworkID:   nd.ID,
				NetworkName: nd.Metadata.Name,
				Username:    v.Username,
				Password:    v.Password,
				Server:      v.Server,
				Protocol:    protocol,
				Port:        v.Port,
			}
		}
		for _, web := range leak.Web {
			bundle.Web = append(bundle.Web, domain.WebCredential{URL: web.URL, Username: web.Username, Password: web.Password})
		}
		for _, target := range leak.SSHKeys {
			user, hostname, ok := strings.Cut(target, "@")
			if !ok {
				return fmt.Errorf("leak: ssh key target %q is not user@host", target)
			}
			th, ok := hosts[strings.ToLower(hostname)]
			if !ok {
				return fmt.Errorf("leak: %w: %s", domain.ErrHostNotFound, hostname)
			}
			priv, pub, err := filesystem.GenerateKeyPair(h.Rand(), target)
			if err != nil {
				return err
			}
			if err := b.auth.AuthorizeKey(th, user, pub); err != nil {
				return err
			}
			bundle.SSH = append(bundle.SSH, domain.SSHCredential{Host: th.Hostname, Username: user, PrivateKey: priv})
		}
		bundles = append(bundles, bundle)
	}
	return filesystem.PlantDiscoveryFiles(h.FS, bundles, h.Rand(), b.now())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
