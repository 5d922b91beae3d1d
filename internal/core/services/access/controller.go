package access

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/telemetry"
)

// RootAccessChecker answers whether the player owns a host.
type RootAccessChecker interface {
	HasRootAccess(hostname string) bool
}

// Request is what a connection attempt presents to the controller.
type Request struct {
	NetworkID string
	// Source is the network the attempt originates from.
	Source string
	VPN    *domain.VPNCredential
	// Security is the target network's profile; nil skips window checks.
	Security *domain.SecurityProfile
}

// Controller evaluates access profiles and keeps their lockout state.
type Controller struct {
	profiles map[string]*domain.AccessProfile
	roots    RootAccessChecker
	now      func() time.Time
	mu       sync.Mutex
}

func NewController(roots RootAccessChecker, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		profiles: make(map[string]*domain.AccessProfile),
		roots:    roots,
		now:      now,
	}
}

// SetProfile installs or replaces the profile of a network.
func (c *Controller) SetProfile(p *domain.AccessProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[p.NetworkID] = p
}

// Profile returns the profile of a network, creating the default VPN profile
// without requirements when none was configured.
func (c *Controller) Profile(networkID string) *domain.AccessProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile(networkID)
}

func (c *Controller) profile(networkID string) *domain.AccessProfile {
	p, ok := c.profiles[networkID]
	if !ok {
		p = domain.NewAccessProfile(networkID, domain.AccessVPN)
		c.profiles[networkID] = p
	}
	return p
}

// CheckAccess validates req against the network's profile. Failed
// validations count towards the lockout; a missing VPN credential does not.
func (c *Controller) CheckAccess(req Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	p := c.profile(req.NetworkID)
	if p.IsLocked(now) {
		return p.LockedError()
	}

	if req.Security != nil && !req.Security.IsAccessAllowed(req.Source, now) {
		return fmt.Errorf("%w: connections from %s are not allowed at this time", domain.ErrAccessDenied, req.Source)
	}

	var err error
	switch p.Type {
	case domain.AccessPublic, domain.AccessDirectConnection:
	case domain.AccessVPN:
		if req.VPN == nil {
			return fmt.Errorf("%w for %s", domain.ErrCredentialsRequired, req.NetworkID)
		}
		err = checkVPN(p, *req.VPN)
	case domain.AccessCompromised:
		err = c.checkCompromised(p)
	case domain.AccessInvitation:
		err = fmt.Errorf("%w: %s is invitation only", domain.ErrAccessDenied, req.NetworkID)
	default:
		err = fmt.Errorf("%w: unknown access type %q", domain.ErrAccessDenied, p.Type)
	}

	if err != nil {
		if p.RecordFailure(now) {
			telemetry.AccessLockouts.WithLabelValues(req.NetworkID).Inc()
			slog.Warn("Network access locked", "network", req.NetworkID, "until", p.LockExpiry)
		}
		return err
	}
	p.RecordSuccess()
	return nil
}

func checkVPN(p *domain.AccessProfile, cred domain.VPNCredential) error {
	for _, r := range p.Requirements {
		req, ok := r.(domain.VPNCredentialRequirement)
		if !ok {
			continue
		}
		if req.Username != cred.Username || req.Password != cred.Password || req.Server != cred.Server {
			return fmt.Errorf("%w for %s", domain.ErrInvalidCredentials, p.NetworkID)
		}
	}
	return nil
}

func (c *Controller) checkCompromised(p *domain.AccessProfile) error {
	for _, r := range p.Requirements {
		req, ok := r.(domain.CompromisedSystemRequirement)
		if !ok {
			continue
		}
		if c.roots == nil || !c.roots.HasRootAccess(req.Hostname) {
			return fmt.Errorf("%w: requires %s", domain.ErrAccessDenied, req.Describe())
		}
	}
	return nil
}
