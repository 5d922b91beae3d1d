package domain

import (
	"fmt"
	"time"
)

// AccessType is the policy gating entry to a network.
type AccessType string

const (
	AccessPublic           AccessType = "Public"
	AccessVPN              AccessType = "VPN"
	AccessDirectConnection AccessType = "DirectConnection"
	AccessCompromised      AccessType = "Compromised"
	AccessInvitation       AccessType = "Invitation"
)

const (
	MaxFailedAttempts = 3
	LockoutDuration   = 15 * time.Minute
)

// AccessRequirement is one condition of an access profile.
type AccessRequirement interface {
	Describe() string
}

// VPNCredentialRequirement must be matched exactly by the presented VPN credential.
type VPNCredentialRequirement struct {
	Username string
	Password string
	Server   string
}

func (r VPNCredentialRequirement) Describe() string {
	return fmt.Sprintf("VPN account %s on %s", r.Username, r.Server)
}

// CompromisedSystemRequirement needs root on the named gateway host.
type CompromisedSystemRequirement struct {
	Hostname string
}

func (r CompromisedSystemRequirement) Describe() string {
	return fmt.Sprintf("root access on %s", r.Hostname)
}

// AccessProfile holds the policy of one network plus its lockout state.
type AccessProfile struct {
	NetworkID      string
	Type           AccessType
	Requirements   []AccessRequirement
	FailedAttempts int
	Locked         bool
	LockExpiry     time.Time
}

func NewAccessProfile(networkID string, typ AccessType, reqs ...AccessRequirement) *AccessProfile {
	return &AccessProfile{NetworkID: networkID, Type: typ, Requirements: reqs}
}

// IsLocked reports an active lockout. An expired lock is cleared; the failure
// counter is kept until the next success.
func (p *AccessProfile) IsLocked(now time.Time) bool {
	if !p.Locked {
		return false
	}
	if now.Before(p.LockExpiry) {
		return true
	}
	p.Locked = false
	return false
}

// LockedError describes the active lockout.
func (p *AccessProfile) LockedError() error {
	return fmt.Errorf("%w until %s", ErrAccessLocked, p.LockExpiry.Format("15:04"))
}

// RecordFailure counts a failed validation and reports whether it locked the profile.
func (p *AccessProfile) RecordFailure(now time.Time) bool {
	p.FailedAttempts++
	if p.FailedAttempts >= MaxFailedAttempts {
		p.Locked = true
		p.LockExpiry = now.Add(LockoutDuration)
		return true
	}
	return false
}

func (p *AccessProfile) RecordSuccess() {
	p.FailedAttempts = 0
	p.Locked = false
	p.LockExpiry = time.Time{}
}
