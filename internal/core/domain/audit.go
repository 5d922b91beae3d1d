package domain

import (
	"errors"
	"time"
)

// AuditAction identifies what kind of player action was recorded.
type AuditAction string

const (
	ActionCommand      AuditAction = "COMMAND"
	ActionConnect      AuditAction = "NETWORK_CONNECT"
	ActionSSH          AuditAction = "SSH_LOGIN"
	ActionScan         AuditAction = "CREDENTIAL_SCAN"
	ActionVulnScan     AuditAction = "VULN_SCAN"
	ActionExploit      AuditAction = "EXPLOIT"
	ActionSave         AuditAction = "PROGRESS_SAVE"
	ActionReportExport AuditAction = "REPORT_EXPORT"
	ActionInfo         AuditAction = "INFO"
)

var (
	ErrInvalidAction = errors.New("invalid audit action")
	ErrMissingActor  = errors.New("audit entry needs an actor")
)

// AuditLog is one recorded player action.
type AuditLog struct {
	ID        uint        `json:"id"`
	Actor     string      `json:"actor"`
	Session   string      `json:"session"`
	Action    AuditAction `json:"action"`
	Target    string      `json:"target"`
	Details   string      `json:"details"`
	Success   bool        `json:"success"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewAuditLog validates and stamps a new entry.
func NewAuditLog(actor, session string, action AuditAction, target, details string, success bool) (*AuditLog, error) {
	if actor == "" {
		return nil, ErrMissingActor
	}
	if !isValidAction(action) {
		return nil, ErrInvalidAction
	}
	return &AuditLog{
		Actor:     actor,
		Session:   session,
		Action:    action,
		Target:    target,
		Details:   details,
		Success:   success,
		Timestamp: time.Now().UTC(),
	}, nil
}

func isValidAction(action AuditAction) bool {
	switch action {
	case ActionCommand, ActionConnect, ActionSSH, ActionScan,
		ActionVulnScan, ActionExploit, ActionSave, ActionReportExport, ActionInfo:
		return true
	}
	return false
}
