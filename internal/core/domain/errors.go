package domain

import "errors"

// Filesystem errors
var (
	ErrNotFound       = errors.New("no such file or directory")
	ErrNotDirectory   = errors.New("not a directory")
	ErrIsDirectory    = errors.New("is a directory")
	ErrAlreadyExists  = errors.New("already exists")
	ErrParentNotFound = errors.New("parent directory not found")
	ErrInvalidPath    = errors.New("invalid path")
	ErrInvalidPattern = errors.New("invalid pattern")
)

// World errors
var (
	ErrNetworkNotFound       = errors.New("network not found")
	ErrNetworkNotDiscovered  = errors.New("network not discovered yet")
	ErrHostNotFound          = errors.New("host not found")
	ErrCredentialsRequired   = errors.New("VPN credentials required")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccessDenied          = errors.New("access denied")
	ErrAccessLocked          = errors.New("network access locked")
	ErrUnsupportedConnection = errors.New("unsupported connection type")
	ErrNotRoot               = errors.New("root access required")
	ErrAlreadyConnected      = errors.New("already connected")
	ErrNoSession             = errors.New("no remote session")
	ErrPortClosed            = errors.New("port closed")
)

// Catalog errors
var (
	ErrInvalidVersion       = errors.New("invalid software version")
	ErrInvalidSecurityLevel = errors.New("invalid security level")
	ErrVulnerabilityUnknown = errors.New("vulnerability not known")
	ErrNotScanned           = errors.New("vulnerability not in inventory")
)
