package domain

import (
	"sort"
	"strings"
	"time"
)

// ClueType is the ledger's coarse classification of evidence.
type ClueType string

const (
	ClueIPAddress      ClueType = "IPAddress"
	ClueVPNCredentials ClueType = "VPNCredentials"
	ClueSystemHostname ClueType = "SystemHostname"
	ClueNetworkName    ClueType = "NetworkName"
	ClueEmailReference ClueType = "EmailReference"
	ClueChatLog        ClueType = "ChatLog"
	ClueDocument       ClueType = "Document"
	ClueBrowserHistory ClueType = "BrowserHistory"
)

// ClueKind is the finer classification produced by the credential scanner.
type ClueKind string

const (
	KindVPNConfiguration   ClueKind = "VPNConfiguration"
	KindNetworkDiagram     ClueKind = "NetworkDiagram"
	KindEmailReference     ClueKind = "EmailReference"
	KindDocumentMention    ClueKind = "DocumentMention"
	KindBrowserBookmark    ClueKind = "BrowserBookmark"
	KindCertificate        ClueKind = "Certificate"
	KindConfigurationFile  ClueKind = "ConfigurationFile"
	KindLogEntry           ClueKind = "LogEntry"
	KindCredentialFile     ClueKind = "CredentialFile"
	KindIPAddressReference ClueKind = "IPAddressReference"
	KindDomainReference    ClueKind = "DomainReference"
)

// LedgerType maps a scanner kind onto the ledger type.
func (k ClueKind) LedgerType() ClueType {
	switch k {
	case KindVPNConfiguration:
		return ClueVPNCredentials
	case KindDomainReference:
		return ClueSystemHostname
	case KindIPAddressReference:
		return ClueIPAddress
	case KindEmailReference:
		return ClueEmailReference
	case KindBrowserBookmark:
		return ClueBrowserHistory
	default:
		return ClueDocument
	}
}

// UnknownNetwork is the target of clues not yet tied to a network.
const UnknownNetwork = "unknown"

// Well known clue property keys.
const (
	PropIPAddress     = "IPAddress"
	PropDomainName    = "DomainName"
	PropServerAddress = "ServerAddress"
	PropNetworkName   = "NetworkName"
	PropSystemList    = "SystemList"
	PropContactInfo   = "ContactInfo"
	PropSoftware      = "Software"
)

// DiscoveryClue is a fragment of evidence pointing at a network.
type DiscoveryClue struct {
	ID           string            `json:"id"`
	NetworkID    string            `json:"network_id"`
	Kind         ClueKind          `json:"kind"`
	Properties   map[string]string `json:"properties"`
	Reliability  int               `json:"reliability"`
	SourceHost   string            `json:"source_host"`
	SourceFile   string            `json:"source_file"`
	DiscoveredAt time.Time         `json:"discovered_at"`
}

// NewDiscoveryClue builds a fully reliable clue.
func NewDiscoveryClue(networkID string, kind ClueKind, sourceHost, sourceFile string) DiscoveryClue {
	return DiscoveryClue{
		NetworkID:   networkID,
		Kind:        kind,
		Properties:  make(map[string]string),
		Reliability: 100,
		SourceHost:  sourceHost,
		SourceFile:  sourceFile,
	}
}

func (c DiscoveryClue) Type() ClueType {
	return c.Kind.LedgerType()
}

// Fingerprint identifies the evidence itself, independent of when and where it
// was found, so repeated scans do not count twice.
func (c DiscoveryClue) Fingerprint() string {
	keys := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(c.Kind))
	b.WriteByte('|')
	b.WriteString(c.NetworkID)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.Properties[k])
	}
	return b.String()
}

// IsSufficientForDiscovery reports whether this clue alone carries enough
// detail to identify its network.
func (c DiscoveryClue) IsSufficientForDiscovery() bool {
	has := func(k string) bool { return c.Properties[k] != "" }
	switch c.Kind {
	case KindVPNConfiguration:
		return has(PropServerAddress) && has(PropNetworkName)
	case KindNetworkDiagram:
		return has(PropSystemList) && c.Reliability >= 80
	case KindEmailReference:
		return has(PropNetworkName) && has(PropContactInfo)
	default:
		return c.Reliability >= 50
	}
}
