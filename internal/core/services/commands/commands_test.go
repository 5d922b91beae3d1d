package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/services/access"
	"github.com/lcalzada-xor/netcity/internal/core/services/auth"
	"github.com/lcalzada-xor/netcity/internal/core/services/catalog"
	"github.com/lcalzada-xor/netcity/internal/core/services/connection"
	"github.com/lcalzada-xor/netcity/internal/core/services/discovery"
	"github.com/lcalzada-xor/netcity/internal/core/services/player"
	"github.com/lcalzada-xor/netcity/internal/core/services/reporting"
	"github.com/lcalzada-xor/netcity/internal/core/services/scanner"
	"github.com/lcalzada-xor/netcity/internal/core/services/shell"
	"github.com/lcalzada-xor/netcity/internal/core/services/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

const mysqlCVE = "CVE-2012-2122"

type MockVulnerabilityMatcher struct {
	mock.Mock
}

func (m *MockVulnerabilityMatcher) Match(ctx context.Context, sw *domain.Software) ([]domain.Vulnerability, error) {
	args := m.Called(ctx, sw)
	if v := args.Get(0); v != nil {
		return v.([]domain.Vulnerability), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockReportExporter struct {
	mock.Mock
}

func (m *MockReportExporter) Export(r *domain.EngagementReport) ([]byte, error) {
	args := m.Called(r)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockReportExporter) Extension() string { return "pdf" }

type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

type recordingSink struct {
	text    strings.Builder
	cleared int
}

func (s *recordingSink) AppendText(text string) { s.text.WriteString(text) }
func (s *recordingSink) SetColor(domain.Color)  {}
func (s *recordingSink) Clear()                 { s.cleared++; s.text.Reset() }
func (s *recordingSink) DisplayPrompt(string)   {}

func cityDefinition() *domain.WorldDefinition {
	return &domain.WorldDefinition{
		Networks: []domain.NetworkDefinition{
			{
				ID:         world.PublicNetworkID,
				Metadata:   domain.NetworkMetadata{Name: "Internet", Type: domain.NetworkISP},
				Discovered: true,
				Hosts: []domain.HostDefinition{{
					HostSpec: domain.HostSpec{Name: "Cafe PC", Hostname: "cafe-pc.net", IP: "203.0.113.10", Type: domain.DeviceDesktop},
					Files: map[string]string{
						"/home/user/Documents/notes.txt": "file server files.corp.local at 10.10.0.5",
					},
					Leaks: []domain.LeakDefinition{{
						Network: "corp_megacorp",
						SSHKeys: []string{"admin@files.corp.local"},
					}},
				}},
			},
			{
				ID:       "corp_megacorp",
				Metadata: domain.NetworkMetadata{Name: "MegaCorp", Type: domain.NetworkCorporate, IPRange: "10.10.0.0/16"},
				Security: domain.SecurityProfile{Level: domain.SecurityMedium, RequiresVPN: true},
				Access: domain.AccessDefinition{
					Type: domain.AccessVPN,
					VPN:  &domain.VPNDefinition{Username: "j.smith", Password: "Summer2023!", Server: "vpn.megacorp.com"},
				},
				Hosts: []domain.HostDefinition{{
					HostSpec:        domain.HostSpec{Name: "Files", Hostname: "files.corp.local", IP: "10.10.0.5", Type: domain.DeviceStorage, Level: domain.SecurityMedium},
					Vulnerabilities: map[string]string{"MySQL": mysqlCVE},
					Accounts:        map[string]string{"admin": "hunter2"},
				}},
			},
			{
				ID:         "dark_underground_market",
				Metadata:   domain.NetworkMetadata{Name: "Market", Description: "No questions asked", Type: domain.NetworkCriminal},
				Discovered: true,
				Access:     domain.AccessDefinition{Type: domain.AccessPublic},
			},
		},
	}
}

type fixture struct {
	world  *world.World
	engine *shell.Engine
	quits  int
}

func newFixture(t *testing.T, d Deps) *fixture {
	t.Helper()
	clock := func() time.Time { return fixedNow }

	matcher := new(MockVulnerabilityMatcher)
	matcher.On("Match", mock.Anything, mock.MatchedBy(func(sw *domain.Software) bool { return sw.Name == "MySQL" })).
		Return([]domain.Vulnerability{{CVE: mysqlCVE, Name: "MySQL Authentication Bypass", Severity: 7.5, Software: "MySQL"}}, nil)
	matcher.On("Match", mock.Anything, mock.Anything).Return([]domain.Vulnerability{}, nil)

	state := player.NewState(nil, clock)
	gen := catalog.NewGenerator(matcher, clock)
	authSvc := auth.NewAuthService()
	w := world.New(world.Deps{
		Local:       world.NewLocalHost(fixedNow),
		Access:      access.NewController(state, clock),
		Connections: connection.NewSimulator(1, clock),
		Ledger:      discovery.NewLedger(),
		Player:      state,
		Scanner:     scanner.NewScanner(clock),
		Catalog:     gen,
		Auth:        authSvc,
		Now:         clock,
	})
	require.NoError(t, world.NewBuilder(gen, authSvc, nil, 7, clock).Build(context.Background(), w, cityDefinition(), "standard"))

	f := &fixture{world: w}
	d.World = w
	d.Reports = reporting.NewReportGenerator(w, clock)
	d.Quit = func() { f.quits++ }

	registry := shell.NewRegistry()
	require.NoError(t, Register(registry, d))
	f.engine = shell.NewEngine(registry, shell.NewAliasTable(), w)
	return f
}

// run processes one line and returns what it printed.
func (f *fixture) run(line string) string {
	sink := &recordingSink{}
	f.engine.Process(context.Background(), line, sink)
	return sink.text.String()
}

// breach roots the cafe machine and harvests it, revealing MegaCorp.
func (f *fixture) breach(t *testing.T) {
	t.Helper()
	cafe, err := f.world.ResolveHost("cafe-pc.net")
	require.NoError(t, err)
	cafe.GrantRootAccess()
	out := f.run("scan-creds cafe-pc.net")
	require.True(t, f.engine.LastCommandSucceeded(), out)
}

func TestAll_EveryCommandDocumented(t *testing.T) {
	for _, c := range All(Deps{}) {
		assert.NotEmpty(t, c.Name())
		assert.NotEmpty(t, c.Description(), c.Name())
		assert.True(t, strings.HasPrefix(c.Usage(), c.Name()), c.Name())
	}
}

func TestFilesystemCommands(t *testing.T) {
	f := newFixture(t, Deps{})

	f.run("mkdir -p /tmp/work/logs && cd /tmp/work && touch a.txt .hidden")
	assert.Equal(t, "/tmp/work\n", f.run("pwd"))

	out := f.run("ls")
	assert.Contains(t, out, "[DIR] logs")
	assert.Contains(t, out, "a.txt")
	assert.NotContains(t, out, ".hidden")
	assert.Contains(t, f.run("ls -a"), ".hidden")

	out = f.run("cat missing.txt")
	assert.Contains(t, out, "Error:")
	assert.False(t, f.engine.LastCommandSucceeded())

	assert.Contains(t, f.run("mkdir"), "usage")
}

func TestPipeline_GrepAndCount(t *testing.T) {
	f := newFixture(t, Deps{})
	tree := f.world.Local().FS
	_, err := tree.MkdirAll("/home/user")
	require.NoError(t, err)
	_, err = tree.WriteFile("/home/user/words.txt", "alpha\nbeta\nalphabet\ngamma")
	require.NoError(t, err)

	assert.Equal(t, "Lines: 2\n", f.run("cat /home/user/words.txt | grep alpha | wc -l"))
	assert.Equal(t, "2\n", f.run("grep -v -c alpha /home/user/words.txt"))
	assert.Equal(t, "2:beta\n", f.run("cat /home/user/words.txt | grep -n ^b"))
	assert.Equal(t, "Lines: 4  Words: 4  Chars: 25\n", f.run("wc /home/user/words.txt"))

	// An empty match still lets the next stage run.
	assert.Equal(t, "Lines: 0\n", f.run("cat /home/user/words.txt | grep zeta | wc -l"))
	assert.Contains(t, f.run("grep ( /home/user/words.txt"), "invalid pattern")
}

func TestChainingAndAliases(t *testing.T) {
	f := newFixture(t, Deps{})

	assert.Equal(t, "fallback\n", f.run("false || echo fallback"))
	assert.Equal(t, "", f.run("false && echo never"))
	assert.Equal(t, "a b", f.run("echo -n a b"))

	assert.Equal(t, "Alias created: hi='echo hello'\n", f.run("alias hi=echo hello"))
	assert.Equal(t, "hello world\n", f.run("hi world"))
	assert.Contains(t, f.run("alias"), "hi='echo hello'")
	assert.Equal(t, "Alias removed: hi\n", f.run("alias -r hi"))
	assert.Contains(t, f.run("hi"), "command not found")
}

func TestHelp(t *testing.T) {
	f := newFixture(t, Deps{})

	out := f.run("help")
	for _, name := range []string{"ls", "vpn-connect", "vuln-scan", "report"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, f.run("help exploit"), "Usage: exploit <host> <cve>")
	assert.Contains(t, f.run("help nope"), "unknown command")
}

func TestNetworkOverview(t *testing.T) {
	f := newFixture(t, Deps{})

	out := f.run("netstat")
	assert.Contains(t, out, "NETWORK DEVICES")
	assert.Contains(t, out, "cafe-pc.net")
	assert.Contains(t, out, "203.0.113.10")
	assert.Contains(t, f.run("netstat -x"), "unknown option")

	out = f.run("networks")
	assert.Contains(t, out, "Current Network: Internet (public)")
	assert.Contains(t, out, "[LOCKED] Market - No questions asked")
	assert.NotContains(t, out, "MegaCorp")

	assert.Contains(t, f.run("nmap cafe-pc.net"), "Scanning cafe-pc.net for open ports...")
	assert.Contains(t, f.run("nmap nowhere"), "Error:")
}

func TestPs_IsStable(t *testing.T) {
	f := newFixture(t, Deps{})

	first := f.run("ps aux")
	assert.True(t, strings.HasPrefix(first, "PID   USER     %CPU %MEM  COMMAND\n"))
	assert.Contains(t, first, "/sbin/init")
	assert.Equal(t, first, f.run("ps aux"))
}

func TestVPNConnect_WithoutCredentials(t *testing.T) {
	f := newFixture(t, Deps{})

	out := f.run("vpn-connect corp_megacorp")
	assert.Contains(t, out, "VPN connection failed")
	assert.False(t, f.engine.LastCommandSucceeded())
}

func TestVPNConnect_FromConfigFile(t *testing.T) {
	f := newFixture(t, Deps{})
	f.breach(t)

	tree := f.world.Local().FS
	_, err := tree.MkdirAll("/home/user")
	require.NoError(t, err)
	_, err = tree.WriteFile("/home/user/corp.ovpn", "client\nremote vpn.megacorp.com 1194\n# Username: j.smith\n# Password: Summer2023!\n")
	require.NoError(t, err)

	out := f.run("vpn-connect corp_megacorp --config /home/user/corp.ovpn")
	assert.Contains(t, out, "Connecting to VPN server vpn.megacorp.com:1194...")
	assert.Contains(t, out, "VPN connection established!")
	assert.Equal(t, "corp_megacorp", f.world.CurrentNetworkID())
}

func TestCampaign(t *testing.T) {
	f := newFixture(t, Deps{})
	assert.Contains(t, f.run("owned"), "You haven't compromised any systems yet.")
	assert.Contains(t, f.run("vulns"), "No vulnerabilities in database.")

	f.breach(t)
	assert.Contains(t, f.run("creds"), "[corp_megacorp]")
	assert.Contains(t, f.run("networks --discovered"), "[LOCKED] MegaCorp")

	out := f.run("vpn-connect corp_megacorp")
	require.Contains(t, out, "VPN connection established!", out)
	assert.Contains(t, out, "Your IP address is now in range: 10.10.0.0/16")
	assert.Contains(t, f.run("connections"), "ACTIVE NETWORK CONNECTIONS")

	out = f.run("vuln-scan files.corp.local 3306")
	assert.Contains(t, out, "[VULNERABLE] "+mysqlCVE)
	assert.Contains(t, out, "Vulnerabilities added to your database.")
	assert.Contains(t, f.run("vulns --sort=severity"), "files.corp.local:3306")
	assert.Contains(t, f.run("vulns --sort=size"), "unknown sort key")

	assert.Contains(t, f.run("exploit files.corp.local "+strings.ToLower(mysqlCVE)), "Root access granted")
	assert.Contains(t, f.run("exploit files.corp.local "+mysqlCVE), "already have root access")

	out = f.run("owned")
	assert.Contains(t, out, "COMPROMISED SYSTEMS")
	assert.Contains(t, out, "files.corp.local")
	assert.Contains(t, out, "ROOT")

	assert.Equal(t, "Disconnected from corp_megacorp. Back on the public network.\n", f.run("disconnect"))
	assert.Contains(t, f.run("disconnect"), "not connected")
}

func TestSSH(t *testing.T) {
	f := newFixture(t, Deps{})
	f.breach(t)
	f.run("vpn-connect corp_megacorp")
	require.Equal(t, "corp_megacorp", f.world.CurrentNetworkID())

	t.Run("stored key", func(t *testing.T) {
		out := f.run("ssh admin@files.corp.local")
		assert.Contains(t, out, "Authenticated with stored private key.")
		assert.Contains(t, out, "Connected to Files (10.10.0.5)")
		assert.Equal(t, 1, f.world.SessionDepth())
		assert.Equal(t, "Connection to files.corp.local closed.\n", f.run("exit"))
		assert.Contains(t, f.run("exit"), "use 'quit'")
	})

	t.Run("wrong passwords", func(t *testing.T) {
		out := f.run("ssh guest@files.corp.local")
		assert.Contains(t, out, "guest@files.corp.local's password: ")
		require.True(t, f.engine.IsAwaitingInteractiveInput())

		assert.Contains(t, f.run("one"), "Permission denied, please try again.")
		f.run("two")
		out = f.run("three")
		assert.Contains(t, out, "permission denied")
		assert.False(t, f.engine.IsAwaitingInteractiveInput())
		assert.Equal(t, 0, f.world.SessionDepth())
	})

	t.Run("password", func(t *testing.T) {
		f.run("ssh root@files.corp.local")
		require.True(t, f.engine.IsAwaitingInteractiveInput())
		assert.Contains(t, f.run("escape"), "Connection aborted")
		assert.False(t, f.engine.IsAwaitingInteractiveInput())
	})
}

func TestQuit(t *testing.T) {
	f := newFixture(t, Deps{})

	f.run("quit -n")
	assert.Equal(t, 1, f.quits)

	f.run("quit")
	require.True(t, f.engine.IsAwaitingInteractiveInput())
	assert.Equal(t, "Please answer y or n: ", f.run("maybe"))
	assert.Equal(t, "Quit cancelled\n", f.run("cancel"))
	assert.Equal(t, 1, f.quits)

	f.run("quit")
	f.run("y")
	assert.Equal(t, 2, f.quits)
	assert.False(t, f.engine.IsAwaitingInteractiveInput())
}

func TestGum(t *testing.T) {
	f := newFixture(t, Deps{})

	t.Run("choose", func(t *testing.T) {
		out := f.run("gum choose --title Pick red green blue")
		assert.Contains(t, out, "> red")
		assert.Contains(t, f.run("down"), "> green")
		assert.Equal(t, "green\n", f.run(""))
		assert.True(t, f.engine.LastCommandSucceeded())
	})

	t.Run("pick by number", func(t *testing.T) {
		f.run("gum choose red green blue")
		assert.Equal(t, "blue\n", f.run("3"))
	})

	t.Run("confirm declined", func(t *testing.T) {
		f.run("gum confirm --prompt=Proceed?")
		assert.Equal(t, "no\n", f.run("n"))
		assert.False(t, f.engine.LastCommandSucceeded())
	})

	t.Run("escape", func(t *testing.T) {
		f.run("gum choose a b")
		assert.Equal(t, "Cancelled\n", f.run("esc"))
		assert.False(t, f.engine.LastCommandSucceeded())
	})

	assert.Contains(t, f.run("gum choose"), errNoOptions.Error())
}

func TestReport(t *testing.T) {
	t.Run("summary only", func(t *testing.T) {
		f := newFixture(t, Deps{})
		assert.Contains(t, f.run("report"), "ENGAGEMENT REPORT")
		assert.Contains(t, f.run("report --pdf"), errNoExporter.Error())
	})

	t.Run("pdf", func(t *testing.T) {
		exporter := new(MockReportExporter)
		store := new(MockReportStore)
		exporter.On("Export", mock.Anything).Return([]byte("%PDF"), nil)
		store.On("Save", mock.Anything, "engagement_20240601_120000.pdf", []byte("%PDF")).Return("/reports/engagement.pdf", nil)

		f := newFixture(t, Deps{Exporter: exporter, Store: store})
		assert.Contains(t, f.run("report --pdf"), "Report written to /reports/engagement.pdf")
		exporter.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		exporter := new(MockReportExporter)
		store := new(MockReportStore)
		exporter.On("Export", mock.Anything).Return([]byte("%PDF"), nil)
		store.On("Save", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("disk full"))

		f := newFixture(t, Deps{Exporter: exporter, Store: store})
		assert.Contains(t, f.run("report --pdf"), "save report: disk full")
	})
}
