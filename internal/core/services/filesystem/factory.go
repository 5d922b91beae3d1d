package filesystem

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
)

// LocalHostname is the name of the player's own machine.
const LocalHostname = "sampleos"

const binaryContent = "[BINARY CONTENT]"

// NewDefaultTree returns a tree with the standard layout for hostname,
// with the working directory set to the home directory.
func NewDefaultTree(hostname string, now time.Time) *domain.FileTree {
	tree := domain.NewFileTree()
	tree.SetClock(func() time.Time { return now })
	if err := Populate(tree, hostname, now); err != nil {
		// The layout is static; failing here means the tree code is broken.
		panic(fmt.Sprintf("filesystem: default layout: %v", err))
	}
	_ = tree.ChangeDirectory(tree.Home())
	return tree
}

// Populate writes the standard directories and files into tree.
func Populate(tree *domain.FileTree, hostname string, now time.Time) error {
	for _, dir := range []string{"/bin", "/etc", "/home/user/projects", "/usr/bin", "/usr/lib", "/var/log", "/tmp", "/root"} {
		if _, err := tree.MkdirAll(dir); err != nil {
			return err
		}
	}
	if root, err := tree.Resolve("/root"); err == nil {
		root.Owner = "root"
		root.Permissions = "rwx------"
	}

	files := []struct {
		path    string
		content string
	}{
		{"/etc/hostname", hostname},
		{"/etc/hosts", "127.0.0.1 localhost\n192.168.1.100 raspberry\n"},
		{"/etc/passwd", "root:x:0:0:root:/root:/bin/bash\nuser:x:1000:1000:Default User:/home/user:/bin/bash\n"},
		{"/home/user/readme.txt", "Welcome to SampleOS!\n\nThis is a virtual terminal environment for learning command line basics.\n"},
		{"/home/user/.bashrc", "# Sample bashrc file\nPS1='\\u@\\h:\\w\\$ '\nPATH=/bin:/usr/bin\n"},
		{"/home/user/projects/notes.txt", "Project ideas:\n- Terminal game\n- Virtual OS\n- File explorer\n"},
		{"/bin/ls", binaryContent},
		{"/bin/cd", binaryContent},
		{"/bin/cat", binaryContent},
		{"/usr/bin/grep", binaryContent},
		{"/usr/bin/find", binaryContent},
		{"/var/log/system.log", SystemLog(30, now.Add(-24*time.Hour))},
	}
	for _, f := range files {
		if _, err := tree.CreateFile(f.path, f.content); err != nil {
			return err
		}
	}
	return nil
}

var (
	logTemplates = []string{
		"[%[1]s] INFO: System initialized successfully",
		"[%[1]s] WARNING: Low disk space on /dev/sda1",
		"[%[1]s] INFO: User %[2]s logged in",
		"[%[1]s] INFO: Service %[3]s started",
		"[%[1]s] ERROR: Failed to connect to %[4]s",
		"[%[1]s] INFO: Package update completed",
		"[%[1]s] WARNING: CPU temperature above threshold",
	}
	logUsers    = []string{"root", "user", "admin", "system"}
	logServices = []string{"httpd", "sshd", "cron", "mysql", "docker"}
	logHosts    = []string{"192.168.1.1", "server.local", "api.example.com", "database"}
)

// SystemLog renders a syslog-like file. The generator is seeded with a
// constant so every machine shows the same history relative to start.
func SystemLog(lines int, start time.Time) string {
	rng := rand.New(rand.NewSource(42))
	ts := start
	out := make([]string, 0, lines)
	for i := 0; i < lines; i++ {
		ts = ts.Add(time.Duration(1+rng.Intn(59)) * time.Minute)
		tmpl := logTemplates[rng.Intn(len(logTemplates))]
		out = append(out, fmt.Sprintf(tmpl,
			ts.Format("2006-01-02 15:04:05"),
			logUsers[rng.Intn(len(logUsers))],
			logServices[rng.Intn(len(logServices))],
			logHosts[rng.Intn(len(logHosts))],
		))
	}
	return strings.Join(out, "\n") + "\n"
}
