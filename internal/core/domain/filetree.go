package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	DefaultOwner       = "user"
	DefaultPermissions = "rwxr--r--"
	DefaultHome        = "/home/user"
)

// Node is a single file or directory inside a FileTree.
// Children are owned by their parent; the parent link is a plain back-reference.
type Node struct {
	Name        string
	IsDir       bool
	Content     string
	Owner       string
	Permissions string
	CreatedAt   time.Time
	ModifiedAt  time.Time

	parent   *Node
	children map[string]*Node
}

func newNode(name string, isDir bool, now time.Time) *Node {
	n := &Node{
		Name:        name,
		IsDir:       isDir,
		Owner:       DefaultOwner,
		Permissions: DefaultPermissions,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if isDir {
		n.children = make(map[string]*Node)
	}
	return n
}

// Parent returns the containing directory, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Size is the content length in bytes.
func (n *Node) Size() int {
	return len(n.Content)
}

// Child looks up a direct child by name.
func (n *Node) Child(name string) (*Node, bool) {
	if !n.IsDir {
		return nil, false
	}
	c, ok := n.children[name]
	return c, ok
}

// Children returns the direct children sorted by name.
func (n *Node) Children() []*Node {
	if !n.IsDir {
		return nil
	}
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Path returns the absolute path of the node.
func (n *Node) Path() string {
	if n.parent == nil {
		return "/"
	}
	var parts []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

func (n *Node) addChild(c *Node) error {
	if !n.IsDir {
		return fmt.Errorf("%w: %s", ErrNotDirectory, n.Path())
	}
	if !validName(c.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, c.Name)
	}
	if _, exists := n.children[c.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, joinPath(n.Path(), c.Name))
	}
	c.parent = n
	n.children[c.Name] = c
	return nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.Contains(name, "/")
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// FileTree is a machine filesystem with a current working directory.
type FileTree struct {
	root  *Node
	cwd   *Node
	home  string
	clock func() time.Time
}

// NewFileTree creates a tree holding only the root directory.
func NewFileTree() *FileTree {
	t := &FileTree{home: DefaultHome, clock: time.Now}
	t.root = newNode("", true, t.clock())
	t.root.Owner = "root"
	t.cwd = t.root
	return t
}

// SetClock replaces the timestamp source used for new and modified nodes.
func (t *FileTree) SetClock(clock func() time.Time) {
	if clock != nil {
		t.clock = clock
	}
}

func (t *FileTree) Root() *Node             { return t.root }
func (t *FileTree) Home() string            { return t.home }
func (t *FileTree) CurrentDirectory() *Node { return t.cwd }
func (t *FileTree) CurrentPath() string     { return t.cwd.Path() }

// Resolve finds the node at path. Absolute paths start at the root, anything
// else starts at the current directory; "~" expands to the home directory.
func (t *FileTree) Resolve(path string) (*Node, error) {
	start, rest := t.origin(path)
	cur := start
	for _, seg := range strings.Split(rest, "/") {
		if seg == "" || seg == "." {
			continue
		}
		if !cur.IsDir {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, cur.Path())
		}
		if seg == ".." {
			if cur.parent != nil {
				cur = cur.parent
			}
			continue
		}
		next, ok := cur.children[seg]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		cur = next
	}
	return cur, nil
}

func (t *FileTree) origin(path string) (*Node, string) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = t.home + path[1:]
	}
	if strings.HasPrefix(path, "/") {
		return t.root, path
	}
	return t.cwd, path
}

// List returns the children of the directory at path ("" means the current directory).
func (t *FileTree) List(path string) ([]*Node, error) {
	dir := t.cwd
	if path != "" {
		n, err := t.Resolve(path)
		if err != nil {
			return nil, err
		}
		dir = n
	}
	if !dir.IsDir {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return dir.Children(), nil
}

// ChangeDirectory moves the working directory. An empty path means home.
func (t *FileTree) ChangeDirectory(path string) error {
	if path == "" {
		path = t.home
	}
	n, err := t.Resolve(path)
	if err != nil {
		return err
	}
	if !n.IsDir {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	t.cwd = n
	return nil
}

// CreateDirectory creates a single directory. The parent must already exist.
func (t *FileTree) CreateDirectory(path string) (*Node, error) {
	parent, base, err := t.parentOf(path)
	if err != nil {
		return nil, err
	}
	if _, exists := parent.children[base]; exists {
		return nil, fmt.Errorf("directory %w: %s", ErrAlreadyExists, path)
	}
	now := t.clock()
	n := newNode(base, true, now)
	if err := parent.addChild(n); err != nil {
		return nil, err
	}
	parent.ModifiedAt = now
	return n, nil
}

// CreateFile writes content at path, replacing the content of an existing file.
func (t *FileTree) CreateFile(path, content string) (*Node, error) {
	parent, base, err := t.parentOf(path)
	if err != nil {
		return nil, err
	}
	now := t.clock()
	if existing, ok := parent.children[base]; ok {
		if existing.IsDir {
			return nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
		}
		existing.Content = content
		existing.ModifiedAt = now
		return existing, nil
	}
	n := newNode(base, false, now)
	n.Content = content
	if err := parent.addChild(n); err != nil {
		return nil, err
	}
	parent.ModifiedAt = now
	return n, nil
}

// Touch bumps the modification time of path, creating an empty file if needed.
func (t *FileTree) Touch(path string) (*Node, error) {
	if n, err := t.Resolve(path); err == nil {
		n.ModifiedAt = t.clock()
		return n, nil
	}
	return t.CreateFile(path, "")
}

// MkdirAll creates every missing directory along path.
func (t *FileTree) MkdirAll(path string) (*Node, error) {
	start, rest := t.origin(path)
	cur := start
	for _, seg := range strings.Split(rest, "/") {
		if seg == "" || seg == "." {
			continue
		}
		if seg == ".." {
			if cur.parent != nil {
				cur = cur.parent
			}
			continue
		}
		next, ok := cur.children[seg]
		if !ok {
			next = newNode(seg, true, t.clock())
			if err := cur.addChild(next); err != nil {
				return nil, err
			}
		} else if !next.IsDir {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, next.Path())
		}
		cur = next
	}
	return cur, nil
}

// WriteFile creates missing parent directories and then writes the file.
func (t *FileTree) WriteFile(path, content string) (*Node, error) {
	dir, _ := splitPath(path)
	if _, err := t.MkdirAll(dir); err != nil {
		return nil, err
	}
	return t.CreateFile(path, content)
}

// ReadFile returns the content of the file at path.
func (t *FileTree) ReadFile(path string) (string, error) {
	n, err := t.Resolve(path)
	if err != nil {
		return "", err
	}
	if n.IsDir {
		return "", fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	return n.Content, nil
}

func (t *FileTree) parentOf(path string) (*Node, string, error) {
	dir, base := splitPath(path)
	if !validName(base) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	parent, err := t.Resolve(dir)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrParentNotFound, dir)
	}
	if !parent.IsDir {
		return nil, "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return parent, base, nil
}

func splitPath(path string) (string, string) {
	trimmed := strings.TrimRight(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	switch {
	case idx < 0:
		return ".", trimmed
	case idx == 0:
		return "/", trimmed[1:]
	default:
		return trimmed[:idx], trimmed[idx+1:]
	}
}

// GlobToRegexp converts a filename glob into an anchored regular expression.
// '*' matches any run of characters and '?' a single character.
func GlobToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPattern, glob)
	}
	return re, nil
}

// FindByPattern returns nodes under startPath whose name matches glob.
func (t *FileTree) FindByPattern(glob, startPath string, recursive bool) ([]*Node, error) {
	re, err := GlobToRegexp(glob)
	if err != nil {
		return nil, err
	}
	start := t.cwd
	if startPath != "" {
		if start, err = t.Resolve(startPath); err != nil {
			return nil, err
		}
	}
	if !start.IsDir {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, startPath)
	}

	var out []*Node
	var visit func(dir *Node)
	visit = func(dir *Node) {
		for _, c := range dir.Children() {
			if re.MatchString(c.Name) {
				out = append(out, c)
			}
			if recursive && c.IsDir {
				visit(c)
			}
		}
	}
	visit(start)
	return out, nil
}

// FindFilesByPattern is FindByPattern restricted to regular files.
func (t *FileTree) FindFilesByPattern(glob, startPath string, recursive bool) ([]*Node, error) {
	nodes, err := t.FindByPattern(glob, startPath, recursive)
	if err != nil {
		return nil, err
	}
	files := nodes[:0]
	for _, n := range nodes {
		if !n.IsDir {
			files = append(files, n)
		}
	}
	return files, nil
}

// GlobPaths matches a slash separated pattern segment by segment.
// A "**" segment matches any number of directories, including none.
func (t *FileTree) GlobPaths(pattern string) ([]*Node, error) {
	start, rest := t.origin(pattern)
	current := []*Node{start}
	for _, seg := range strings.Split(rest, "/") {
		if seg == "" || seg == "." {
			continue
		}
		if seg == "**" {
			current = descendantDirs(current)
			continue
		}
		re, err := GlobToRegexp(seg)
		if err != nil {
			return nil, err
		}
		var next []*Node
		for _, n := range current {
			for _, c := range n.Children() {
				if re.MatchString(c.Name) {
					next = append(next, c)
				}
			}
		}
		current = next
	}
	return current, nil
}

func descendantDirs(nodes []*Node) []*Node {
	var out []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if !n.IsDir {
			return
		}
		out = append(out, n)
		for _, c := range n.Children() {
			visit(c)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return out
}
