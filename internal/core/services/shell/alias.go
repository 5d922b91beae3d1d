package shell

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var ErrInvalidAlias = errors.New("invalid alias")

var aliasName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// DefaultAliases are installed in every new table.
var DefaultAliases = map[string]string{
	"ll":  "ls -l",
	"la":  "ls -a",
	"..":  "cd ..",
	"cls": "clear",
}

// AliasTable maps command names onto replacement command lines.
type AliasTable struct {
	entries map[string]string
	mu      sync.RWMutex
}

func NewAliasTable() *AliasTable {
	t := &AliasTable{entries: make(map[string]string, len(DefaultAliases))}
	for k, v := range DefaultAliases {
		t.entries[k] = v
	}
	return t
}

// Define parses a name=value definition. Surrounding quotes of the value are
// removed by the tokenizer before it gets here.
func (t *AliasTable) Define(def string) error {
	name, value, ok := strings.Cut(def, "=")
	if !ok {
		return fmt.Errorf("%w: expected name=command, got %q", ErrInvalidAlias, def)
	}
	return t.Set(name, value)
}

func (t *AliasTable) Set(name, value string) error {
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !aliasName.MatchString(name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidAlias, name)
	}
	if value == "" {
		return fmt.Errorf("%w: empty command for %s", ErrInvalidAlias, name)
	}
	if _, err := SplitWords(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAlias, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[name] = value
	return nil
}

func (t *AliasTable) Remove(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[name]; !ok {
		return fmt.Errorf("%w: %s: not found", ErrInvalidAlias, name)
	}
	delete(t.entries, name)
	return nil
}

func (t *AliasTable) Get(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[name]
	return v, ok
}

// Names lists alias names in order.
func (t *AliasTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.entries))
	for k := range t.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Resolve substitutes an aliased command name. The alias's own arguments come
// before the caller's. Only one level is expanded, so an alias may shadow the
// command it wraps.
func (t *AliasTable) Resolve(name string, args []string) (string, []string) {
	value, ok := t.Get(name)
	if !ok {
		return name, args
	}
	words, err := SplitWords(value)
	if err != nil || len(words) == 0 {
		return name, args
	}
	out := make([]string, 0, len(words)-1+len(args))
	out = append(out, words[1:]...)
	out = append(out, args...)
	return words[0], out
}
