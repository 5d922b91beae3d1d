package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasTable_Defaults(t *testing.T) {
	table := NewAliasTable()

	v, ok := table.Get("ll")
	assert.True(t, ok)
	assert.Equal(t, "ls -l", v)
	assert.Contains(t, table.Names(), "..")
}

func TestAliasTable_Define(t *testing.T) {
	table := NewAliasTable()

	require.NoError(t, table.Define("gs=grep -i secret"))
	name, args := table.Resolve("gs", []string{"notes.txt"})
	assert.Equal(t, "grep", name)
	assert.Equal(t, []string{"-i", "secret", "notes.txt"}, args)

	assert.ErrorIs(t, table.Define("novalue"), ErrInvalidAlias)
	assert.ErrorIs(t, table.Define("bad name=ls"), ErrInvalidAlias)
	assert.ErrorIs(t, table.Define("x="), ErrInvalidAlias)
	assert.ErrorIs(t, table.Define(`q=echo "open`), ErrInvalidAlias)
}

func TestAliasTable_ResolveSingleLevel(t *testing.T) {
	table := NewAliasTable()
	require.NoError(t, table.Set("ls", "ls -a"))
	require.NoError(t, table.Set("l", "ll"))

	name, args := table.Resolve("ls", nil)
	assert.Equal(t, "ls", name)
	assert.Equal(t, []string{"-a"}, args)

	// "l" expands to "ll", which is not expanded again
	name, args = table.Resolve("l", []string{"/tmp"})
	assert.Equal(t, "ll", name)
	assert.Equal(t, []string{"/tmp"}, args)
}

func TestAliasTable_Remove(t *testing.T) {
	table := NewAliasTable()
	require.NoError(t, table.Remove("cls"))
	_, ok := table.Get("cls")
	assert.False(t, ok)
	assert.ErrorIs(t, table.Remove("cls"), ErrInvalidAlias)

	name, _ := table.Resolve("cls", nil)
	assert.Equal(t, "cls", name)
}
