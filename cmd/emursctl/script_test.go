package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/emurs/kernel/mem"
)

func TestParseScript(t *testing.T) {
	ops, err := parseScript(strings.NewReader(`
# comment
alloc a 0x100     # trailing comment
ALLOC b 64 16
free a
`), 8)
	require.NoError(t, err)
	require.Equal(t, []scriptOp{
		{Line: 3, Kind: "alloc", Name: "a", Layout: mem.Layout{Size: 0x100, Align: 8}},
		{Line: 4, Kind: "alloc", Name: "b", Layout: mem.Layout{Size: 64, Align: 16}},
		{Line: 5, Kind: "free", Name: "a"},
	}, ops)
}

func TestParseScript_Errors(t *testing.T) {
	for _, script := range []string{
		"alloc a\n",
		"alloc a ten\n",
		"alloc a 10 3\n",
		"alloc a 0\n",
		"free\n",
		"grow 10\n",
	} {
		_, err := parseScript(strings.NewReader(script), 8)
		require.Error(t, err, script)
		require.Contains(t, err.Error(), "line 1", script)
	}
}

func TestParseAllocSpec(t *testing.T) {
	l, err := parseAllocSpec("100", 8)
	require.NoError(t, err)
	require.Equal(t, mem.Layout{Size: 100, Align: 8}, l)

	l, err = parseAllocSpec("0x40:64", 8)
	require.NoError(t, err)
	require.Equal(t, mem.Layout{Size: 0x40, Align: 64}, l)

	_, err = parseAllocSpec("10:3", 8)
	require.ErrorIs(t, err, mem.ErrInvalidLayout)
}
