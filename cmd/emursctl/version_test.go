package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/emurs/kernel/mem"
)

func TestVersionCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true

	output, err := captureOutput(t, func() error { return versionCmd.RunE(versionCmd, nil) })
	require.NoError(t, err)

	var out versionOutput
	decodeJSON(t, output, &out)
	require.NotEmpty(t, out.Version)
	require.NotEmpty(t, out.GoVersion)
	require.Equal(t, mem.TableCapacity, out.TableEntries)
	require.Equal(t, mem.DefaultSlabCapacity, out.SlabCapacity)
}

func TestVersionCommand_Text(t *testing.T) {
	resetFlags()

	output, err := captureOutput(t, func() error { return versionCmd.RunE(versionCmd, nil) })
	require.NoError(t, err)
	require.Contains(t, output, "emursctl ")
	require.Contains(t, output, "memory table capacity: 10")
}
