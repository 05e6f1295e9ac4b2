package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/emurs/kernel/mem"
)

const workedScript = `
# first block at the table start
alloc a 100 1
alloc b 100 8
free a
`

func TestSimulateCommand(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		keepGoing   bool
		wantErr     bool
		wantContain []string
	}{
		{
			name:   "worked scenario",
			script: workedScript,
			wantContain: []string{
				"[0x10068,0x100cb]",
				"[0x10000,0x10067]",
				"[0x100d0,0x103e7]",
				"Slabs: 1/16",
			},
		},
		{
			name:        "out of memory stops",
			script:      "alloc big 2000\nalloc never 8\n",
			wantErr:     true,
			wantContain: []string{"FAULT", "out of memory"},
		},
		{
			name:        "keep going after fault",
			script:      "alloc big 2000\nalloc small 8\n",
			keepGoing:   true,
			wantErr:     true,
			wantContain: []string{"FAULT", "small", "[0x10000,0x10007]"},
		},
		{
			name:        "free of unknown name",
			script:      "free ghost\n",
			wantErr:     true,
			wantContain: []string{"not allocated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			preset = "desktop"
			simKeepGoing = tt.keepGoing

			path := writeTemp(t, "boot.script", tt.script)
			output, err := captureOutput(t, func() error {
				return runSimulate([]string{path})
			})

			if tt.wantErr {
				require.Error(t, err, output)
			} else {
				require.NoError(t, err, output)
			}
			for _, want := range tt.wantContain {
				require.Contains(t, output, want)
			}
		})
	}

	t.Run("stops at first fault", func(t *testing.T) {
		resetFlags()
		preset = "desktop"
		path := writeTemp(t, "boot.script", "alloc big 2000\nalloc never 8\n")
		output, _ := captureOutput(t, func() error { return runSimulate([]string{path}) })
		require.NotContains(t, output, "never")
	})
}

func TestSimulateCommand_JSON(t *testing.T) {
	resetFlags()
	preset = "desktop"
	jsonOut = true

	path := writeTemp(t, "boot.script", workedScript)
	output, err := captureOutput(t, func() error {
		return runSimulate([]string{path})
	})
	require.NoError(t, err)

	var out simulateOutput
	decodeJSON(t, output, &out)
	require.Len(t, out.Steps, 3)
	require.Equal(t, []string{"[0x10068,0x100cb]"}, out.Slabs)
	require.Equal(t, []string{"[0x10000,0x10067]", "[0x100d0,0x103e7]"}, out.FreeRanges)
	require.Equal(t, 2, out.Stats.AllocCalls)
	require.Equal(t, uintptr(100), out.Stats.BytesInUse)
}

func TestReplay_DuplicateName(t *testing.T) {
	a := mem.New()
	a.AddMemoryTableEntries(mem.TableEntry{Range: mem.NewRange(0, 999), Kind: mem.KindWork})

	ops, err := parseScript(strings.NewReader("alloc x 8\nalloc x 8\n"), 8)
	require.NoError(t, err)

	out, err := replay(a, ops, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
	require.Len(t, out.Steps, 2)
	require.Len(t, a.Slabs(), 1)
}

func TestSimulateCommand_AlignMustBePowerOfTwo(t *testing.T) {
	resetFlags()
	preset = "desktop"
	simAlign = 24
	path := writeTemp(t, "boot.script", workedScript)

	_, err := captureOutput(t, func() error { return runSimulate([]string{path}) })
	require.ErrorContains(t, err, "power of two")
}
