package bootcfg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/emurs/internal/logger"
	"github.com/joshuapare/emurs/kernel/mem"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_Load_File(t *testing.T) {
	path := writeConfig(t, `
slab_capacity: 32
align: 16
log_level: debug
entries:
  - first: 0x2000000
    last: 0x203ffff
    permissions: rwx
    kind: work
  - first: 0x300_0000
    size: 0x7f00
    permissions: rw-
    kind: kernel_stack
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 32, c.SlabCapacity)
	require.Equal(t, uint64(16), c.Align)

	entries, err := c.TableEntries()
	require.NoError(t, err)
	require.Equal(t, []mem.TableEntry{
		{
			Permissions: mem.Permission{Read: true, Write: true, Execute: true},
			Range:       mem.NewRange(0x2000000, 0x203ffff),
			Kind:        mem.KindWork,
		},
		{
			Permissions: mem.Permission{Read: true, Write: true},
			Range:       mem.NewRange(0x3000000, 0x3007eff),
			Kind:        mem.KindKernelStack,
		},
	}, entries)
}

func Test_Load_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
slab_capacity: 32
entries:
  - first: 0
    last: 0xfff
    permissions: rw
    kind: work
`)
	t.Setenv("EMURS_SLAB_CAPACITY", "128")
	t.Setenv("EMURS_USE_SPINLOCK", "true")
	t.Setenv("EMURS_ALLOCATABLE_KINDS", "work,kernel-stack")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 128, c.SlabCapacity)
	require.True(t, c.SpinLock)
	require.Equal(t, []string{"work", "kernel-stack"}, c.AllocatableKinds)
	require.Equal(t, uint64(8), c.Align, "defaults survive when neither file nor env set them")

	opts, err := c.AllocatorOptions()
	require.NoError(t, err)
	require.Len(t, opts, 4)
}

func Test_Load_LogLevelReachesLogger(t *testing.T) {
	t.Cleanup(func() { _ = logger.Init(logger.Options{}) })

	path := writeConfig(t, `
log_level: debug
entries:
  - first: 0
    last: 0xfff
    permissions: rw
    kind: work
`)
	c, err := Load(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	opts, err := c.LoggerOptions(&buf)
	require.NoError(t, err)
	require.NoError(t, logger.Init(opts))

	logger.Debug("mapped region")
	require.Contains(t, buf.String(), "msg=\"mapped region\"")

	// The environment wins over the file.
	t.Setenv("EMURS_LOG_LEVEL", "warn")
	c, err = Load(path)
	require.NoError(t, err)

	buf.Reset()
	opts, err = c.LoggerOptions(&buf)
	require.NoError(t, err)
	require.NoError(t, logger.Init(opts))

	logger.Info("hidden")
	logger.Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "msg=shown")
}

func Test_Override_Preset(t *testing.T) {
	t.Setenv("EMURS_SLAB_CAPACITY", "64")
	t.Setenv("EMURS_LOG_LEVEL", "error")

	c := GBA()
	require.NoError(t, c.Override())
	require.Equal(t, 64, c.SlabCapacity)
	require.Equal(t, "error", c.LogLevel)

	t.Setenv("EMURS_ALIGN", "12")
	require.Error(t, GBA().Override())
}

func Test_Load_UnknownField(t *testing.T) {
	path := writeConfig(t, "slab_capacty: 4\n")
	_, err := Load(path)
	require.Error(t, err)
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func Test_Load_NoEntries(t *testing.T) {
	path := writeConfig(t, "slab_capacity: 4\n")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrNoEntries)
}

func Test_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errIs  error
	}{
		{"ok", func(*Config) {}, nil},
		{"zero slabs", func(c *Config) { c.SlabCapacity = 0 }, nil},
		{"bad align", func(c *Config) { c.Align = 12 }, nil},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, nil},
		{"bad kind", func(c *Config) { c.Entries[0].Kind = "rom" }, nil},
		{"bad permission", func(c *Config) { c.Entries[0].Permissions = "rwz" }, nil},
		{"inverted range", func(c *Config) { c.Entries[0].First, c.Entries[0].Last = 10, 5 }, mem.ErrInvalidRange},
		{"last and size", func(c *Config) { c.Entries[0].Size = 16 }, nil},
		{"overlap", func(c *Config) {
			c.Entries = append(c.Entries, Entry{First: 0x2000100, Size: 0x10, Permissions: "rw"})
		}, nil},
		{"too many", func(c *Config) {
			for i := 0; i < mem.TableCapacity; i++ {
				c.Entries = append(c.Entries, Entry{First: Address(i+1) * 0x100000, Size: 0x10})
			}
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GBA()
			tt.mutate(c)
			err := c.Validate()
			if tt.name == "ok" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			}
		})
	}
}

func Test_Presets(t *testing.T) {
	require.NoError(t, GBA().Validate())

	d := Desktop(0x10000, 1000)
	require.NoError(t, d.Validate())
	entries, err := d.TableEntries()
	require.NoError(t, err)
	require.Equal(t, mem.NewRange(0x10000, 0x103e7), entries[0].Range)
	require.Equal(t, mem.KindWork, entries[0].Kind)
}

func Test_ParseAddress(t *testing.T) {
	for in, want := range map[string]Address{
		"0":          0,
		"4096":       4096,
		"0x2000000":  0x2000000,
		"0x200_0000": 0x2000000,
		"0b1000":     8,
	} {
		got, err := ParseAddress(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseAddress("zz")
	require.Error(t, err)
}
