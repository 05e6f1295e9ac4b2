package boot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/emurs/internal/bootcfg"
	"github.com/joshuapare/emurs/kernel/mem"
)

func Test_Boot_GBA(t *testing.T) {
	m, err := Boot(bootcfg.GBA())
	require.NoError(t, err)
	defer m.Close()

	require.Len(t, m.Regions(), 1)
	require.Equal(t, 0x40000, m.Regions()[0].Size())
	require.True(t, m.Allocator.Configured())

	blk := m.Heap.Alloc(mem.MustLayout(256, 8))
	require.Equal(t, uintptr(0x2000000), blk.Addr)
	copy(blk.Data, "kernel heap")
	require.Equal(t, "kernel heap", string(blk.Data[:11]))
	m.Heap.Free(blk)
}

func Test_Boot_InvalidConfig(t *testing.T) {
	cfg := bootcfg.GBA()
	cfg.Entries = nil

	_, err := Boot(cfg)
	require.ErrorIs(t, err, bootcfg.ErrNoEntries)
}

func Test_Boot_MultipleRegions(t *testing.T) {
	cfg := bootcfg.Desktop(0x10000, 0x1000)
	cfg.Entries = append(cfg.Entries, bootcfg.Entry{
		First:       0x80000,
		Size:        0x2000,
		Permissions: "rw",
		Kind:        "work",
	})

	m, err := Boot(cfg)
	require.NoError(t, err)

	// Too large for the first region, served by the second.
	blk := m.Heap.Alloc(mem.MustLayout(0x1800, 8))
	require.Equal(t, uintptr(0x80000), blk.Addr)
	require.Len(t, blk.Data, 0x1800)

	require.NoError(t, m.Close())
	require.Empty(t, m.Regions())
}

func Test_BootGlobal_Once(t *testing.T) {
	m, err := BootGlobal(bootcfg.Desktop(0x10000, 0x1000))
	require.NoError(t, err)
	defer m.Close()
	require.Same(t, mem.Global(), m.Allocator)

	addr := mem.Alloc(mem.MustLayout(64, 8))
	require.Equal(t, uintptr(0x10000), addr)
	mem.Dealloc(addr, mem.MustLayout(64, 8))

	_, err = BootGlobal(bootcfg.GBA())
	require.ErrorIs(t, err, ErrAlreadyBooted)
}
