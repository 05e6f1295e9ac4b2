// Package boot brings up the kernel heap from a boot configuration.
//
// Boot is the loader's half of the allocator contract: it backs every
// configured region with host memory, installs the memory table exactly once,
// and hands the resulting heap to the rest of the kernel.
package boot

import (
	"errors"
	"fmt"

	"github.com/joshuapare/emurs/internal/bootcfg"
	"github.com/joshuapare/emurs/internal/logger"
	"github.com/joshuapare/emurs/kernel/heap"
	"github.com/joshuapare/emurs/kernel/mem"
	"github.com/joshuapare/emurs/kernel/physmem"
)

// ErrAlreadyBooted indicates BootGlobal ran after the process-wide allocator
// was already constructed.
var ErrAlreadyBooted = errors.New("boot: global allocator already initialized")

// Machine is a booted kernel heap.
type Machine struct {
	Allocator *mem.Allocator
	Heap      *heap.Heap
	Config    *bootcfg.Config

	regions []*physmem.Region
}

// Boot validates cfg, maps its regions and returns a Machine with a private
// allocator.
func Boot(cfg *bootcfg.Config) (*Machine, error) {
	opts, err := cfg.AllocatorOptions()
	if err != nil {
		return nil, err
	}
	return bootWith(cfg, mem.New(opts...))
}

// BootGlobal is like Boot but installs the memory table into mem.Global. It
// fails with ErrAlreadyBooted if the global allocator already exists.
func BootGlobal(cfg *bootcfg.Config) (*Machine, error) {
	opts, err := cfg.AllocatorOptions()
	if err != nil {
		return nil, err
	}
	a, created := mem.InitGlobal(opts...)
	if !created {
		return nil, ErrAlreadyBooted
	}
	return bootWith(cfg, a)
}

func bootWith(cfg *bootcfg.Config, a *mem.Allocator) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	entries, err := cfg.TableEntries()
	if err != nil {
		return nil, err
	}

	m := &Machine{Allocator: a, Config: cfg}
	for _, e := range entries {
		r, err := physmem.Map(e)
		if err != nil {
			closeErr := m.Close()
			return nil, errors.Join(fmt.Errorf("boot: %w", err), closeErr)
		}
		m.regions = append(m.regions, r)
		logger.Debug("mapped region", "range", e.Range.String(), "kind", e.Kind.String(), "perm", e.Permissions.String())
	}

	a.AddMemoryTableEntries(entries...)
	m.Heap = heap.New(a, m.regions...)

	logger.Info("memory table installed", "entries", len(entries), "slab_capacity", cfg.SlabCapacity)
	return m, nil
}

// Regions returns the regions backing the memory table.
func (m *Machine) Regions() []*physmem.Region {
	return m.regions
}

// Close releases the backing memory. Blocks handed out by the heap must not
// be used afterwards.
func (m *Machine) Close() error {
	var errs []error
	for _, r := range m.regions {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.regions = nil
	return errors.Join(errs...)
}
