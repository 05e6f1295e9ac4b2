// Package bootcfg loads the boot memory map and allocator settings.
//
// Settings come from an optional YAML file and are then overridden by
// EMURS_* environment variables:
//
//	slab_capacity: 32
//	align: 8
//	log_level: debug
//	entries:
//	  - first: 0x2000000
//	    last: 0x203ffff
//	    permissions: rwx
//	    kind: work
package bootcfg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/emurs/internal/logger"
	"github.com/joshuapare/emurs/kernel/mem"
)

const envVarPrefix = "EMURS"

// ErrNoEntries indicates a configuration without any memory table entry.
var ErrNoEntries = errors.New("bootcfg: no memory table entries")

// Config is the boot configuration.
type Config struct {
	SlabCapacity     int      `envconfig:"SLAB_CAPACITY"     yaml:"slab_capacity"`
	Align            uint64   `envconfig:"ALIGN"             yaml:"align"`
	LogLevel         string   `envconfig:"LOG_LEVEL"         yaml:"log_level"`
	SpinLock         bool     `envconfig:"USE_SPINLOCK"      yaml:"spinlock"`
	AllocatableKinds []string `envconfig:"ALLOCATABLE_KINDS" yaml:"allocatable_kinds"`
	Entries          []Entry  `ignored:"true"                yaml:"entries"`
}

// Entry is one memory table entry. Either Last or Size must be set.
type Entry struct {
	First       Address `yaml:"first"`
	Last        Address `yaml:"last,omitempty"`
	Size        Address `yaml:"size,omitempty"`
	Permissions string  `yaml:"permissions"`
	Kind        string  `yaml:"kind"`
}

// Address is an integer that may be written in decimal, 0x hex, 0o octal or
// 0b binary, with optional '_' separators.
type Address uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: address must be a scalar", value.Line)
	}
	parsed, err := ParseAddress(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a Address) MarshalYAML() (any, error) {
	return fmt.Sprintf("%#x", uint64(a)), nil
}

// ParseAddress parses s as an Address.
func ParseAddress(s string) (Address, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bootcfg: invalid address %q", s)
	}
	return Address(v), nil
}

// Default returns a Config with the allocator defaults and no entries.
func Default() *Config {
	return &Config{
		SlabCapacity: mem.DefaultSlabCapacity,
		Align:        8,
		LogLevel:     "info",
	}
}

// GBA returns the Game Boy Advance memory map: external work RAM as heap.
func GBA() *Config {
	c := Default()
	c.Entries = []Entry{{
		First:       0x2000000,
		Last:        0x203ffff,
		Permissions: "rwx",
		Kind:        "work",
	}}
	return c
}

// Desktop returns a single work region of size bytes at base, the layout a
// hosted loader uses for a heap buffer.
func Desktop(base, size uint64) *Config {
	c := Default()
	c.Entries = []Entry{{
		First:       Address(base),
		Size:        Address(size),
		Permissions: "rw-",
		Kind:        "work",
	}}
	return c
}

// Load reads the YAML file at path (skipped when path is empty), applies
// EMURS_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := decode(bytes.NewReader(data), c); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := c.Override(); err != nil {
		return nil, err
	}
	return c, nil
}

// Override applies EMURS_* environment overrides to c and validates the
// result. Load calls it; presets built in code call it directly.
func (c *Config) Override() error {
	if err := envconfig.Process(envVarPrefix, c); err != nil {
		return fmt.Errorf("parsing environment variables: %w", err)
	}
	return c.Validate()
}

func decode(r io.Reader, c *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the configuration for values the allocator cannot use.
func (c *Config) Validate() error {
	if c.SlabCapacity < 1 {
		return fmt.Errorf("bootcfg: slab_capacity must be > 0, got %d", c.SlabCapacity)
	}
	if !mem.IsPowerOfTwo(uintptr(c.Align)) {
		return fmt.Errorf("bootcfg: align must be a power of two, got %d", c.Align)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("bootcfg: %w", err)
	}
	if _, err := c.entryFilter(); err != nil {
		return err
	}

	entries, err := c.TableEntries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrNoEntries
	}
	if len(entries) > mem.TableCapacity {
		return fmt.Errorf("bootcfg: %d entries exceed table capacity %d", len(entries), mem.TableCapacity)
	}
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].Range.OverlapsRange(entries[j].Range) {
				return fmt.Errorf("bootcfg: entries %d %s and %d %s overlap",
					i, entries[i].Range, j, entries[j].Range)
			}
		}
	}
	return nil
}

// TableEntries converts the configured entries to memory table entries.
func (c *Config) TableEntries() ([]mem.TableEntry, error) {
	out := make([]mem.TableEntry, 0, len(c.Entries))
	for i, e := range c.Entries {
		te, err := e.tableEntry()
		if err != nil {
			return nil, fmt.Errorf("bootcfg: entry %d: %w", i, err)
		}
		out = append(out, te)
	}
	return out, nil
}

func (e Entry) tableEntry() (mem.TableEntry, error) {
	perm, err := mem.ParsePermission(e.Permissions)
	if err != nil {
		return mem.TableEntry{}, err
	}
	kind := mem.KindReserved
	if e.Kind != "" {
		if kind, err = mem.ParseKind(e.Kind); err != nil {
			return mem.TableEntry{}, err
		}
	}

	var rng mem.Range
	switch {
	case e.Last != 0 && e.Size != 0:
		return mem.TableEntry{}, errors.New("set either last or size, not both")
	case e.Size != 0:
		last := uint64(e.First) + uint64(e.Size) - 1
		if last < uint64(e.First) {
			return mem.TableEntry{}, fmt.Errorf("%w: size overflows address space", mem.ErrInvalidRange)
		}
		rng = mem.NewRange(uintptr(e.First), uintptr(last))
	default:
		rng = mem.NewRange(uintptr(e.First), uintptr(e.Last))
	}
	if !rng.Valid() {
		return mem.TableEntry{}, fmt.Errorf("%w: %s", mem.ErrInvalidRange, rng)
	}
	return mem.TableEntry{Permissions: perm, Range: rng, Kind: kind}, nil
}

func (c *Config) entryFilter() (func(mem.TableEntry) bool, error) {
	if len(c.AllocatableKinds) == 0 {
		return nil, nil
	}
	kinds := make([]mem.Kind, 0, len(c.AllocatableKinds))
	for _, s := range c.AllocatableKinds {
		k, err := mem.ParseKind(s)
		if err != nil {
			return nil, fmt.Errorf("bootcfg: allocatable_kinds: %w", err)
		}
		kinds = append(kinds, k)
	}
	return mem.AllocatableKinds(kinds...), nil
}

// AllocatorOptions returns the mem.Options this configuration asks for.
func (c *Config) AllocatorOptions() ([]mem.Option, error) {
	opts := []mem.Option{
		mem.WithSlabCapacity(c.SlabCapacity),
		mem.WithLogger(logger.L),
	}
	if c.SpinLock {
		opts = append(opts, mem.WithLocker(&mem.SpinLock{}))
	}
	keep, err := c.entryFilter()
	if err != nil {
		return nil, err
	}
	if keep != nil {
		opts = append(opts, mem.WithEntryFilter(keep))
	}
	return opts, nil
}

// LoggerOptions returns logger options writing to w at the configured level.
func (c *Config) LoggerOptions(w io.Writer) (logger.Options, error) {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.Options{}, fmt.Errorf("bootcfg: %w", err)
	}
	return logger.Options{Enabled: true, Writer: w, Level: level}, nil
}
