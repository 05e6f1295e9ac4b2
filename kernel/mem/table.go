package mem

import (
	"fmt"
	"strings"
)

// TableCapacity is the maximum number of entries a Table can hold.
const TableCapacity = 10

// Permission describes what a memory region may be used for.
// The allocator records permissions but never enforces them.
type Permission struct {
	Read    bool
	Write   bool
	Execute bool
}

// String renders the permission in ls style, e.g. "rw-".
func (p Permission) String() string {
	b := []byte("---")
	if p.Read {
		b[0] = 'r'
	}
	if p.Write {
		b[1] = 'w'
	}
	if p.Execute {
		b[2] = 'x'
	}
	return string(b)
}

// ParsePermission parses an ls style permission string such as "rwx" or "r-x".
// Letters may appear in any order; '-' is ignored.
func ParsePermission(s string) (Permission, error) {
	var p Permission
	for _, c := range s {
		switch c {
		case 'r', 'R':
			p.Read = true
		case 'w', 'W':
			p.Write = true
		case 'x', 'X':
			p.Execute = true
		case '-':
		default:
			return Permission{}, fmt.Errorf("mem: invalid permission %q", s)
		}
	}
	return p, nil
}

// Kind tags the purpose of a table entry.
type Kind uint8

const (
	// KindReserved is the default kind.
	KindReserved Kind = iota
	// KindWork is general purpose working memory.
	KindWork
	// KindKernelStack is memory set aside for the kernel stack.
	KindKernelStack
)

var kindNames = [...]string{
	KindReserved:    "reserved",
	KindWork:        "work",
	KindKernelStack: "kernel-stack",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses the name returned by Kind.String. Matching ignores case,
// and "_" may be used in place of "-".
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if norm == "kernelstack" {
		norm = "kernel-stack"
	}
	for k, name := range kindNames {
		if name == norm {
			return Kind(k), nil
		}
	}
	return KindReserved, fmt.Errorf("mem: unknown memory kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TableEntry is one region declared by the boot environment.
type TableEntry struct {
	Permissions Permission
	Range       Range
	Kind        Kind
}

func (e TableEntry) String() string {
	return fmt.Sprintf("%s %s %s", e.Range, e.Permissions, e.Kind)
}

// Table is a fixed-capacity, append-only list of TableEntry.
// Entries are never removed or reordered.
type Table struct {
	entries [TableCapacity]TableEntry
	n       int
}

// Len returns the number of installed entries.
func (t *Table) Len() int { return t.n }

// Empty reports whether no entries are installed.
func (t *Table) Empty() bool { return t.n == 0 }

// At returns entry i.
func (t *Table) At(i int) TableEntry {
	if i < 0 || i >= t.n {
		panic(fmt.Sprintf("mem: table index %d out of range [0,%d)", i, t.n))
	}
	return t.entries[i]
}

// Entries returns a copy of the installed entries.
func (t *Table) Entries() []TableEntry {
	out := make([]TableEntry, t.n)
	copy(out, t.entries[:t.n])
	return out
}

// view returns the installed entries without copying. Callers must hold the
// allocator lock and must not retain the slice.
func (t *Table) view() []TableEntry {
	return t.entries[:t.n]
}

// push appends e, or returns ErrTableCapacityExceeded when the table is full.
func (t *Table) push(e TableEntry) error {
	if t.n == len(t.entries) {
		return ErrTableCapacityExceeded
	}
	t.entries[t.n] = e
	t.n++
	return nil
}
