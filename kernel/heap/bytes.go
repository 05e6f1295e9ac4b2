package heap

import "github.com/joshuapare/emurs/kernel/mem"

const (
	bytesAlign  = 8
	bytesMinCap = 16
)

// Bytes is a growable byte buffer whose storage comes from a Heap. Growing
// allocates a larger block, copies, and frees the old one. Call Free when
// done; the zero value is not usable.
type Bytes struct {
	h   *Heap
	blk Block
	n   int
}

// NewBytes returns an empty buffer with room for at least capacity bytes.
func NewBytes(h *Heap, capacity int) *Bytes {
	b := &Bytes{h: h}
	if capacity > 0 {
		b.grow(capacity)
	}
	return b
}

// Len returns the number of bytes stored.
func (b *Bytes) Len() int { return b.n }

// Cap returns the number of bytes the current block can hold.
func (b *Bytes) Cap() int { return len(b.blk.Data) }

// Bytes returns the stored bytes. The slice is invalidated by the next
// Append or Free.
func (b *Bytes) Bytes() []byte { return b.blk.Data[:b.n] }

// Addr returns the address of the current block, or 0 when none is held.
func (b *Bytes) Addr() uintptr { return b.blk.Addr }

// Append adds p to the end of the buffer.
func (b *Bytes) Append(p ...byte) {
	if b.n+len(p) > b.Cap() {
		b.grow(b.n + len(p))
	}
	copy(b.blk.Data[b.n:], p)
	b.n += len(p)
}

// Reset empties the buffer but keeps its block.
func (b *Bytes) Reset() { b.n = 0 }

// Free returns the block to the heap and empties the buffer.
func (b *Bytes) Free() {
	if b.blk.Data != nil {
		b.h.Free(b.blk)
	}
	b.blk = Block{}
	b.n = 0
}

func (b *Bytes) grow(need int) {
	newCap := max(2*b.Cap(), need, bytesMinCap)
	blk := b.h.Alloc(mem.MustLayout(uintptr(newCap), bytesAlign))
	copy(blk.Data, b.blk.Data[:b.n])
	if b.blk.Data != nil {
		b.h.Free(b.blk)
	}
	b.blk = blk
}
