package buffer

import (
	"fmt"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// DefaultSizeHint is the initial byte capacity used when New is given a
// non-positive hint.
const DefaultSizeHint = 256

// Buffer is a growable sequence of records with byte size accounting.
type Buffer struct {
	items []ir.Item
	size  int // sum of record sizes
	cap   int // byte capacity
	grows int
}

// New creates an empty buffer with sizeHint bytes of capacity.
func New(sizeHint int) *Buffer {
	if sizeHint <= 0 {
		sizeHint = DefaultSizeHint
	}
	return &Buffer{cap: sizeHint}
}

// FromItems creates a buffer holding deep copies of items, in order.
func FromItems(items []ir.Item) *Buffer {
	b := New(0)
	for _, it := range items {
		b.Push(it)
	}
	return b
}

// Len returns the number of records.
func (b *Buffer) Len() int { return len(b.items) }

// Size returns the encoded length of all records in bytes.
func (b *Buffer) Size() int { return b.size }

// Cap returns the byte capacity.
func (b *Buffer) Cap() int { return b.cap }

// Grows returns how many times the capacity has been expanded.
func (b *Buffer) Grows() int { return b.grows }

// reserve ensures capacity for extra more bytes.
func (b *Buffer) reserve(extra int) {
	need := b.size + extra
	if need <= b.cap {
		return
	}
	next := b.cap * 2
	if next < need {
		next = need
	}
	b.cap = next
	b.grows++
}

// Push appends a deep copy of it.
func (b *Buffer) Push(it ir.Item) {
	it = ir.Clone(it)
	b.reserve(it.Size())
	b.items = append(b.items, it)
	b.size += it.Size()
}

// At returns the record at pos, or Void when pos is out of range.
// The returned record is shared with the buffer and must not be mutated.
func (b *Buffer) At(pos int) ir.Item {
	if pos < 0 || pos >= len(b.items) {
		return ir.Void{}
	}
	return b.items[pos]
}

// ScanLast returns the position of the last record of the given kind in
// buffer order. Records of other kinds may follow it.
func (b *Buffer) ScanLast(kind ir.Kind) (int, bool) {
	found := -1
	for i, it := range b.items {
		if it.Kind() == kind {
			found = i
		}
	}
	return found, found >= 0
}

// Pop removes and returns the last record of the given kind. It returns
// Void when the buffer holds no such record.
func (b *Buffer) Pop(kind ir.Kind) ir.Item {
	pos, ok := b.ScanLast(kind)
	if !ok {
		return ir.Void{}
	}
	out := ir.Clone(b.items[pos])
	b.removeRange(pos, pos+1)
	return out
}

// PeekKind returns the kind of the last record, or KindVoid when empty.
func (b *Buffer) PeekKind() ir.Kind {
	kind := ir.KindVoid
	for _, it := range b.items {
		kind = it.Kind()
	}
	return kind
}

// Next returns the position of the first record at or after from that
// satisfies pred.
func (b *Buffer) Next(from int, pred func(ir.Item) bool) (int, bool) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(b.items); i++ {
		if pred(b.items[i]) {
			return i, true
		}
	}
	return -1, false
}

// CountKind returns how many records have the given kind.
func (b *Buffer) CountKind(kind ir.Kind) int {
	n := 0
	for _, it := range b.items {
		if it.Kind() == kind {
			n++
		}
	}
	return n
}

// Remove excises records [start, end).
func (b *Buffer) Remove(start, end int) error {
	if err := b.checkRange(start, end); err != nil {
		return err
	}
	b.removeRange(start, end)
	return nil
}

// Insert places a deep copy of it at pos, shifting later records right.
func (b *Buffer) Insert(pos int, it ir.Item) error {
	return b.Splice(pos, pos, it)
}

// Splice replaces records [start, end) with deep copies of items.
func (b *Buffer) Splice(start, end int, items ...ir.Item) error {
	if err := b.checkRange(start, end); err != nil {
		return err
	}
	added := 0
	copies := make([]ir.Item, len(items))
	for i, it := range items {
		copies[i] = ir.Clone(it)
		added += copies[i].Size()
	}
	removed := b.rangeSize(start, end)
	if added > removed {
		b.reserve(added - removed)
	}

	tail := append([]ir.Item(nil), b.items[end:]...)
	b.items = append(append(b.items[:start], copies...), tail...)
	b.size += added - removed
	return nil
}

// Slice returns deep copies of records [start, end).
func (b *Buffer) Slice(start, end int) ([]ir.Item, error) {
	if err := b.checkRange(start, end); err != nil {
		return nil, err
	}
	out := make([]ir.Item, 0, end-start)
	for _, it := range b.items[start:end] {
		out = append(out, ir.Clone(it))
	}
	return out, nil
}

// Items returns deep copies of all records.
func (b *Buffer) Items() []ir.Item {
	out, _ := b.Slice(0, len(b.items))
	return out
}

// String renders the records in source form.
func (b *Buffer) String() string {
	return ir.FormatProgram(b.items)
}

func (b *Buffer) checkRange(start, end int) error {
	if start < 0 || end < start || end > len(b.items) {
		return fmt.Errorf("buffer: range [%d,%d) out of bounds (len %d)", start, end, len(b.items))
	}
	return nil
}

func (b *Buffer) rangeSize(start, end int) int {
	n := 0
	for _, it := range b.items[start:end] {
		n += it.Size()
	}
	return n
}

func (b *Buffer) removeRange(start, end int) {
	b.size -= b.rangeSize(start, end)
	b.items = append(b.items[:start], b.items[end:]...)
}
