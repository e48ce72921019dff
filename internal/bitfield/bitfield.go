package bitfield

import "sort"

// Frame geometry for classical CAN: 8 data bytes, bit indices 0..63.
const (
	ByteCount = 8
	BitCount  = ByteCount * 8
)

// Field tracks which bits of an 8-byte CAN frame carry one signal. The
// selected-bit set is the source of truth; the offset/length view is a
// derived bounding range and may cover bits that are not selected when the
// set is sparse.
type Field struct {
	bits map[int]struct{}
}

// New returns an empty Field.
func New() *Field {
	return &Field{bits: make(map[int]struct{})}
}

// ToggleBit flips membership of bit i. Indices outside [0, BitCount) are
// ignored.
func (f *Field) ToggleBit(i int) {
	if i < 0 || i >= BitCount {
		return
	}
	if _, ok := f.bits[i]; ok {
		delete(f.bits, i)
	} else {
		f.bits[i] = struct{}{}
	}
}

// ToggleByte selects or clears all 8 bits of byte b atomically. A byte with
// every bit selected is cleared; any other state selects the full byte.
func (f *Field) ToggleByte(b int) {
	if b < 0 || b >= ByteCount {
		return
	}
	full := true
	for i := 0; i < 8; i++ {
		if _, ok := f.bits[b*8+i]; !ok {
			full = false
			break
		}
	}
	for i := 0; i < 8; i++ {
		if full {
			delete(f.bits, b*8+i)
		} else {
			f.bits[b*8+i] = struct{}{}
		}
	}
}

// SetFromRange replaces the selection with the contiguous range
// [offset, offset+length). Out-of-domain input clears the selection instead
// of failing; a range running past the last bit is truncated there.
func (f *Field) SetFromRange(offset, length int) {
	if offset < 0 || offset >= BitCount || length <= 0 || length > BitCount {
		f.Clear()
		return
	}
	f.Clear()
	end := offset + length
	if end > BitCount {
		end = BitCount
	}
	for i := offset; i < end; i++ {
		f.bits[i] = struct{}{}
	}
}

// Clear removes every selected bit.
func (f *Field) Clear() {
	for i := range f.bits {
		delete(f.bits, i)
	}
}

// BoundingRange reports the minimal contiguous (offset, length) interval
// containing the selection. ok is false when nothing is selected.
func (f *Field) BoundingRange() (offset, length int, ok bool) {
	if len(f.bits) == 0 {
		return 0, 0, false
	}
	min, max := BitCount, -1
	for i := range f.bits {
		if i < min {
			min = i
		}
		if i > max {
			max = i
		}
	}
	return min, max - min + 1, true
}

// SelectedBits returns the selected bit indices in ascending order.
func (f *Field) SelectedBits() []int {
	out := make([]int, 0, len(f.bits))
	for i := range f.bits {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// SelectedBytes returns the bytes touched by the selection in ascending
// order, each byte listed once.
func (f *Field) SelectedBytes() []int {
	seen := make(map[int]struct{})
	for i := range f.bits {
		seen[i/8] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

// Contains reports whether bit i is selected.
func (f *Field) Contains(i int) bool {
	_, ok := f.bits[i]
	return ok
}

// Count returns the number of selected bits.
func (f *Field) Count() int {
	return len(f.bits)
}
