package wasmgen

// memLayout computes the static part of linear memory: two reserved
// 4-byte cells (the bump-allocator heap pointer at [0,4) and the
// free-list head at [4,8)), followed by every interned string laid out
// 4-byte aligned as a length-prefixed blob ([u32 length][bytes]).
//
// stringOffset[i] is where string i's length-prefix begins.
type memLayout struct {
	data          []byte
	stringOffset  []uint32
	heapStart     uint32
}

const (
	heapPtrCell  = 0
	freeListCell = 4
	staticBase   = 8
)

func alignUp4(n uint32) uint32 {
	return (n + 3) &^ 3
}

func buildMemLayout(strs []string) memLayout {
	var lay memLayout
	lay.data = make([]byte, staticBase)
	cursor := uint32(staticBase)
	lay.stringOffset = make([]uint32, len(strs))
	for i, s := range strs {
		lay.stringOffset[i] = cursor
		var lenBuf [4]byte
		putU32LE(lenBuf[:], uint32(len(s)))
		lay.data = append(lay.data, lenBuf[:]...)
		lay.data = append(lay.data, s...)
		cursor += 4 + uint32(len(s))
		pad := alignUp4(cursor) - cursor
		for i := uint32(0); i < pad; i++ {
			lay.data = append(lay.data, 0)
		}
		cursor = alignUp4(cursor)
	}
	lay.heapStart = cursor
	// the heap pointer cell is itself initialized to point past the
	// static data, so a fresh alloc call never collides with string data.
	putU32LE(lay.data[heapPtrCell:heapPtrCell+4], lay.heapStart)
	putU32LE(lay.data[freeListCell:freeListCell+4], 0)
	return lay
}

func putU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// memoryPages returns the number of 64KiB pages needed to hold n bytes of
// static data, at least one page.
func memoryPages(n uint32) uint32 {
	const pageSize = 65536
	pages := (n + pageSize - 1) / pageSize
	if pages == 0 {
		return 1
	}
	return pages
}
