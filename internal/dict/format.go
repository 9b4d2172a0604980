package dict

// Binary dictionary file layout (little-endian throughout). The header
// is fixed width; everything after it is located via the offsets the
// header carries.
const (
	magic       = "HIMOTKSP"
	formatVersion uint32 = 1
	wordEntrySize = 12

	headerSize = 8 + 4 + 4 + 4 + 8 + 8 + 8 // magic+version+flags+record_size+pos_table_off+trie_off+trie_len

	flagHasPOSTable uint32 = 1 << 0
)

// header mirrors the on-disk layout at offset 0. Parsed field-by-field
// with encoding/binary rather than reinterpreted in place, since the
// mix of uint32/uint64 fields would otherwise be at the mercy of Go's
// struct padding rules.
type header struct {
	version     uint32
	flags       uint32
	recordSize  uint32
	posTableOff uint64
	trieOff     uint64
	trieLen     uint64
}

// WordEntry is the fixed 12-byte lexical record stored as the trie's
// payload.
type WordEntry struct {
	Seq      int32
	Cost     int16
	POSID    uint8
	ConjType uint8
	BaseSeq  int32
}

// UnknownPOS is the synthesized POS id for unmatched single characters.
const UnknownPOS uint8 = 255

// Unknown builds the synthesized WordEntry for an unmatched character.
func Unknown() WordEntry {
	return WordEntry{Seq: 0, Cost: 0, POSID: UnknownPOS, ConjType: 0, BaseSeq: 0}
}

// flatNode is one trie node in the serialized trie payload: a window
// into the edges array and a window into the records array.
type flatNode struct {
	EdgeOff uint32
	EdgeLen uint32
	RecOff  uint32
	RecLen  uint32
}

// flatEdge is one outgoing transition from a flatNode, keyed by rune.
// Edges belonging to the same node are stored contiguously and sorted
// by Rune so children can be found with a binary search.
type flatEdge struct {
	Rune  int32
	Child uint32
}

const (
	flatNodeSize = 16
	flatEdgeSize = 8
)
