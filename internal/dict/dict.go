// Package dict implements a memory-mapped, header-addressed flat trie
// dictionary, mapping UTF-8 surface strings to one or more fixed
// 12-byte WordEntry records.
//
// Grounded on the mmap-go + header + flat node/edge array pattern used
// by a mmap-backed DAWG morphological analyzer (see DESIGN.md); the
// per-node child lookup below is the same binary-search-over-a-sorted-
// edge-window technique.
package dict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"sync/atomic"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

// ErrKind identifies the category of a DictionaryError.
type ErrKind int

const (
	ErrNotFound ErrKind = iota
	ErrCorrupt
	ErrVersionMismatch
)

func (k ErrKind) String() string {
	switch k {
	case ErrNotFound:
		return "not found"
	case ErrCorrupt:
		return "corrupt"
	case ErrVersionMismatch:
		return "version mismatch"
	default:
		return "unknown"
	}
}

// DictionaryError is returned by Open when the artifact cannot be used.
type DictionaryError struct {
	Kind ErrKind
	Err  error
}

func (e *DictionaryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dictionary: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("dictionary: %s", e.Kind)
}

func (e *DictionaryError) Unwrap() error { return e.Err }

// Candidate is one prefix match: a matched-prefix length in Unicode
// code points, paired with the lexical record found at that length.
type Candidate struct {
	Length int
	Entry  WordEntry
}

// Dictionary is a read-only, memory-mapped handle on a binary
// dictionary artifact. Safe for concurrent use by multiple goroutines
// once Open has returned; the mapping is shared-immutable and no
// locking is required on the lookup path.
type Dictionary struct {
	mapped   mmap.MMap
	file     *os.File
	nodes    []flatNode
	edges    []flatEdge
	records  []WordEntry
	posNames []string
	closed   atomic.Bool
}

// Open reads and validates the dictionary at path, memory-mapping its
// contents. All bytes are validated here (magic, version, offsets);
// subsequent queries assume validity.
func Open(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &DictionaryError{Kind: ErrNotFound, Err: err}
		}
		return nil, &DictionaryError{Kind: ErrNotFound, Err: err}
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("mmap: %w", err)}
	}

	d, err := parse(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	d.mapped = m
	d.file = f
	return d, nil
}

func parse(m mmap.MMap) (*Dictionary, error) {
	if len(m) < headerSize {
		return nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("file too small for header (%d bytes)", len(m))}
	}
	if !bytes.Equal(m[0:8], []byte(magic)) {
		return nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("bad magic %q", m[0:8])}
	}

	h := header{
		version:     binary.LittleEndian.Uint32(m[8:12]),
		flags:       binary.LittleEndian.Uint32(m[12:16]),
		recordSize:  binary.LittleEndian.Uint32(m[16:20]),
		posTableOff: binary.LittleEndian.Uint64(m[20:28]),
		trieOff:     binary.LittleEndian.Uint64(m[28:36]),
		trieLen:     binary.LittleEndian.Uint64(m[36:44]),
	}
	if h.version != formatVersion {
		return nil, &DictionaryError{Kind: ErrVersionMismatch, Err: fmt.Errorf("got version %d, want %d", h.version, formatVersion)}
	}
	if h.recordSize != wordEntrySize {
		return nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("unexpected record size %d", h.recordSize)}
	}

	posNames, err := parsePOSTable(m, h)
	if err != nil {
		return nil, err
	}

	nodes, edges, records, err := parseTrie(m, h)
	if err != nil {
		return nil, err
	}

	return &Dictionary{nodes: nodes, edges: edges, records: records, posNames: posNames}, nil
}

func parsePOSTable(m mmap.MMap, h header) ([]string, error) {
	if h.flags&flagHasPOSTable == 0 {
		return nil, nil
	}
	off := h.posTableOff
	if off+2 > uint64(len(m)) {
		return nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("pos table offset %d out of bounds", off)}
	}
	count := binary.LittleEndian.Uint16(m[off : off+2])
	off += 2
	names := make([]string, count)
	for i := uint16(0); i < count; i++ {
		if off+2 > uint64(len(m)) {
			return nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("pos table entry %d truncated", i)}
		}
		l := binary.LittleEndian.Uint16(m[off : off+2])
		off += 2
		if off+uint64(l) > uint64(len(m)) {
			return nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("pos table entry %d string truncated", i)}
		}
		names[i] = string(m[off : off+uint64(l)])
		off += uint64(l)
	}
	return names, nil
}

func parseTrie(m mmap.MMap, h header) ([]flatNode, []flatEdge, []WordEntry, error) {
	start := h.trieOff
	end := start + h.trieLen
	if end > uint64(len(m)) || start+12 > end {
		return nil, nil, nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("trie region [%d:%d] out of bounds", start, end)}
	}
	nodeCount := binary.LittleEndian.Uint32(m[start : start+4])
	edgeCount := binary.LittleEndian.Uint32(m[start+4 : start+8])
	recordCount := binary.LittleEndian.Uint32(m[start+8 : start+12])

	off := start + 12
	nodesEnd := off + uint64(nodeCount)*flatNodeSize
	edgesEnd := nodesEnd + uint64(edgeCount)*flatEdgeSize
	recordsEnd := edgesEnd + uint64(recordCount)*wordEntrySize
	if recordsEnd > end {
		return nil, nil, nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("trie payload declares more data (%d bytes) than its region (%d bytes)", recordsEnd-start, h.trieLen)}
	}

	nodes := bytesToSlice[flatNode](m[off:nodesEnd])
	edges := bytesToSlice[flatEdge](m[nodesEnd:edgesEnd])
	records := bytesToSlice[WordEntry](m[edgesEnd:recordsEnd])

	if uint32(len(nodes)) != nodeCount || uint32(len(edges)) != edgeCount || uint32(len(records)) != recordCount {
		return nil, nil, nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("trie array length mismatch")}
	}
	for _, n := range nodes {
		if uint64(n.EdgeOff)+uint64(n.EdgeLen) > uint64(len(edges)) || uint64(n.RecOff)+uint64(n.RecLen) > uint64(len(records)) {
			return nil, nil, nil, &DictionaryError{Kind: ErrCorrupt, Err: fmt.Errorf("trie node references out-of-bounds edge or record window")}
		}
	}
	return nodes, edges, records, nil
}

// bytesToSlice reinterprets a byte window of a memory-mapped file as a
// slice of T, without copying.
func bytesToSlice[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size)
}

// PrefixLookup returns, for every dictionary key that is a prefix of
// text[start:], the matched length (in code points) paired with each
// stored record. Read-only, side-effect free, and O(m·k) in the
// matched-prefix length m and stored-record count k.
func (d *Dictionary) PrefixLookup(text []rune, start int) ([]Candidate, error) {
	if d.closed.Load() {
		return nil, fmt.Errorf("dict: lookup on closed dictionary")
	}
	if start >= len(text) {
		return nil, nil
	}

	var out []Candidate
	nodeIdx := uint32(0)
	for i := start; i < len(text); i++ {
		child, ok := d.findChild(nodeIdx, text[i])
		if !ok {
			break
		}
		nodeIdx = child
		node := d.nodes[nodeIdx]
		if node.RecLen > 0 {
			length := i - start + 1
			for _, e := range d.records[node.RecOff : node.RecOff+node.RecLen] {
				out = append(out, Candidate{Length: length, Entry: e})
			}
		}
	}
	return out, nil
}

// findChild looks up the child of nodeIdx reached by r, using a
// binary search over that node's sorted edge window.
func (d *Dictionary) findChild(nodeIdx uint32, r rune) (uint32, bool) {
	node := d.nodes[nodeIdx]
	if node.EdgeLen == 0 {
		return 0, false
	}
	edges := d.edges[node.EdgeOff : node.EdgeOff+node.EdgeLen]
	target := int32(r)
	i := sort.Search(len(edges), func(i int) bool { return edges[i].Rune >= target })
	if i < len(edges) && edges[i].Rune == target {
		return edges[i].Child, true
	}
	return 0, false
}

// POSName returns the human-readable POS name for posID, or "" if the
// dictionary carries no POS table or the id is out of range.
func (d *Dictionary) POSName(posID uint8) string {
	if int(posID) >= len(d.posNames) {
		return ""
	}
	return d.posNames[posID]
}

// Close releases the memory mapping. PrefixLookup calls after Close
// return an error; POSName keeps answering from the POS table copied
// at Open.
func (d *Dictionary) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if d.mapped != nil {
		err = d.mapped.Unmap()
	}
	if d.file != nil {
		if cerr := d.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
