// Package builder assembles the binary dictionary artifact that
// internal/dict.Open consumes: turning jmdict-simplified JSON entries
// into fixed 12-byte WordEntry records, never conjugation expansion or
// cost training.
package builder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/himokagi/himokagi/internal/dict"
)

// node is the in-memory trie node used while accumulating words before
// serialization.
type node struct {
	children map[rune]*node
	records  []dict.WordEntry
}

func newNode() *node { return &node{children: make(map[rune]*node)} }

// Builder accumulates (surface, WordEntry) pairs and serializes them
// into a binary dictionary artifact.
type Builder struct {
	root     *node
	posNames []string
}

// New creates an empty Builder. posNames, if non-nil, is written as the
// dictionary's POS table (pos_id -> name); pass nil to omit the table.
func New(posNames []string) *Builder {
	return &Builder{root: newNode(), posNames: posNames}
}

// NewWithStandardPOSTable creates a Builder using the standard POS
// table (see posmap.go).
func NewWithStandardPOSTable() *Builder {
	return New(posNames())
}

// AddWord inserts one lexical record under surface. Multiple entries
// for the same surface are kept in insertion order (homographs and
// conjugated forms), matching the trie's ordered-multi-record contract.
func (b *Builder) AddWord(surface string, entry dict.WordEntry) {
	n := b.root
	for _, r := range surface {
		child, ok := n.children[r]
		if !ok {
			child = newNode()
			n.children[r] = child
		}
		n = child
	}
	n.records = append(n.records, entry)
}

// Build serializes the accumulated trie into the binary dictionary
// format internal/dict.Open reads back.
func (b *Builder) Build() ([]byte, error) {
	var flatNodes []flatNodeOut
	var flatEdges []flatEdgeOut
	var records []dict.WordEntry

	// Breadth-first assignment of node ids so index 0 is always the
	// root, matching internal/dict's lookup convention.
	type queued struct {
		n  *node
		id int
	}
	idOf := map[*node]uint32{b.root: 0}
	order := []*node{b.root}
	queue := []queued{{b.root, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		runes := make([]rune, 0, len(cur.n.children))
		for r := range cur.n.children {
			runes = append(runes, r)
		}
		sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
		for _, r := range runes {
			child := cur.n.children[r]
			id := uint32(len(order))
			idOf[child] = id
			order = append(order, child)
			queue = append(queue, queued{child, int(id)})
		}
	}

	flatNodes = make([]flatNodeOut, len(order))
	for i, n := range order {
		runes := make([]rune, 0, len(n.children))
		for r := range n.children {
			runes = append(runes, r)
		}
		sort.Slice(runes, func(a, bIdx int) bool { return runes[a] < runes[bIdx] })

		edgeOff := uint32(len(flatEdges))
		for _, r := range runes {
			flatEdges = append(flatEdges, flatEdgeOut{Rune: int32(r), Child: idOf[n.children[r]]})
		}
		recOff := uint32(len(records))
		records = append(records, n.records...)

		flatNodes[i] = flatNodeOut{
			EdgeOff: edgeOff, EdgeLen: uint32(len(runes)),
			RecOff: recOff, RecLen: uint32(len(n.records)),
		}
	}

	return serialize(flatNodes, flatEdges, records, b.posNames)
}

// flatNodeOut/flatEdgeOut mirror internal/dict's unexported flatNode/
// flatEdge layout; duplicated here (rather than imported) because the
// wire format, not the Go type, is the shared contract.
type flatNodeOut struct {
	EdgeOff, EdgeLen uint32
	RecOff, RecLen   uint32
}

type flatEdgeOut struct {
	Rune  int32
	Child uint32
}

const (
	headerSize    = 44
	wordEntrySize = 12
	flagHasPOS    = uint32(1)
)

func serialize(nodes []flatNodeOut, edges []flatEdgeOut, records []dict.WordEntry, posNames []string) ([]byte, error) {
	var posTable bytes.Buffer
	flags := uint32(0)
	if posNames != nil {
		flags |= flagHasPOS
		if len(posNames) > 0xFFFF {
			return nil, fmt.Errorf("builder: too many pos names (%d)", len(posNames))
		}
		binary.Write(&posTable, binary.LittleEndian, uint16(len(posNames)))
		for _, name := range posNames {
			if len(name) > 0xFFFF {
				return nil, fmt.Errorf("builder: pos name too long: %q", name)
			}
			binary.Write(&posTable, binary.LittleEndian, uint16(len(name)))
			posTable.WriteString(name)
		}
	}

	var trie bytes.Buffer
	binary.Write(&trie, binary.LittleEndian, uint32(len(nodes)))
	binary.Write(&trie, binary.LittleEndian, uint32(len(edges)))
	binary.Write(&trie, binary.LittleEndian, uint32(len(records)))
	for _, n := range nodes {
		binary.Write(&trie, binary.LittleEndian, n)
	}
	for _, e := range edges {
		binary.Write(&trie, binary.LittleEndian, e)
	}
	for _, r := range records {
		binary.Write(&trie, binary.LittleEndian, r)
	}

	posTableOff := uint64(headerSize)
	trieOff := posTableOff + uint64(posTable.Len())
	trieLen := uint64(trie.Len())

	var out bytes.Buffer
	out.WriteString("HIMOTKSP")
	binary.Write(&out, binary.LittleEndian, uint32(1)) // version
	binary.Write(&out, binary.LittleEndian, flags)
	binary.Write(&out, binary.LittleEndian, uint32(wordEntrySize))
	binary.Write(&out, binary.LittleEndian, posTableOff)
	binary.Write(&out, binary.LittleEndian, trieOff)
	binary.Write(&out, binary.LittleEndian, trieLen)
	out.Write(posTable.Bytes())
	out.Write(trie.Bytes())

	return out.Bytes(), nil
}
