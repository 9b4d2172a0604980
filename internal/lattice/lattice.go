// Package lattice defines the directed-acyclic-graph representation
// the segmenter searches over: nodes at character offsets, edges
// carrying a candidate surface span and its score.
package lattice

import "github.com/himokagi/himokagi/internal/dict"

// Edge is one candidate segmentation step from character offset From
// to To (half-open, To > From). For a dictionary match Entry carries the
// matched lexical record; Unknown edges carry the one dict.Unknown()
// synthesizes.
type Edge struct {
	From, To int
	Surface  string
	Entry    dict.WordEntry
	Score    float64
	Unknown  bool
}

// Len returns the edge's span length in characters.
func (e Edge) Len() int { return e.To - e.From }

// Preferred implements the tie-break policy when two edges reach the
// same node with equal score: longer edge wins; then smaller
// entry.Cost; then smaller entry.POSID.
func Preferred(a, b Edge) bool {
	if a.Len() != b.Len() {
		return a.Len() > b.Len()
	}
	if a.Entry.Cost != b.Entry.Cost {
		return a.Entry.Cost < b.Entry.Cost
	}
	return a.Entry.POSID < b.Entry.POSID
}
