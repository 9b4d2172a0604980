// Package segment implements the segmentation engine: candidate
// enumeration over a dictionary, forward best-path search, and
// A*-style K-best search over the resulting lattice.
//
// Grounded on a DAG-based tokenizer shape (forward DP + back-pointer
// reconstruction) for the candidate/DP structure, generalized with its
// own scoring, tie-break, and homogeneous-run rules.
package segment

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/himokagi/himokagi/internal/charclass"
	"github.com/himokagi/himokagi/internal/dict"
	"github.com/himokagi/himokagi/internal/lattice"
	"github.com/himokagi/himokagi/internal/score"
)

// ErrInvalidLimit is returned when analyze is called with limit < 1.
var ErrInvalidLimit = errors.New("segment: limit must be >= 1")

// Result pairs a winning edge sequence with its total score.
type Result struct {
	Edges []lattice.Edge
	Score float64
}

// BuildLattice enumerates every candidate edge for text against d,
// grouped by start position.
func BuildLattice(d *dict.Dictionary, text []rune) ([][]lattice.Edge, error) {
	n := len(text)
	edgesFrom := make([][]lattice.Edge, n)
	for i := 0; i < n; i++ {
		cands, err := d.PrefixLookup(text, i)
		if err != nil {
			return nil, fmt.Errorf("segment: prefix lookup at %d: %w", i, err)
		}
		for _, c := range cands {
			surface := string(text[i : i+c.Length])
			edgesFrom[i] = append(edgesFrom[i], lattice.Edge{
				From: i, To: i + c.Length, Surface: surface,
				Entry: c.Entry, Score: score.Score(surface, c.Entry),
			})
		}

		unkSurface := string(text[i : i+1])
		edgesFrom[i] = append(edgesFrom[i], lattice.Edge{
			From: i, To: i + 1, Surface: unkSurface,
			Entry: dict.Unknown(), Score: score.ScoreUnknown(unkSurface), Unknown: true,
		})

		if runLen := homogeneousRunLength(text, i); runLen >= 2 {
			runSurface := string(text[i : i+runLen])
			edgesFrom[i] = append(edgesFrom[i], lattice.Edge{
				From: i, To: i + runLen, Surface: runSurface,
				Entry: dict.Unknown(), Score: score.ScoreUnknown(runSurface), Unknown: true,
			})
		}
	}
	return edgesFrom, nil
}

// homogeneousRunLength returns the length, in characters, of the
// katakana/digit/latin run starting at start; 1 if text[start] does
// not begin such a run.
func homogeneousRunLength(text []rune, start int) int {
	c := charclass.Of(text[start])
	if c != charclass.Katakana && c != charclass.Digit && c != charclass.Latin {
		return 1
	}
	end := start + 1
	for end < len(text) && charclass.SameRun(text[start], text[end]) {
		end++
	}
	return end - start
}

// forward holds the result of the §4.4.2 dynamic program: the best
// score reaching each node and the edge that achieved it.
type forward struct {
	score []float64
	edge  []lattice.Edge
	ok    []bool
}

func runForward(edgesFrom [][]lattice.Edge) forward {
	n := len(edgesFrom)
	f := forward{
		score: make([]float64, n+1),
		edge:  make([]lattice.Edge, n+1),
		ok:    make([]bool, n+1),
	}
	for i := range f.score {
		f.score[i] = math.Inf(-1)
	}
	f.score[0] = 0
	f.ok[0] = true

	for i := 0; i < n; i++ {
		if !f.ok[i] {
			continue
		}
		for _, e := range edgesFrom[i] {
			cand := f.score[i] + e.Score
			j := e.To
			if !f.ok[j] || cand > f.score[j] || (cand == f.score[j] && lattice.Preferred(e, f.edge[j])) {
				f.score[j] = cand
				f.edge[j] = e
				f.ok[j] = true
			}
		}
	}
	return f
}

// BestPath runs the forward dynamic program and reconstructs the best
// edge sequence. edgesFrom must come from BuildLattice over a
// non-empty text.
func BestPath(edgesFrom [][]lattice.Edge) []lattice.Edge {
	f := runForward(edgesFrom)
	n := len(edgesFrom)

	var edges []lattice.Edge
	for j := n; j > 0; {
		e := f.edge[j]
		edges = append(edges, e)
		j = e.From
	}
	reverseEdges(edges)
	return edges
}

func reverseEdges(edges []lattice.Edge) {
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
}

// KBest returns up to limit distinct edge sequences in decreasing
// total score, via an A*-style backward search: the forward best_score
// computed above is an admissible heuristic on the
// best achievable score of any prefix ending at a given node, so
// popping partial backward paths in decreasing (accumulated + heuristic)
// order yields complete paths in decreasing true total-score order.
// The first result is BestPath's edge sequence; two sequences count as
// distinct when any edge differs in span or lexical record.
func KBest(edgesFrom [][]lattice.Edge, limit int) ([]Result, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	n := len(edgesFrom)
	if n == 0 {
		return nil, nil
	}

	f := runForward(edgesFrom)

	edgesTo := make([][]lattice.Edge, n+1)
	for i := 0; i < n; i++ {
		for _, e := range edgesFrom[i] {
			edgesTo[e.To] = append(edgesTo[e.To], e)
		}
	}

	pq := &frontier{}
	heap.Init(pq)
	heap.Push(pq, &partial{node: n, g: 0, f: f.score[n]})

	// The forward pass's own best path is the first result, so the
	// tie-break (lattice.Preferred) decides it exactly as in BestPath;
	// the backward search orders equal-score completions by heap order.
	var best []lattice.Edge
	for j := n; j > 0; j = f.edge[j].From {
		best = append(best, f.edge[j])
	}
	reverseEdges(best)
	results := []Result{{Edges: best, Score: f.score[n]}}
	seen := map[string]bool{signature(best): true}

	for pq.Len() > 0 && len(results) < limit {
		cur := heap.Pop(pq).(*partial)
		if cur.node == 0 {
			edges := make([]lattice.Edge, len(cur.edges))
			copy(edges, cur.edges)
			reverseEdges(edges)
			key := signature(edges)
			if seen[key] {
				continue
			}
			seen[key] = true
			results = append(results, Result{Edges: edges, Score: cur.g})
			continue
		}
		for _, e := range edgesTo[cur.node] {
			g := cur.g + e.Score
			next := &partial{
				node:  e.From,
				g:     g,
				f:     g + f.score[e.From],
				edges: append(append([]lattice.Edge(nil), cur.edges...), e),
			}
			heap.Push(pq, next)
		}
	}
	return results, nil
}

func signature(edges []lattice.Edge) string {
	var b strings.Builder
	for _, e := range edges {
		fmt.Fprintf(&b, "%d:%d:%v:%t,", e.From, e.To, e.Entry, e.Unknown)
	}
	return b.String()
}

// partial is one frontier state in the backward A* search: a suffix
// of edges covering [node, N) with accumulated score g, prioritized by
// f = g + the forward heuristic at node.
type partial struct {
	node  int
	g     float64
	f     float64
	edges []lattice.Edge
}

// frontier is a max-heap on f, so the highest-scoring completion is
// always explored first.
type frontier []*partial

func (q frontier) Len() int            { return len(q) }
func (q frontier) Less(i, j int) bool  { return q[i].f > q[j].f }
func (q frontier) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *frontier) Push(x interface{}) { *q = append(*q, x.(*partial)) }
func (q *frontier) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
