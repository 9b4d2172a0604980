// Package himokagi is the public façade of a memory-mapped Japanese
// morphological analyzer: it assembles Token values from
// the segmenter's winning lattice paths and exposes the process-wide
// singleton access pattern alongside an explicit, non-global
// constructor for callers who want their own dictionary handle.
package himokagi

import (
	"context"
	"fmt"
	"sync"

	"github.com/himokagi/himokagi/internal/concurrency"
	"github.com/himokagi/himokagi/internal/dict"
	"github.com/himokagi/himokagi/internal/lattice"
	"github.com/himokagi/himokagi/internal/segment"
)

const version = "0.1.0"

// Version returns the current version of this module.
func Version() string { return version }

// Token is one segmented morpheme.
type Token struct {
	Surface    string
	Reading    string
	POS        string
	BaseForm   string
	BaseFormID int32
	Start      int
	End        int
}

// Analysis pairs one complete tokenization with its total lattice
// score.
type Analysis struct {
	Tokens []Token
	Score  float64
}

// Analyzer wraps an open dictionary and exposes the tokenize/analyze/
// warm_up operations.
type Analyzer struct {
	d *dict.Dictionary
}

// Open opens the binary dictionary at path and returns an Analyzer
// bound to it, for callers who want an explicit instance rather than
// the package-level singleton below.
func Open(path string) (*Analyzer, error) {
	d, err := dict.Open(path)
	if err != nil {
		return nil, fmt.Errorf("himokagi: open: %w", err)
	}
	return &Analyzer{d: d}, nil
}

// Close releases the underlying dictionary mapping.
func (a *Analyzer) Close() error { return a.d.Close() }

// Tokenize returns the best-path tokenization of text.
// Empty input yields an empty, nil slice.
func (a *Analyzer) Tokenize(text string) ([]Token, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	edgesFrom, err := segment.BuildLattice(a.d, runes)
	if err != nil {
		return nil, err
	}
	edges := segment.BestPath(edgesFrom)
	return a.materialize(edges), nil
}

// Analyze returns up to limit analyses in decreasing total score
//. limit must be >= 1; the first result's tokens always
// equal Tokenize's result.
func (a *Analyzer) Analyze(text string, limit int) ([]Analysis, error) {
	if limit < 1 {
		return nil, segment.ErrInvalidLimit
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	edgesFrom, err := segment.BuildLattice(a.d, runes)
	if err != nil {
		return nil, err
	}
	results, err := segment.KBest(edgesFrom, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Analysis, len(results))
	for i, r := range results {
		out[i] = Analysis{Tokens: a.materialize(r.Edges), Score: r.Score}
	}
	return out, nil
}

// WarmUp forces the dictionary's mapping to be touched; idempotent.
func (a *Analyzer) WarmUp() error {
	_, err := a.Tokenize("warmup")
	return err
}

// materialize converts a winning edge sequence into Tokens. Reading and
// base_form fall back to surface: the compact 12-byte record carries no
// reading side-table (a documented limitation).
func (a *Analyzer) materialize(edges []lattice.Edge) []Token {
	tokens := make([]Token, len(edges))
	for i, e := range edges {
		if e.Unknown {
			tokens[i] = Token{
				Surface: e.Surface, Reading: e.Surface, POS: "unk",
				BaseForm: e.Surface, BaseFormID: 0, Start: e.From, End: e.To,
			}
			continue
		}
		tokens[i] = Token{
			Surface:    e.Surface,
			Reading:    e.Surface,
			POS:        a.d.POSName(e.Entry.POSID),
			BaseForm:   e.Surface,
			BaseFormID: e.Entry.BaseSeq,
			Start:      e.From,
			End:        e.To,
		}
	}
	return tokens
}

// BatchAnalyze fans texts out across a fixed-size worker pool and
// returns one Tokenize result per input, in the same order as texts.
// Concurrent reads share the mapped dictionary without serialization.
func (a *Analyzer) BatchAnalyze(ctx context.Context, texts []string, workers int) ([][]Token, []error) {
	results := make([][]Token, len(texts))

	pool := concurrency.NewWorkerPool(workers)
	errs := pool.Run(ctx, len(texts), func(ctx context.Context, i int) error {
		toks, err := a.Tokenize(texts[i])
		results[i] = toks
		return err
	})
	return results, errs
}

// --- process-wide singleton façade ---

var (
	defaultOnce sync.Once
	defaultAnz  *Analyzer
	defaultErr  error
	defaultPath string
	defaultMu   sync.Mutex
)

// SetDefaultDictionaryPath configures the path the package-level
// singleton opens on first use. Has no effect once the singleton has
// already initialized.
func SetDefaultDictionaryPath(path string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultPath = path
}

func defaultAnalyzer() (*Analyzer, error) {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		path := defaultPath
		defaultMu.Unlock()
		defaultAnz, defaultErr = Open(path)
	})
	return defaultAnz, defaultErr
}

// Tokenize delegates to the lazily-opened process-wide default
// Analyzer; see SetDefaultDictionaryPath.
func Tokenize(text string) ([]Token, error) {
	a, err := defaultAnalyzer()
	if err != nil {
		return nil, err
	}
	return a.Tokenize(text)
}

// Analyze delegates to the lazily-opened process-wide default
// Analyzer; see SetDefaultDictionaryPath.
func Analyze(text string, limit int) ([]Analysis, error) {
	a, err := defaultAnalyzer()
	if err != nil {
		return nil, err
	}
	return a.Analyze(text, limit)
}

// WarmUp forces the process-wide default dictionary to open and its
// mapping to be touched. The dictionary is opened at most once
// (sync.Once): concurrent first callers wait for that single Open and
// share its mapping.
func WarmUp() error {
	a, err := defaultAnalyzer()
	if err != nil {
		return err
	}
	return a.WarmUp()
}
