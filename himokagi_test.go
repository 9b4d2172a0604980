package himokagi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/himokagi/himokagi/internal/dict"
	"github.com/himokagi/himokagi/internal/dict/builder"
)

// seedDictionary builds a small fixture dictionary covering a handful
// of worked end-to-end scenarios. None of the multi-character
// particle-bearing strings ("今日は" etc.) are themselves dictionary
// entries: the segmenter must produce the split purely from scoring.
func seedDictionary(t *testing.T) string {
	t.Helper()
	b := builder.NewWithStandardPOSTable()
	words := map[string]dict.WordEntry{
		"今日":  {Seq: 1, Cost: 5, POSID: mustPOS(t, "n"), BaseSeq: 1},
		"は":   {Seq: 2, Cost: 5, POSID: mustPOS(t, "prt"), BaseSeq: 2},
		"天気":  {Seq: 3, Cost: 5, POSID: mustPOS(t, "n"), BaseSeq: 3},
		"が":   {Seq: 4, Cost: 5, POSID: mustPOS(t, "prt"), BaseSeq: 4},
		"いい":  {Seq: 5, Cost: 5, POSID: mustPOS(t, "adj-ix"), BaseSeq: 5},
		"です":  {Seq: 6, Cost: 5, POSID: mustPOS(t, "cop"), BaseSeq: 6},
		"ね":   {Seq: 7, Cost: 5, POSID: mustPOS(t, "int"), BaseSeq: 7},
		"。":   {Seq: 8, Cost: 0, POSID: mustPOS(t, "punc"), BaseSeq: 8},
		"俺":   {Seq: 9, Cost: 5, POSID: mustPOS(t, "pn"), BaseSeq: 9},
		"の":   {Seq: 10, Cost: 5, POSID: mustPOS(t, "prt"), BaseSeq: 10},
		"力":   {Seq: 11, Cost: 5, POSID: mustPOS(t, "n"), BaseSeq: 11},
		"を":   {Seq: 12, Cost: 5, POSID: mustPOS(t, "prt"), BaseSeq: 12},
		"見せて": {Seq: 13, Cost: 5, POSID: mustPOS(t, "v1"), BaseSeq: 13},
		"やる":  {Seq: 14, Cost: 5, POSID: mustPOS(t, "v5r"), BaseSeq: 14},
		"絶対":  {Seq: 15, Cost: 5, POSID: mustPOS(t, "adv"), BaseSeq: 15},
		"に":   {Seq: 16, Cost: 5, POSID: mustPOS(t, "prt"), BaseSeq: 16},
		"負けない": {Seq: 17, Cost: 5, POSID: mustPOS(t, "v1"), BaseSeq: 17},
	}
	for surface, entry := range words {
		b.AddWord(surface, entry)
	}

	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "seed.bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}
	return path
}

func mustPOS(t *testing.T, tag string) uint8 {
	t.Helper()
	id, ok := builder.POSID(tag)
	if !ok {
		t.Fatalf("no pos id for tag %q", tag)
	}
	return id
}

func surfacesOf(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Surface
	}
	return out
}

func TestTokenizeScenario1(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	tokens, err := a.Tokenize("今日は天気がいいですね。")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	want := []string{"今日", "は", "天気", "が", "いい", "です", "ね", "。"}
	got := surfacesOf(tokens)
	if !equalStrings(got, want) {
		t.Fatalf("surfaces = %v, want %v", got, want)
	}
}

func TestTokenizeScenario2(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	tokens, err := a.Tokenize("俺の力を見せてやる")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	want := []string{"俺", "の", "力", "を", "見せて", "やる"}
	got := surfacesOf(tokens)
	if !equalStrings(got, want) {
		t.Fatalf("surfaces = %v, want %v", got, want)
	}
}

func TestTokenizeScenario3(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	text := "絶対に負けない"
	tokens, err := a.Tokenize(text)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) < 2 {
		t.Fatalf("expected at least 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Surface != "絶対" {
		t.Errorf("first token = %q, want 絶対", tokens[0].Surface)
	}
	if tokens[1].Surface != "に" {
		t.Errorf("second token = %q, want に", tokens[1].Surface)
	}
	last := tokens[len(tokens)-1]
	if last.End != len([]rune(text)) {
		t.Errorf("last token End = %d, want %d", last.End, len([]rune(text)))
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	tokens, err := a.Tokenize("")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected no tokens for empty input, got %v", tokens)
	}
}

func TestTokenizeScenario5HomogeneousRun(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	tokens, err := a.Tokenize("XYZ123")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	want := []string{"XYZ", "123"}
	got := surfacesOf(tokens)
	if !equalStrings(got, want) {
		t.Fatalf("surfaces = %v, want %v", got, want)
	}
	for _, tok := range tokens {
		if tok.POS != "unk" {
			t.Errorf("token %q has pos %q, want unk", tok.Surface, tok.POS)
		}
	}
}

func TestAnalyzeScenario6(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	analyses, err := a.Analyze("今日は", 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analyses) == 0 {
		t.Fatal("expected at least one analysis")
	}

	found := false
	for _, an := range analyses {
		if len(an.Tokens) == 2 && an.Tokens[0].Surface == "今日" && an.Tokens[1].Surface == "は" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an analysis segmenting as [今日, は], got %+v", analyses)
	}
	// first result must equal Tokenize's best path (K-best monotonicity).
	best, err := a.Tokenize("今日は")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if !equalStrings(surfacesOf(analyses[0].Tokens), surfacesOf(best)) {
		t.Errorf("analyses[0] = %v, want %v (Tokenize best path)", surfacesOf(analyses[0].Tokens), surfacesOf(best))
	}
}

func TestAnalyzeInvalidLimit(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, err := a.Analyze("今日は", 0); err == nil {
		t.Fatal("expected error for limit < 1")
	}
}

func TestBatchAnalyze(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	texts := []string{"今日は天気がいいですね。", "俺の力を見せてやる", ""}
	results, errs := a.BatchAnalyze(context.Background(), texts, 2)
	if len(results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(results))
	}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("BatchAnalyze[%d] error: %v", i, err)
		}
	}
	if len(results[2]) != 0 {
		t.Errorf("expected empty result for empty text, got %v", results[2])
	}
	if got := surfacesOf(results[1]); !equalStrings(got, []string{"俺", "の", "力", "を", "見せて", "やる"}) {
		t.Errorf("batch result[1] = %v", got)
	}
}

func TestWarmUpIdempotent(t *testing.T) {
	a, err := Open(seedDictionary(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if err := a.WarmUp(); err != nil {
		t.Fatalf("WarmUp failed: %v", err)
	}
	if err := a.WarmUp(); err != nil {
		t.Fatalf("second WarmUp failed: %v", err)
	}
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Error("Version() should not be empty")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
