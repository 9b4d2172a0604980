package dict_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/himokagi/himokagi/internal/dict"
	"github.com/himokagi/himokagi/internal/dict/builder"
)

func buildFixture(t *testing.T) string {
	t.Helper()
	b := builder.New([]string{"unk", "n", "prt"})
	b.AddWord("今日", dict.WordEntry{Seq: 1, Cost: 10, POSID: 1, ConjType: 0, BaseSeq: 1})
	b.AddWord("今日は", dict.WordEntry{Seq: 2, Cost: 5, POSID: 1, ConjType: 0, BaseSeq: 2})
	b.AddWord("は", dict.WordEntry{Seq: 3, Cost: 3, POSID: 2, ConjType: 0, BaseSeq: 3})

	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "fixture.bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture failed: %v", err)
	}
	return path
}

func TestOpenAndPrefixLookup(t *testing.T) {
	path := buildFixture(t)
	d, err := dict.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	text := []rune("今日は元気です")
	cands, err := d.PrefixLookup(text, 0)
	if err != nil {
		t.Fatalf("PrefixLookup failed: %v", err)
	}

	lengths := map[int]bool{}
	for _, c := range cands {
		lengths[c.Length] = true
	}
	if !lengths[2] {
		t.Errorf("expected a length-2 match (今日), got %+v", cands)
	}
	if !lengths[3] {
		t.Errorf("expected a length-3 match (今日は), got %+v", cands)
	}
}

func TestPrefixLookupNoMatch(t *testing.T) {
	path := buildFixture(t)
	d, err := dict.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	text := []rune("絶対")
	cands, err := d.PrefixLookup(text, 0)
	if err != nil {
		t.Fatalf("PrefixLookup failed: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no matches, got %+v", cands)
	}
}

func TestPOSName(t *testing.T) {
	path := buildFixture(t)
	d, err := dict.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	if got := d.POSName(1); got != "n" {
		t.Errorf("POSName(1) = %q, want \"n\"", got)
	}
	if got := d.POSName(2); got != "prt" {
		t.Errorf("POSName(2) = %q, want \"prt\"", got)
	}
}

func TestCloseIsIdempotentAndBlocksQueries(t *testing.T) {
	path := buildFixture(t)
	d, err := dict.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
	if _, err := d.PrefixLookup([]rune("今日"), 0); err == nil {
		t.Errorf("expected error querying a closed dictionary")
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := dict.Open(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	if err == nil {
		t.Fatal("expected error opening missing file")
	}
	var derr *dict.DictionaryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *dict.DictionaryError, got %T: %v", err, err)
	}
	if derr.Kind != dict.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", derr.Kind)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.bin")
	if err := os.WriteFile(path, []byte("not a dictionary"), 0o600); err != nil {
		t.Fatalf("write corrupt fixture failed: %v", err)
	}
	_, err := dict.Open(path)
	if err == nil {
		t.Fatal("expected error opening corrupt file")
	}
	var derr *dict.DictionaryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *dict.DictionaryError, got %T: %v", err, err)
	}
	if derr.Kind != dict.ErrCorrupt {
		t.Errorf("expected ErrCorrupt, got %v", derr.Kind)
	}
}
