package builder

import (
	"strconv"

	"github.com/himokagi/himokagi/internal/dict"
)

// BuildFromJMdict adds one WordEntry per kanji/kana surface in entries
// to b. Cost assignment is a fixed heuristic: cost 0 for entries
// jmdict-simplified marks common, 50 otherwise — deliberately not a
// training pipeline.
func (b *Builder) BuildFromJMdict(entries []JMdictEntry) {
	for _, e := range entries {
		seq := parseSeq(e.ID)
		posID := posIDFromSenses(e.Sense)
		cost := costFor(e)
		entry := dict.WordEntry{
			Seq: seq, Cost: int16(cost), POSID: posID, ConjType: 0, BaseSeq: seq,
		}
		for _, k := range e.Kanji {
			b.AddWord(k.Text, entry)
		}
		for _, k := range e.Kana {
			b.AddWord(k.Text, entry)
		}
	}
}

func parseSeq(id string) int32 {
	n, err := strconv.ParseInt(id, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

func posIDFromSenses(senses []JMdictSense) uint8 {
	for _, s := range senses {
		for _, tag := range s.PartOfSpeech {
			if id, ok := POSID(tag); ok {
				return id
			}
		}
	}
	return 0
}

func costFor(e JMdictEntry) int {
	for _, k := range e.Kanji {
		if k.Common {
			return 0
		}
	}
	for _, k := range e.Kana {
		if k.Common {
			return 0
		}
	}
	return 50
}
