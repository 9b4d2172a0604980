// Package score implements the pure scoring function: a real-valued
// preference over candidate edges that makes the forward search favor
// longer, cheaper matches while detaching trailing particles.
package score

import (
	"unicode/utf8"

	"github.com/himokagi/himokagi/internal/charclass"
	"github.com/himokagi/himokagi/internal/dict"
)

const (
	lengthWeight     = 50
	costClamp        = 100
	particlePenalty  = 60
	unknownBaseShift = 200
)

// Score computes the score of a known candidate edge spanning surface
// with lexical record entry.
func Score(surface string, entry dict.WordEntry) float64 {
	n := utf8.RuneCountInString(surface)
	lengthBonus := float64(n * lengthWeight)
	cost := int(entry.Cost)
	if cost > costClamp {
		cost = costClamp
	}
	base := lengthBonus - float64(cost)

	if n >= 2 && hasParticleSuffix(surface) {
		base -= particlePenalty
	}
	return base
}

// ScoreUnknown computes the score of a synthesized unknown edge
// spanning surface (one character, or a coalesced homogeneous run).
func ScoreUnknown(surface string) float64 {
	n := utf8.RuneCountInString(surface)
	return float64(n*lengthWeight) - unknownBaseShift
}

// hasParticleSuffix reports whether surface's last character is a
// particle character and the remainder of surface is not itself
// entirely kana.
func hasParticleSuffix(surface string) bool {
	runes := []rune(surface)
	last := runes[len(runes)-1]
	if !charclass.IsParticleChar(last) {
		return false
	}
	prefix := runes[:len(runes)-1]
	if len(prefix) == 0 {
		return false
	}
	return !allKana(prefix)
}

func allKana(runes []rune) bool {
	for _, r := range runes {
		c := charclass.Of(r)
		if c != charclass.Hiragana && c != charclass.Katakana {
			return false
		}
	}
	return true
}
