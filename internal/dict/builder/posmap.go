package builder

// posIDs assigns a stable compact id to each JMdict-style part-of-speech
// tag, grouped by family range. The exact id within a family is this
// implementation's choice; only the reserved unknown/synthesized ids at
// 0 and 255 carry fixed meaning.
var posIDs = map[string]uint8{
	// noun family: 1-5
	"n": 1, "n-adv": 2, "n-pref": 3, "n-suf": 4, "n-t": 5,

	// verb family: 10-30
	"v1": 10, "v5k": 11, "v5s": 12, "v5t": 13, "v5n": 14, "v5b": 15,
	"v5m": 16, "v5r": 17, "v5u": 18, "v5g": 19, "v5aru": 20, "v5k-s": 21,
	"vk": 25, "vs": 26, "vs-s": 27, "vs-i": 28,

	// adjective family: 40-46
	"adj-i": 40, "adj-na": 41, "adj-no": 42, "adj-ix": 43, "adj-ku": 44,
	"adj-shiku": 45, "adj-f": 46,

	// adverbs: 50-51
	"adv": 50, "adv-to": 51,

	// auxiliaries: 60-62
	"aux": 60, "aux-v": 61, "aux-adj": 62,

	// 70-74
	"conj": 70, "cop": 71, "ctr": 72, "exp": 73, "int": 74,

	// 80-84
	"pn": 80, "pref": 81, "prt": 82, "suf": 83, "unc": 84,

	// punctuation is not a JMdict tag; this id lets punctuation be
	// added to a dictionary as ordinary entries. internal/segment
	// synthesizes no punctuation edges: unmatched punctuation becomes
	// an unknown edge.
	"punc": 90,
}

// UnknownPOSID mirrors dict.UnknownPOS so callers of this package don't
// need to import internal/dict just for the constant.
const UnknownPOSID = 255

// posNames is the pos_id -> name table written into the dictionary's
// POS table; index i holds the name for id i.
func posNames() []string {
	names := make([]string, int(UnknownPOSID)+1)
	for name, id := range posIDs {
		names[id] = name
	}
	names[0] = "unk"
	names[UnknownPOSID] = "unk"
	return names
}

// POSID returns the compact id for a JMdict part-of-speech tag, and
// whether the tag is known.
func POSID(tag string) (uint8, bool) {
	id, ok := posIDs[tag]
	return id, ok
}
