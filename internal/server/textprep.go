package server

import "regexp"

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby strips ruby annotation text (<rt>...</rt>) and ruby
// parentheses (<rp>...</rp>) from HTML content before extraction.
// go-readability otherwise keeps furigana text inline, duplicating it
// into the extracted article (e.g. "漢字" becomes "漢字かんじ"), which
// would throw off segmentation just as badly as reading duplication.
// Operates on bytes, byte-safe for Shift_JIS since every match begins
// at '<' and ends at '>', and neither is ever a trailing byte in
// Shift_JIS.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}
