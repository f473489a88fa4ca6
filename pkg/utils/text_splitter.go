package utils

import (
	"strings"
	"unicode"
)

// SplitText splits text into chunks of at most chunkSize runes, repeating
// overlap runes at each boundary. A chunk ends at the last whitespace of its
// final quarter when there is one, so words are rarely cut in half.
func SplitText(text string, chunkSize int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	totalLen := len(runes)
	if chunkSize <= 0 || totalLen <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < totalLen; {
		end := start + chunkSize
		if end >= totalLen {
			end = totalLen
		} else if cut := lastSpace(runes, end-chunkSize/4, end); cut > start+overlap {
			end = cut
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == totalLen {
			break
		}
		start = end - overlap
	}

	return chunks
}

func lastSpace(runes []rune, from, to int) int {
	if from < 0 {
		from = 0
	}
	for i := to; i > from; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return -1
}
