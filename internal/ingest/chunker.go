package ingest

import (
	"strings"
	"unicode/utf8"
)

// Sizing policy by inferred document type. Briefs carry long argument blocks
// and get wider windows; contracts are clause-dense and get narrower ones.
const (
	defaultChunkSize  = 1000
	briefChunkSize    = 1500
	contractChunkSize = 800
	chunkOverlap      = 200
)

// Split priority: paragraph, then line, then sentence, then word, then raw
// character cuts. A unit is never broken while a coarser boundary still fits
// the window.
var separators = []string{"\n\n", "\n", ".", " "}

// SizingFor maps an inferred document type to its chunk window. The table is
// the stable interface; upstream type inference can change without touching it.
func SizingFor(documentType string) (size, overlap int) {
	switch strings.ToLower(strings.TrimSpace(documentType)) {
	case "legal_brief", "brief":
		return briefChunkSize, chunkOverlap
	case "contract":
		return contractChunkSize, chunkOverlap
	default:
		return defaultChunkSize, chunkOverlap
	}
}

// SplitText splits text into overlapping windows of at most size runes
// (plus the overlap carried from the previous window). Deterministic: the
// same input and sizing always produce the same boundaries.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	raw := splitRecursive(text, separators, size, overlap)
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitRecursive(text string, seps []string, size, overlap int) []string {
	if runeLen(text) <= size {
		return []string{text}
	}

	sep := ""
	rest := seps
	for i, s := range seps {
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return splitFixed(text, size, overlap)
	}

	pieces := make([]string, 0, 16)
	for _, part := range strings.Split(text, sep) {
		if runeLen(part) > size {
			pieces = append(pieces, splitRecursive(part, rest, size, overlap)...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return mergePieces(pieces, sep, size, overlap)
}

// mergePieces greedily packs pieces into windows, carrying trailing pieces up
// to overlap runes into the next window.
func mergePieces(pieces []string, sep string, size, overlap int) []string {
	sepLen := runeLen(sep)
	chunks := make([]string, 0, len(pieces))
	current := make([]string, 0, 8)
	currentLen := 0

	for _, piece := range pieces {
		pieceLen := runeLen(piece)
		add := pieceLen
		if len(current) > 0 {
			add += sepLen
		}
		if currentLen+add > size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, sep))
			for currentLen > overlap && len(current) > 0 {
				currentLen -= runeLen(current[0])
				if len(current) > 1 {
					currentLen -= sepLen
				}
				current = current[1:]
			}
		}
		if len(current) > 0 {
			currentLen += sepLen
		}
		current = append(current, piece)
		currentLen += pieceLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}
	return chunks
}

func splitFixed(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	if step <= 0 {
		step = size
	}
	out := make([]string, 0, len(runes)/step+1)
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
