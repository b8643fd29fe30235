package ingest

import "regexp"

// Court-reporter citation shapes. Narrow on purpose: false positives pollute
// passage metadata, missed citations only lose a hint.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+ U\.S\. \d+`),
	regexp.MustCompile(`\d+ F\.\d+ \d+`),
	regexp.MustCompile(`\d+ Cal\.\d+ \d+`),
}

// ExtractCitations returns the reporter citations found in text, in order of
// pattern then position, without deduplication.
func ExtractCitations(text string) []string {
	out := []string{}
	for _, pat := range citationPatterns {
		out = append(out, pat.FindAllString(text, -1)...)
	}
	return out
}
