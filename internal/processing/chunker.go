package processing

import (
	"regexp"
	"strings"
)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// ChunkText splits into paragraph chunks and limits size.
func ChunkText(text string) []string {
	paras := paragraphBreak.Split(text, -1)
	var out []string
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// further split very long paragraphs into ~1000-rune chunks with overlap
		out = append(out, splitLong(p, 1000, 200)...)
	}
	return out
}

// Budget joins chunks in order until adding the next one would exceed max
// runes. The first chunk is always kept, truncated if needed.
func Budget(chunks []string, max int) string {
	var b strings.Builder
	used := 0
	for i, c := range chunks {
		n := len([]rune(c))
		if i > 0 && used+n+2 > max {
			break
		}
		if i == 0 && n > max {
			return string([]rune(c)[:max])
		}
		if i > 0 {
			b.WriteString("\n\n")
			used += 2
		}
		b.WriteString(c)
		used += n
	}
	return b.String()
}

func splitLong(s string, max, overlap int) []string {
	r := []rune(s)
	if len(r) <= max {
		return []string{s}
	}
	var res []string
	for i := 0; i < len(r); i += (max - overlap) {
		end := i + max
		if end > len(r) {
			end = len(r)
		}
		res = append(res, strings.TrimSpace(string(r[i:end])))
		if end == len(r) {
			break
		}
	}
	return res
}
