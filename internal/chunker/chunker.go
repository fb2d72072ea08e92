// Package chunker splits document text into addressable, overlapping segments
// with exact offset provenance into the source document.
package chunker

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/claimsift/claimsift/internal/model"
)

// minBoilerplateLen is the shortest line considered for boilerplate
// detection; shorter repeated lines (page numbers etc.) are left in place
// because discarding them fragments sentences.
const minBoilerplateLen = 20

// Chunker produces chunks of bounded size from document text.
type Chunker struct {
	size              int
	overlap           int
	stripBoilerplate  bool
	boilerplateRepeat int
}

// Result is the complete segmentation of one document. Chunk spans plus
// discarded spans cover the document text; nothing vanishes silently.
type Result struct {
	Chunks    []model.Chunk
	Discarded []model.DiscardedSpan
	Warning   *model.PartialExtractionWarning // non-nil when decoding stopped early
}

// New creates a Chunker from configuration.
func New(cfg model.ChunkerConfig) *Chunker {
	size := cfg.Size
	if size <= 0 {
		size = 8000
	}
	overlap := cfg.Overlap
	if overlap < 0 || overlap >= size {
		overlap = size / 16
	}
	repeat := cfg.BoilerplateRepeat
	if repeat < 2 {
		repeat = 3
	}
	return &Chunker{
		size:              size,
		overlap:           overlap,
		stripBoilerplate:  cfg.StripBoilerplate,
		boilerplateRepeat: repeat,
	}
}

// Split segments the document. Encoding errors yield a partial chunk set plus
// an explicit warning; they are never fatal.
func (c *Chunker) Split(doc model.Document) *Result {
	res := &Result{}
	text := doc.Text
	limit := len(text)

	// Stop at the first invalid byte. The undecodable tail is recorded as a
	// discarded span so the coverage invariant still holds.
	if !utf8.ValidString(text) {
		limit = validPrefixLen(text)
		res.Warning = &model.PartialExtractionWarning{
			DocID:  doc.ID,
			Offset: limit,
			Reason: "invalid UTF-8 sequence",
		}
		res.Discarded = append(res.Discarded, model.DiscardedSpan{
			DocID: doc.ID, Start: limit, End: len(text), Reason: "invalid_utf8",
		})
	}

	var discarded []model.DiscardedSpan
	if c.stripBoilerplate {
		discarded = c.boilerplateSpans(doc.ID, text[:limit])
		res.Discarded = append(res.Discarded, discarded...)
	}

	seq := 0
	for _, seg := range keptSegments(limit, discarded) {
		for start := seg.start; start < seg.end; {
			end := start + c.size
			if end >= seg.end {
				end = seg.end
			} else {
				// Never cut a multi-byte rune across a chunk edge; the
				// chunk text goes to external APIs that require valid UTF-8.
				for end > start && !utf8.RuneStart(text[end]) {
					end--
				}
				if end == start {
					end = start + c.size
				}
			}
			res.Chunks = append(res.Chunks, model.Chunk{
				DocID: doc.ID,
				Seq:   seq,
				Start: start,
				End:   end,
				Text:  text[start:end],
			})
			seq++
			if end == seg.end {
				break
			}
			next := end - c.overlap
			for next > start && !utf8.RuneStart(text[next]) {
				next--
			}
			if next <= start {
				next = end
			}
			start = next
		}
	}

	return res
}

type segment struct{ start, end int }

// keptSegments returns the gaps between discarded spans, in order.
func keptSegments(limit int, discarded []model.DiscardedSpan) []segment {
	if len(discarded) == 0 {
		if limit == 0 {
			return nil
		}
		return []segment{{0, limit}}
	}

	sorted := make([]model.DiscardedSpan, len(discarded))
	copy(sorted, discarded)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var segs []segment
	pos := 0
	for _, d := range sorted {
		if d.Start > pos {
			segs = append(segs, segment{pos, d.Start})
		}
		if d.End > pos {
			pos = d.End
		}
	}
	if pos < limit {
		segs = append(segs, segment{pos, limit})
	}
	return segs
}

// boilerplateSpans finds lines repeated across the document (running headers
// and footers from page extraction) and marks every occurrence discarded.
func (c *Chunker) boilerplateSpans(docID, text string) []model.DiscardedSpan {
	type lineSpan struct{ start, end int }
	occurrences := make(map[string][]lineSpan)

	pos := 0
	for pos < len(text) {
		nl := strings.IndexByte(text[pos:], '\n')
		end := len(text)
		if nl >= 0 {
			end = pos + nl
		}
		line := strings.TrimSpace(text[pos:end])
		if len(line) >= minBoilerplateLen {
			occurrences[line] = append(occurrences[line], lineSpan{pos, end})
		}
		pos = end + 1
	}

	var spans []model.DiscardedSpan
	for _, occ := range occurrences {
		if len(occ) < c.boilerplateRepeat {
			continue
		}
		for _, ls := range occ {
			spans = append(spans, model.DiscardedSpan{
				DocID: docID, Start: ls.start, End: ls.end, Reason: "boilerplate",
			})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// validPrefixLen returns the length of the longest valid UTF-8 prefix.
func validPrefixLen(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(s)
}

// Coverage reports whether chunk spans plus discarded spans cover [0, n).
// Exposed for the coverage invariant tests and the pipeline's self-check.
func Coverage(n int, chunks []model.Chunk, discarded []model.DiscardedSpan) bool {
	if n == 0 {
		return true
	}
	type span struct{ start, end int }
	spans := make([]span, 0, len(chunks)+len(discarded))
	for _, ch := range chunks {
		spans = append(spans, span{ch.Start, ch.End})
	}
	for _, d := range discarded {
		spans = append(spans, span{d.Start, d.End})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	covered := 0
	for _, s := range spans {
		if s.start > covered {
			return false
		}
		if s.end > covered {
			covered = s.end
		}
	}
	return covered >= n
}
