package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/claimsift/claimsift/internal/model"
)

func TestChunker_SingleChunk(t *testing.T) {
	c := New(model.ChunkerConfig{Size: 8000, Overlap: 500})
	doc := model.Document{ID: "d1", Text: "We reduced ED visits by 12% in 2022."}

	res := c.Split(doc)
	if res.Warning != nil {
		t.Fatalf("unexpected warning: %v", res.Warning)
	}
	if len(res.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(res.Chunks))
	}
	ch := res.Chunks[0]
	if ch.Start != 0 || ch.End != len(doc.Text) {
		t.Errorf("expected span [0,%d), got [%d,%d)", len(doc.Text), ch.Start, ch.End)
	}
	if ch.Text != doc.Text {
		t.Errorf("chunk text does not match document text")
	}
}

func TestChunker_OverlapAndOffsets(t *testing.T) {
	c := New(model.ChunkerConfig{Size: 100, Overlap: 20})
	doc := model.Document{ID: "d1", Text: strings.Repeat("abcdefghij", 35)} // 350 bytes

	res := c.Split(doc)
	if len(res.Chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(res.Chunks))
	}

	for i, ch := range res.Chunks {
		if ch.Seq != i {
			t.Errorf("chunk %d: expected seq %d, got %d", i, i, ch.Seq)
		}
		// Offsets must be exact provenance into the document.
		if doc.Text[ch.Start:ch.End] != ch.Text {
			t.Errorf("chunk %d: text does not match offsets [%d,%d)", i, ch.Start, ch.End)
		}
		if ch.End-ch.Start > 100 {
			t.Errorf("chunk %d: exceeds size bound: %d", i, ch.End-ch.Start)
		}
		if i > 0 {
			prev := res.Chunks[i-1]
			if ch.Start != prev.End-20 {
				t.Errorf("chunk %d: expected overlap 20, start %d after prev end %d", i, ch.Start, prev.End)
			}
		}
	}

	if !Coverage(len(doc.Text), res.Chunks, res.Discarded) {
		t.Error("chunks do not cover the document")
	}
}

func TestChunker_Boilerplate(t *testing.T) {
	header := "Ohio Department of Medicaid - Managed Care RFP"
	body1 := "We achieved a 15% reduction in avoidable ED visits."
	body2 := "Our HEDIS scores improved across all regions last year."
	body3 := "The program expanded maternal health screenings statewide."
	text := strings.Join([]string{header, body1, header, body2, header, body3}, "\n")

	c := New(model.ChunkerConfig{Size: 8000, Overlap: 0, StripBoilerplate: true, BoilerplateRepeat: 3})
	doc := model.Document{ID: "d1", Text: text}
	res := c.Split(doc)

	if len(res.Discarded) != 3 {
		t.Fatalf("expected 3 discarded header spans, got %d", len(res.Discarded))
	}
	for _, d := range res.Discarded {
		if d.Reason != "boilerplate" {
			t.Errorf("expected boilerplate reason, got %q", d.Reason)
		}
		if text[d.Start:d.End] != header {
			t.Errorf("discarded span [%d,%d) is not the header", d.Start, d.End)
		}
	}

	for _, ch := range res.Chunks {
		if strings.Contains(ch.Text, header) {
			t.Errorf("chunk still contains boilerplate header")
		}
	}

	// Discarding must never lose text silently.
	if !Coverage(len(text), res.Chunks, res.Discarded) {
		t.Error("chunk plus discarded spans do not cover the document")
	}
}

func TestChunker_RuneBoundaries(t *testing.T) {
	// Two-byte runes with an odd chunk size force every raw cut point into
	// the middle of a rune; the boundary must back off instead of splitting.
	c := New(model.ChunkerConfig{Size: 11, Overlap: 3})
	doc := model.Document{ID: "d1", Text: strings.Repeat("é", 40)} // 80 bytes

	res := c.Split(doc)
	if res.Warning != nil {
		t.Fatalf("valid text should not warn: %v", res.Warning)
	}
	if len(res.Chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(res.Chunks))
	}

	for _, ch := range res.Chunks {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d text is not valid UTF-8", ch.Seq)
		}
		if doc.Text[ch.Start:ch.End] != ch.Text {
			t.Errorf("chunk %d: text does not match offsets [%d,%d)", ch.Seq, ch.Start, ch.End)
		}
	}

	if !Coverage(len(doc.Text), res.Chunks, res.Discarded) {
		t.Error("rune-boundary adjustment broke coverage")
	}
}

func TestChunker_InvalidUTF8(t *testing.T) {
	valid := "Readmission rates decreased by 8% statewide."
	text := valid + "\xff\xfe trailing garbage"

	c := New(model.ChunkerConfig{Size: 8000, Overlap: 0})
	doc := model.Document{ID: "d1", Text: text}
	res := c.Split(doc)

	if res.Warning == nil {
		t.Fatal("expected a partial extraction warning")
	}
	if res.Warning.Offset != len(valid) {
		t.Errorf("expected warning offset %d, got %d", len(valid), res.Warning.Offset)
	}

	if len(res.Chunks) != 1 || res.Chunks[0].Text != valid {
		t.Fatalf("expected one chunk holding the valid prefix")
	}

	foundTail := false
	for _, d := range res.Discarded {
		if d.Reason == "invalid_utf8" && d.Start == len(valid) && d.End == len(text) {
			foundTail = true
		}
	}
	if !foundTail {
		t.Error("expected the undecodable tail recorded as a discarded span")
	}

	if !Coverage(len(text), res.Chunks, res.Discarded) {
		t.Error("coverage broken for document with invalid suffix")
	}
}

func TestChunker_EmptyDocument(t *testing.T) {
	c := New(model.ChunkerConfig{Size: 8000, Overlap: 500})
	res := c.Split(model.Document{ID: "d1", Text: ""})

	if len(res.Chunks) != 0 {
		t.Errorf("expected no chunks for empty document, got %d", len(res.Chunks))
	}
	if res.Warning != nil {
		t.Errorf("empty document should not warn: %v", res.Warning)
	}
	if !Coverage(0, nil, nil) {
		t.Error("empty document should be trivially covered")
	}
}

func TestCoverage_DetectsGap(t *testing.T) {
	chunks := []model.Chunk{
		{DocID: "d1", Seq: 0, Start: 0, End: 10},
		{DocID: "d1", Seq: 1, Start: 20, End: 30},
	}
	if Coverage(30, chunks, nil) {
		t.Error("expected gap [10,20) to fail coverage")
	}
}
