package vocab

import (
	"github.com/japaniel/jpdbdeck/pkg/jpdb"
	"github.com/japaniel/jpdbdeck/pkg/textseg"
)

// Key identifies a vocabulary item: a word id plus the sense id that
// disambiguates among its meanings.
type Key struct {
	VID int
	SID int
}

// Entry is the first occurrence of a vocabulary item together with the
// sentence it appeared in. HasSentence is false when no sentence span covers
// the occurrence position; such entries are still counted as vocabulary but
// excluded from sentence setting.
type Entry struct {
	jpdb.Vocabulary
	Sentence    string
	HasSentence bool
}

// Result is the merged parse output for a whole document.
type Result struct {
	// Occurrences holds every occurrence in textual order, with positions
	// translated to whole-text coordinates.
	Occurrences []jpdb.Vocabulary

	entries map[Key]*Entry
	order   []Key
}

// Aggregate merges per-chunk parse results into whole-text occurrences.
// results[i] must be the parse output for chunks[i]; each occurrence's
// position is shifted by its chunk's start offset. For every distinct
// (vid, sid) the occurrence with the smallest position is kept and attributed
// to the sentence containing it.
func Aggregate(chunks []textseg.Chunk, results [][]jpdb.Vocabulary, sentences []textseg.Sentence) *Result {
	res := &Result{entries: make(map[Key]*Entry)}
	for i, chunk := range chunks {
		if i >= len(results) {
			break
		}
		for _, v := range results[i] {
			v.Position += chunk.Start
			res.Occurrences = append(res.Occurrences, v)

			key := Key{VID: v.VID, SID: v.SID}
			if existing, ok := res.entries[key]; ok {
				if v.Position >= existing.Position {
					continue
				}
			} else {
				res.order = append(res.order, key)
			}
			entry := &Entry{Vocabulary: v}
			if s, ok := textseg.SentenceAt(sentences, v.Position); ok {
				entry.Sentence = s.Text
				entry.HasSentence = true
			}
			res.entries[key] = entry
		}
	}
	return res
}

// Unique returns the deduplicated entries in first-seen order.
func (r *Result) Unique() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}

// Keys returns the deduplicated (vid, sid) pairs in first-seen order,
// shaped for the deck add-vocabulary call.
func (r *Result) Keys() [][2]int {
	out := make([][2]int, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, [2]int{k.VID, k.SID})
	}
	return out
}

// Targets returns the entries that should receive custom sentences: every
// entry when allWords is set, otherwise only words with no card state yet.
func (r *Result) Targets(allWords bool) []*Entry {
	var out []*Entry
	for _, k := range r.order {
		e := r.entries[k]
		if allWords || e.IsNew() {
			out = append(out, e)
		}
	}
	return out
}
