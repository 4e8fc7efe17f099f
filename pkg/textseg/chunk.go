package textseg

// Chunk is a contiguous slice of the source text sized to fit one parse
// request. Start is the chunk's offset in the whole text, in code points, so
// positions reported for the chunk can be translated back to whole-text
// coordinates.
type Chunk struct {
	Text  string
	Start int
}

// Plan splits text into chunks of at most maxChars code points, cutting only
// at terminator-run boundaries. A single sentence longer than maxChars is
// emitted as an oversized chunk of its own; the remote API may still reject
// it, but there is no earlier boundary to fall back on. Text after the last
// terminator run is hard-split into maxChars pieces if needed.
// Concatenating the chunk texts in order reproduces text exactly.
func (s *Segmenter) Plan(text string, maxChars int) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= maxChars {
		return []Chunk{{Text: text, Start: 0}}
	}

	var chunks []Chunk
	chunkStart := 0
	lastEnd := 0 // end of the previous terminator run

	i := 0
	for i < len(runes) {
		if !s.terminators[runes[i]] {
			i++
			continue
		}
		for i < len(runes) && s.terminators[runes[i]] {
			i++
		}
		end := i
		if end-chunkStart > maxChars {
			if lastEnd > chunkStart {
				chunks = append(chunks, Chunk{Text: string(runes[chunkStart:lastEnd]), Start: chunkStart})
				chunkStart = lastEnd
			} else {
				// Single sentence over the limit with no boundary before it.
				chunks = append(chunks, Chunk{Text: string(runes[chunkStart:end]), Start: chunkStart})
				chunkStart = end
			}
		}
		lastEnd = end
	}

	// Whatever is left runs to the end of the text. It may exceed maxChars
	// when the tail has no terminators, in which case it is hard-split.
	for chunkStart < len(runes) {
		end := chunkStart + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{Text: string(runes[chunkStart:end]), Start: chunkStart})
		chunkStart = end
	}
	return chunks
}
