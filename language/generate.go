package language

import "math/rand/v2"

// NewSource returns a PCG-backed random source for the given seed.
func NewSource(seed uint64) *rand.Rand {
	// PCG takes a sequence and a stream; derive the stream from the seed
	// with the golden ratio constant so nearby seeds stay independent.
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B9))
}

// Generate extends start one word at a time until the sequence reaches
// length words or a terminator (".", "!", "?") is drawn.
//
// For a context seen during training the next word is drawn from the
// add-one smoothed distribution over the whole vocabulary, so every word
// keeps a nonzero chance. An unseen context falls back to a uniform draw.
// If start already has length words or more it is returned unchanged.
func Generate(m *Model, start []string, length int, vocab Vocabulary, rng *rand.Rand) ([]string, error) {
	if vocab.Len() == 0 {
		return nil, ErrEmptyVocabulary
	}
	if rng == nil {
		return nil, ErrNilSource
	}

	seq := make([]string, len(start), max(length, len(start)))
	copy(seq, start)

	words := vocab.Words()
	width := m.Order - 1
	for range length - len(start) {
		context := seq[len(seq)-min(width, len(seq)):]

		var next string
		if counts, ok := m.lookup(context); ok {
			next = draw(words, counts, rng)
		} else {
			next = words[rng.IntN(len(words))]
		}

		seq = append(seq, next)
		if IsTerminator(next) {
			break
		}
	}
	return seq, nil
}

// draw samples from the add-one distribution. Word w has weight
// (counts[w]+1)/(sum(counts)+|V|); the common denominator is dropped and the
// draw is done on the integer numerators.
func draw(words []string, counts map[string]int, rng *rand.Rand) string {
	total := sum(counts) + len(words)
	r := rng.IntN(total)
	for _, w := range words {
		r -= counts[w] + 1
		if r < 0 {
			return w
		}
	}
	// Only reached when counts holds words outside vocab.
	return words[len(words)-1]
}
