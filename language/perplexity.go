package language

import "math"

// LogProb returns the add-one smoothed natural log probability of word
// following context: ln((count(context, word)+1) / (count(context)+|V|)).
func LogProb(m *Model, context []string, word string, vocab Vocabulary) float64 {
	counts, _ := m.lookup(context)
	total := sum(counts) + vocab.Len()
	return math.Log(float64(counts[word]+1) / float64(total))
}

// Perplexity scores ref against the model: the exponential of the mean
// negative log probability over every position that has a full context.
// A reference shorter than the model order has no such position and
// scores +Inf.
func Perplexity(m *Model, ref []string, vocab Vocabulary) (float64, error) {
	if vocab.Len() == 0 {
		return 0, ErrEmptyVocabulary
	}

	var negLogSum float64
	samples := 0
	for i := m.Order - 1; i < len(ref); i++ {
		negLogSum -= LogProb(m, ref[i-m.Order+1:i], ref[i], vocab)
		samples++
	}

	if samples == 0 {
		return math.Inf(1), nil
	}
	return math.Exp(negLogSum / float64(samples)), nil
}
