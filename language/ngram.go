package language

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

var (
	// ErrEmptyVocabulary is returned when probability mass would be spread over no words.
	ErrEmptyVocabulary = errors.New("language: empty vocabulary")
	// ErrInvalidOrder is returned for n-gram orders below 2.
	ErrInvalidOrder = errors.New("language: n-gram order must be at least 2")
	// ErrNilSource is returned when Generate is called without a random source.
	ErrNilSource = errors.New("language: nil random source")
)

// Model is an n-gram frequency table: context -> next word -> count.
// A Model is read-only once built.
type Model struct {
	Order int // context width is Order-1

	table map[string]*entry
}

type entry struct {
	context []string
	counts  map[string]int
}

func newModel(order int) *Model {
	return &Model{
		Order: order,
		table: make(map[string]*entry),
	}
}

// contextKey length-prefixes every token, so two contexts share a key only
// if they are equal token by token, whatever the tokens contain.
func contextKey(context []string) string {
	var sb strings.Builder
	for _, tok := range context {
		sb.WriteString(strconv.Itoa(len(tok)))
		sb.WriteByte(':')
		sb.WriteString(tok)
	}
	return sb.String()
}

func (m *Model) add(context []string, next string) {
	key := contextKey(context)
	e, ok := m.table[key]
	if !ok {
		e = &entry{
			context: slices.Clone(context),
			counts:  make(map[string]int),
		}
		m.table[key] = e
	}
	e.counts[next]++
}

// lookup returns the internal count map; callers must not modify it.
func (m *Model) lookup(context []string) (map[string]int, bool) {
	e, ok := m.table[contextKey(context)]
	if !ok {
		return nil, false
	}
	return e.counts, true
}

// Counts returns a copy of the next-word counts observed after context.
func (m *Model) Counts(context []string) (map[string]int, bool) {
	counts, ok := m.lookup(context)
	if !ok {
		return nil, false
	}
	return maps.Clone(counts), true
}

// Total returns the number of windows observed with the given context.
func (m *Model) Total(context []string) int {
	counts, _ := m.lookup(context)
	return sum(counts)
}

// Len returns the number of distinct contexts.
func (m *Model) Len() int {
	return len(m.table)
}

// Windows returns the sum of all counts in the table.
func (m *Model) Windows() int {
	n := 0
	for _, e := range m.table {
		n += sum(e.counts)
	}
	return n
}

// Contexts returns every context in lexicographic token order.
func (m *Model) Contexts() [][]string {
	out := make([][]string, 0, len(m.table))
	for _, e := range m.table {
		out = append(out, slices.Clone(e.context))
	}
	slices.SortFunc(out, slices.Compare[[]string, string])
	return out
}

// Each calls fn for every (context, next, count) triple. Iteration order is unspecified.
func (m *Model) Each(fn func(context []string, next string, count int)) {
	for _, e := range m.table {
		for next, c := range e.counts {
			fn(slices.Clone(e.context), next, c)
		}
	}
}

func sum(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// Vocabulary is the set of distinct tokens of a training sequence.
type Vocabulary map[string]struct{}

// NewVocabulary collects the distinct tokens of tokens.
func NewVocabulary(tokens []string) Vocabulary {
	v := make(Vocabulary, len(tokens)/2)
	for _, t := range tokens {
		v[t] = struct{}{}
	}
	return v
}

// Len returns the vocabulary size.
func (v Vocabulary) Len() int {
	return len(v)
}

// Contains reports whether word is in the vocabulary.
func (v Vocabulary) Contains(word string) bool {
	_, ok := v[word]
	return ok
}

// Words returns the vocabulary as a sorted slice.
func (v Vocabulary) Words() []string {
	words := maps.Keys(v)
	slices.Sort(words)
	return words
}
