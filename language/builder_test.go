package language

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
)

var catsDogs = []string{"i", "like", "cats", ".", "i", "like", "dogs", "."}

func TestBuildModelBigram(t *testing.T) {
	m, err := BuildModel(catsDogs, 2)
	if err != nil {
		t.Fatalf("BuildModel error: %v", err)
	}
	if m.Order != 2 {
		t.Errorf("Order = %d, want 2", m.Order)
	}

	want := map[string]map[string]int{
		"i":    {"like": 2},
		"like": {"cats": 1, "dogs": 1},
		"cats": {".": 1},
		".":    {"i": 1},
	}
	if m.Len() != len(want) {
		t.Errorf("Len = %d, want %d", m.Len(), len(want))
	}
	for ctx, wantCounts := range want {
		got, ok := m.Counts([]string{ctx})
		if !ok {
			t.Errorf("context %q missing", ctx)
			continue
		}
		if !reflect.DeepEqual(got, wantCounts) {
			t.Errorf("Counts(%q) = %v, want %v", ctx, got, wantCounts)
		}
	}

	// The window ending on the final token is never counted.
	if _, ok := m.Counts([]string{"dogs"}); ok {
		t.Error("context \"dogs\" should not be counted with the default range")
	}
}

func TestBuildModelFinalWindow(t *testing.T) {
	b, err := NewBuilder(2, WithFinalWindow())
	if err != nil {
		t.Fatalf("NewBuilder error: %v", err)
	}
	m := b.Build(catsDogs)

	got, ok := m.Counts([]string{"dogs"})
	if !ok {
		t.Fatal("context \"dogs\" missing with final window enabled")
	}
	if got["."] != 1 {
		t.Errorf("Counts(dogs)[.] = %d, want 1", got["."])
	}
	if m.Windows() != len(catsDogs)-1 {
		t.Errorf("Windows = %d, want %d", m.Windows(), len(catsDogs)-1)
	}
}

func TestBuildModelTrigram(t *testing.T) {
	m, err := BuildModel(catsDogs, 3)
	if err != nil {
		t.Fatalf("BuildModel error: %v", err)
	}
	got, ok := m.Counts([]string{"i", "like"})
	if !ok {
		t.Fatal("context \"i like\" missing")
	}
	want := map[string]int{"cats": 1, "dogs": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Counts(i like) = %v, want %v", got, want)
	}
	if m.Total([]string{"i", "like"}) != 2 {
		t.Errorf("Total(i like) = %d, want 2", m.Total([]string{"i", "like"}))
	}
	// Order matters: "like i" never occurs.
	if _, ok := m.Counts([]string{"like", "i"}); ok {
		t.Error("context \"like i\" should not exist")
	}
}

func TestBuildModelInvalidOrder(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		if _, err := BuildModel(catsDogs, n); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("BuildModel(n=%d) error = %v, want ErrInvalidOrder", n, err)
		}
	}
}

func TestBuildModelShortCorpus(t *testing.T) {
	tests := []struct {
		tokens []string
		n      int
	}{
		{nil, 2},
		{[]string{"a"}, 2},
		{[]string{"a", "b"}, 2},
		{[]string{"a", "b", "c"}, 5},
	}
	for _, tt := range tests {
		m, err := BuildModel(tt.tokens, tt.n)
		if err != nil {
			t.Fatalf("BuildModel(%v, %d) error: %v", tt.tokens, tt.n, err)
		}
		if m.Len() != 0 {
			t.Errorf("BuildModel(%v, %d).Len() = %d, want 0", tt.tokens, tt.n, m.Len())
		}
	}
}

func TestWindowConservation(t *testing.T) {
	rng := NewSource(7)
	words := []string{"a", "b", "c", "d", "."}
	for trial := 0; trial < 20; trial++ {
		tokens := make([]string, rng.IntN(40))
		for i := range tokens {
			tokens[i] = words[rng.IntN(len(words))]
		}
		for n := 2; n <= 7; n++ {
			t.Run(fmt.Sprintf("trial%d/n%d", trial, n), func(t *testing.T) {
				m, err := BuildModel(tokens, n)
				if err != nil {
					t.Fatal(err)
				}
				want := max(0, len(tokens)-n)
				if got := m.Windows(); got != want {
					t.Errorf("Windows = %d, want %d (L=%d)", got, want, len(tokens))
				}

				full, _ := NewBuilder(n, WithFinalWindow())
				want = max(0, len(tokens)-n+1)
				if got := full.Build(tokens).Windows(); got != want {
					t.Errorf("full range Windows = %d, want %d (L=%d)", got, want, len(tokens))
				}
			})
		}
	}
}

func TestVocabularyCoverage(t *testing.T) {
	tokens := Preprocess("The cat sat. The dog sat! Did the cat see the dog? Yes, it did.")
	vocab := NewVocabulary(tokens)
	for n := 2; n <= 4; n++ {
		m, err := BuildModel(tokens, n)
		if err != nil {
			t.Fatal(err)
		}
		m.Each(func(context []string, next string, count int) {
			if !vocab.Contains(next) {
				t.Errorf("n=%d: next word %q not in vocabulary", n, next)
			}
			for _, w := range context {
				if !vocab.Contains(w) {
					t.Errorf("n=%d: context word %q not in vocabulary", n, w)
				}
			}
			if count <= 0 {
				t.Errorf("n=%d: count for %v -> %q = %d", n, context, next, count)
			}
		})
	}
}

func TestContexts(t *testing.T) {
	m, err := BuildModel(catsDogs, 3)
	if err != nil {
		t.Fatal(err)
	}
	got := m.Contexts()
	want := [][]string{
		{".", "i"},
		{"cats", "."},
		{"i", "like"},
		{"like", "cats"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Contexts = %v, want %v", got, want)
	}
}

func TestCountsIsCopy(t *testing.T) {
	m, err := BuildModel(catsDogs, 2)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := m.Counts([]string{"i"})
	c["like"] = 100
	if again, _ := m.Counts([]string{"i"}); again["like"] != 2 {
		t.Errorf("model mutated through Counts: like = %d, want 2", again["like"])
	}
}

func TestVocabularyWords(t *testing.T) {
	v := NewVocabulary(catsDogs)
	if v.Len() != 5 {
		t.Errorf("Len = %d, want 5", v.Len())
	}
	want := []string{".", "cats", "dogs", "i", "like"}
	if got := v.Words(); !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %v, want %v", got, want)
	}
}

func TestContextsCompareTokenByToken(t *testing.T) {
	m, err := BuildModel(catsDogs, 3)
	if err != nil {
		t.Fatal(err)
	}
	vocab := NewVocabulary(catsDogs)

	// One token holding a space is not the two-token context ("i", "like").
	if c, ok := m.Counts([]string{"i like"}); ok {
		t.Errorf("Counts([\"i like\"]) = %v, want no match", c)
	}
	if got := m.Total([]string{"i like"}); got != 0 {
		t.Errorf("Total([\"i like\"]) = %d, want 0", got)
	}
	want := math.Log(1.0 / 5)
	if got := LogProb(m, []string{"i like"}, "cats", vocab); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb([\"i like\"], cats) = %f, want %f", got, want)
	}
	if _, ok := m.Counts([]string{"i", "like"}); !ok {
		t.Error("context (i, like) missing")
	}

	// Token boundaries are part of the key.
	if contextKey([]string{"ab", "c"}) == contextKey([]string{"a", "bc"}) {
		t.Error("contextKey collides across token boundaries")
	}
}
