// Package corpus loads raw text files and turns them into token sequences
// ready for n-gram training.
package corpus

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ieee0824/ngram-go/language"
)

// Corpus is a preprocessed training text.
type Corpus struct {
	Tokens  []string
	Vocab   language.Vocabulary
	Sources []string // file paths the text was read from, if any
}

// FromText preprocesses text into a Corpus.
func FromText(text string) *Corpus {
	tokens := language.Preprocess(text)
	return &Corpus{
		Tokens: tokens,
		Vocab:  language.NewVocabulary(tokens),
	}
}

// Load reads every file in order and preprocesses the concatenation.
func Load(paths ...string) (*Corpus, error) {
	text, err := ReadFiles(paths...)
	if err != nil {
		return nil, err
	}
	c := FromText(text)
	c.Sources = append([]string(nil), paths...)
	return c, nil
}

// ReadFiles concatenates the contents of the given files, each followed by
// a single space so words never merge across file boundaries.
func ReadFiles(paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no corpus files given")
	}
	var sb strings.Builder
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open corpus %s: %w", path, err)
		}
		text, err := Read(f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("read corpus %s: %w", path, err)
		}
		sb.WriteString(text)
		sb.WriteByte(' ')
	}
	return sb.String(), nil
}

// Read returns everything in r as a string.
func Read(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SplitPhrase lowercases a user supplied phrase and splits it on
// whitespace. Punctuation is kept as typed.
func SplitPhrase(phrase string) []string {
	return strings.Fields(strings.ToLower(phrase))
}
