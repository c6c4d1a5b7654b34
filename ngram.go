// Package ngram sweeps n-gram models of increasing order over a corpus,
// generating sentences and scoring perplexity for each order.
package ngram

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ieee0824/ngram-go/corpus"
	"github.com/ieee0824/ngram-go/language"
)

// DefaultStart is used when Generate is called without start words.
var DefaultStart = []string{"sheldon", "said"}

// Session holds a corpus and the sweep parameters.
type Session struct {
	Corpus      *corpus.Corpus
	MaxOrder    int
	Length      int
	Seed        uint64
	FinalWindow bool
	logger      *zap.Logger
}

// Result is the output of one order's generation.
type Result struct {
	Order  int      `json:"order"`
	Tokens []string `json:"tokens"`
	Text   string   `json:"text"`
}

// Score is one order's perplexity.
type Score struct {
	Order      int     `json:"order"`
	Perplexity float64 `json:"perplexity"`
}

// Stats summarizes a model.
type Stats struct {
	Order      int `json:"order"`
	Contexts   int `json:"contexts"`
	Windows    int `json:"windows"`
	Vocabulary int `json:"vocabulary"`
}

// Option configures a Session.
type Option func(*Session)

// WithMaxOrder sets the highest n-gram order of a sweep.
func WithMaxOrder(n int) Option {
	return func(s *Session) {
		s.MaxOrder = n
	}
}

// WithLength sets the target sentence length in words, start words included.
func WithLength(n int) Option {
	return func(s *Session) {
		s.Length = n
	}
}

// WithSeed fixes the random seed. Order n draws from a source seeded
// seed+n, so output does not depend on scheduling. A zero seed picks a
// fresh one per Generate call.
func WithSeed(seed uint64) Option {
	return func(s *Session) {
		s.Seed = seed
	}
}

// WithFinalWindow also counts the window ending on the last corpus token.
func WithFinalWindow(enabled bool) Option {
	return func(s *Session) {
		s.FinalWindow = enabled
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a Session over c.
func NewSession(c *corpus.Corpus, opts ...Option) (*Session, error) {
	s := &Session{
		Corpus:   c,
		MaxOrder: 5,
		Length:   12,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if c == nil || len(c.Tokens) == 0 {
		return nil, fmt.Errorf("new session: %w", language.ErrEmptyVocabulary)
	}
	if s.MaxOrder < 2 {
		return nil, fmt.Errorf("new session: max order %d: %w", s.MaxOrder, language.ErrInvalidOrder)
	}
	return s, nil
}

// Model builds a fresh model of order n from the session corpus.
func (s *Session) Model(n int) (*language.Model, error) {
	var opts []language.BuildOption
	if s.FinalWindow {
		opts = append(opts, language.WithFinalWindow())
	}
	b, err := language.NewBuilder(n, opts...)
	if err != nil {
		return nil, err
	}
	return b.Build(s.Corpus.Tokens), nil
}

func (s *Session) orders() []int {
	orders := make([]int, 0, s.MaxOrder-1)
	for n := 2; n <= s.MaxOrder; n++ {
		orders = append(orders, n)
	}
	return orders
}

// Generate produces one sentence per order 2..MaxOrder, each continuing start.
func (s *Session) Generate(ctx context.Context, start []string) ([]Result, error) {
	if len(start) == 0 {
		start = DefaultStart
	}
	seed := s.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	log := s.logger.With(zap.String("run", uuid.NewString()))
	log.Debug("generate", zap.Strings("start", start), zap.Int("length", s.Length), zap.Uint64("seed", seed))

	orders := s.orders()
	results := make([]Result, len(orders))
	g, ctx := errgroup.WithContext(ctx)
	for i, n := range orders {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			begin := time.Now()
			m, err := s.Model(n)
			if err != nil {
				return err
			}
			tokens, err := language.Generate(m, start, s.Length, s.Corpus.Vocab, language.NewSource(seed+uint64(n)))
			if err != nil {
				return fmt.Errorf("generate %d-gram: %w", n, err)
			}
			results[i] = Result{Order: n, Tokens: tokens, Text: language.Join(tokens)}
			log.Debug("generated", zap.Int("order", n), zap.Int("words", len(tokens)), zap.Duration("elapsed", time.Since(begin)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Perplexity scores each order's model against the training corpus itself.
func (s *Session) Perplexity(ctx context.Context) ([]Score, error) {
	return s.Evaluate(ctx, s.Corpus.Tokens)
}

// Evaluate scores each order's model against ref.
func (s *Session) Evaluate(ctx context.Context, ref []string) ([]Score, error) {
	log := s.logger.With(zap.String("run", uuid.NewString()))

	orders := s.orders()
	scores := make([]Score, len(orders))
	g, ctx := errgroup.WithContext(ctx)
	for i, n := range orders {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := s.Model(n)
			if err != nil {
				return err
			}
			pp, err := language.Perplexity(m, ref, s.Corpus.Vocab)
			if err != nil {
				return fmt.Errorf("perplexity %d-gram: %w", n, err)
			}
			scores[i] = Score{Order: n, Perplexity: pp}
			log.Debug("scored", zap.Int("order", n), zap.Float64("perplexity", pp), zap.Int("reference", len(ref)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Stats summarizes the model of order n.
func (s *Session) Stats(n int) (Stats, error) {
	m, err := s.Model(n)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Order:      n,
		Contexts:   m.Len(),
		Windows:    m.Windows(),
		Vocabulary: s.Corpus.Vocab.Len(),
	}, nil
}
