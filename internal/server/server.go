package server

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ngram "github.com/ieee0824/ngram-go"
	"github.com/ieee0824/ngram-go/config"
	"github.com/ieee0824/ngram-go/corpus"
	"github.com/ieee0824/ngram-go/language"
)

// Server answers generation and scoring requests over a fixed corpus.
type Server struct {
	corpus *corpus.Corpus
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a Server. cfg supplies the defaults for fields a request omits.
func New(c *corpus.Corpus, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{corpus: c, cfg: cfg, logger: logger}
}

type GenerateRequest struct {
	Start    string  `json:"start"`
	MaxOrder int     `json:"max_order"`
	Length   int     `json:"length"`
	Seed     *uint64 `json:"seed"`
}

type GenerateResponse struct {
	Results []ngram.Result `json:"results"`
}

type PerplexityRequest struct {
	Text     string `json:"text"`
	MaxOrder int    `json:"max_order"`
}

// ScoreResponse carries one order's perplexity. JSON has no infinity, so a
// reference too short to score has a null perplexity and Infinite set.
type ScoreResponse struct {
	Order      int      `json:"order"`
	Perplexity *float64 `json:"perplexity"`
	Infinite   bool     `json:"infinite,omitempty"`
}

type PerplexityResponse struct {
	Scores []ScoreResponse `json:"scores"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())
	if len(s.cfg.Server.AllowOrigins) > 0 {
		cc := cors.DefaultConfig()
		if slices.Contains(s.cfg.Server.AllowOrigins, "*") {
			cc.AllowAllOrigins = true
		} else {
			cc.AllowOrigins = s.cfg.Server.AllowOrigins
		}
		r.Use(cors.New(cc))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "tokens": len(s.corpus.Tokens)})
	})
	r.POST("/api/generate", s.GenerateHandler)
	r.POST("/api/perplexity", s.PerplexityHandler)
	r.GET("/api/stats", s.StatsHandler)
	return r
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) session(maxOrder, length int, seed uint64) (*ngram.Session, error) {
	return ngram.NewSession(s.corpus,
		ngram.WithMaxOrder(maxOrder),
		ngram.WithLength(length),
		ngram.WithSeed(seed),
		ngram.WithFinalWindow(s.cfg.FinalWindow),
		ngram.WithLogger(s.logger),
	)
}

func (s *Server) GenerateHandler(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MaxOrder == 0 {
		req.MaxOrder = s.cfg.MaxOrder
	}
	if req.Length == 0 {
		req.Length = s.cfg.Length
	}
	if strings.TrimSpace(req.Start) == "" {
		req.Start = s.cfg.Start
	}
	seed := s.cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if err := errors.Join(config.CheckOrder(req.MaxOrder), config.CheckLength(req.Length)); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.session(req.MaxOrder, req.Length, seed)
	if err != nil {
		abortCore(c, err)
		return
	}
	results, err := sess.Generate(c.Request.Context(), corpus.SplitPhrase(req.Start))
	if err != nil {
		abortCore(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Results: results})
}

func (s *Server) PerplexityHandler(c *gin.Context) {
	var req PerplexityRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxOrder == 0 {
		req.MaxOrder = s.cfg.MaxOrder
	}
	if err := config.CheckOrder(req.MaxOrder); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.session(req.MaxOrder, s.cfg.Length, s.cfg.Seed)
	if err != nil {
		abortCore(c, err)
		return
	}

	var scores []ngram.Score
	if req.Text == "" {
		scores, err = sess.Perplexity(c.Request.Context())
	} else {
		scores, err = sess.Evaluate(c.Request.Context(), language.Preprocess(req.Text))
	}
	if err != nil {
		abortCore(c, err)
		return
	}

	resp := PerplexityResponse{Scores: make([]ScoreResponse, len(scores))}
	for i, sc := range scores {
		resp.Scores[i] = ScoreResponse{Order: sc.Order}
		if math.IsInf(sc.Perplexity, 1) {
			resp.Scores[i].Infinite = true
			continue
		}
		pp := sc.Perplexity
		resp.Scores[i].Perplexity = &pp
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) StatsHandler(c *gin.Context) {
	order := 2
	if v := c.Query("order"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "order: " + err.Error()})
			return
		}
		if err := config.CheckOrder(n); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		order = n
	}

	sess, err := s.session(order, s.cfg.Length, s.cfg.Seed)
	if err != nil {
		abortCore(c, err)
		return
	}
	st, err := sess.Stats(order)
	if err != nil {
		abortCore(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// abortCore maps errors from the session and language packages.
func abortCore(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, language.ErrEmptyVocabulary), errors.Is(err, language.ErrInvalidOrder):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		status = 499
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// Serve runs the API on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()), zap.Int("tokens", len(s.corpus.Tokens)))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
