// Package api exposes the purifier over HTTP.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"purifygate/pkg/control"
	"purifygate/pkg/metrics"
	"purifygate/pkg/model"
	"purifygate/pkg/purifier"
	"purifygate/pkg/wordlist"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type Options struct {
	Purifier *purifier.Purifier
	Sources  *control.WordSources
	Store    *wordlist.RedisStore // nil when Redis is disabled
	Mask     purifier.Mask        // used when a purify request names no mask
	Logger   *zap.Logger
}

type Server struct {
	purifier *purifier.Purifier
	sources  *control.WordSources
	store    *wordlist.RedisStore
	mask     purifier.Mask
	logger   *zap.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sources := opts.Sources
	if sources == nil {
		sources = control.NewWordSources(opts.Purifier)
	}
	return &Server{
		purifier: opts.Purifier,
		sources:  sources,
		store:    opts.Store,
		mask:     opts.Mask,
		logger:   logger.Named("api"),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.check)
		r.Post("/scan", s.scan)
		r.Post("/purify", s.purify)
		r.Get("/words", s.words)
		r.Post("/words", s.addWords)
		r.Delete("/words", s.removeWords)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	var req model.CheckRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, http.StatusOK, model.CheckResponse{Banned: s.purifier.Check(req.Text)})
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if !s.decode(w, r, &req) {
		return
	}
	spans := s.purifier.Scan(req.Text)
	if spans == nil {
		spans = []purifier.Span{}
	}
	s.respond(w, http.StatusOK, model.ScanResponse{Spans: spans})
}

func (s *Server) purify(w http.ResponseWriter, r *http.Request) {
	var req model.PurifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	mask, err := s.requestMask(req)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	spans := s.purifier.Scan(req.Text)
	s.respond(w, http.StatusOK, model.PurifyResponse{
		Text:    s.purifier.Apply(req.Text, spans, mask),
		Matches: len(spans),
	})
}

func (s *Server) words(w http.ResponseWriter, r *http.Request) {
	s.respondWords(w)
}

func (s *Server) addWords(w http.ResponseWriter, r *http.Request) {
	words, ok := s.decodeWords(w, r)
	if !ok {
		return
	}

	source := control.SourceAPI
	if s.store != nil {
		if err := s.store.Add(r.Context(), words...); err != nil {
			s.logger.Error("failed to persist words", zap.Error(err))
			s.fail(w, http.StatusBadGateway, errors.New("word store unavailable"))
			return
		}
		// The store's update signal reloads the set; apply locally right away.
		source = control.SourceRedis
	}
	s.sources.Add(source, words...)

	s.logger.Info("words added", zap.Int("words", len(words)), zap.String("source", source))
	s.respondWords(w)
}

// removeWords drops words added through the API or the Redis set. Words
// from the config or the word file stay until their source changes.
func (s *Server) removeWords(w http.ResponseWriter, r *http.Request) {
	words, ok := s.decodeWords(w, r)
	if !ok {
		return
	}

	source := control.SourceAPI
	if s.store != nil {
		if err := s.store.Remove(r.Context(), words...); err != nil {
			s.logger.Error("failed to remove words", zap.Error(err))
			s.fail(w, http.StatusBadGateway, errors.New("word store unavailable"))
			return
		}
		source = control.SourceRedis
	}
	removed := s.sources.Remove(source, words...)

	s.logger.Info("words removed", zap.Int("words", removed), zap.String("source", source))
	s.respondWords(w)
}

func (s *Server) decodeWords(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req model.WordsRequest
	if !s.decode(w, r, &req) {
		return nil, false
	}
	words := make([]string, 0, len(req.Words))
	for _, word := range req.Words {
		if word = strings.TrimSpace(word); word != "" {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		s.fail(w, http.StatusBadRequest, errors.New("no words given"))
		return nil, false
	}
	return words, true
}

func (s *Server) respondWords(w http.ResponseWriter) {
	s.respond(w, http.StatusOK, model.WordsResponse{
		Count:   s.purifier.Len(),
		Sources: s.sources.Sources(),
	})
}

func (s *Server) requestMask(req model.PurifyRequest) (purifier.Mask, error) {
	params := map[string]string{
		"mask":      req.Mask,
		"mask_char": req.MaskChar,
	}
	if req.MatchSize != nil {
		params["match_size"] = strconv.FormatBool(*req.MatchSize)
	}
	return control.MaskFromParams(params, s.mask)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(w, http.StatusBadRequest, errors.Wrap(err, "malformed request"))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, model.ErrorResponse{Error: err.Error()})
}

func (s *Server) respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}
