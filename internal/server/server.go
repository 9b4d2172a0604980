// Package server exposes the HTTP analysis endpoint: a long-running
// net/http server wrapping the tokenizer, generalized from one-shot CLI
// usage into request handlers.
package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-shiori/go-readability"

	"github.com/himokagi/himokagi"
)

const maxBodySize = 10 * 1024 * 1024 // 10 MB fetch/body cap

// Server wraps an Analyzer and an optional analysis log store behind
// the /analyze, /analyze-url, and /healthz handlers.
type Server struct {
	analyzer *himokagi.Analyzer
	store    *Store // nil when no -log-db was given
	logger   *log.Logger
	warm     bool
}

// New builds a Server. logger may be nil, meaning silent (matching the
// teacher's Ingester.Logger convention: nil logger means no logging).
func New(analyzer *himokagi.Analyzer, store *Store, logger *log.Logger) *Server {
	return &Server{analyzer: analyzer, store: store, logger: logger}
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/analyze-url", s.handleAnalyzeURL)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// handleAnalyze implements POST /analyze: body is raw UTF-8 text,
// response is a JSON array of himokagi.Token.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	tokens, err := s.analyzer.Tokenize(string(body))
	if err != nil {
		s.logf("analyze: tokenize failed: %v", err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tokens); err != nil {
		s.logf("analyze: encode response failed: %v", err)
	}
}

type analyzeURLRequest struct {
	URL string `json:"url"`
}

// handleAnalyzeURL implements POST /analyze-url: fetches a URL,
// extracts the article via go-readability (sanitizing ruby
// annotations first), tokenizes the extracted text, optionally logs
// to sqlite, and returns the tokens.
func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req analyzeURLRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "expected {\"url\": \"...\"}", http.StatusBadRequest)
		return
	}

	article, body, err := fetchArticle(r.Context(), req.URL)
	if err != nil {
		s.logf("analyze-url: fetch %s failed: %v", req.URL, err)
		http.Error(w, fmt.Sprintf("fetch failed: %v", err), http.StatusBadGateway)
		return
	}

	tokens, err := s.analyzer.Tokenize(article.TextContent)
	if err != nil {
		s.logf("analyze-url: tokenize failed: %v", err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	if s.store != nil {
		published := publishedTime(body)
		if err := s.store.LogAnalysis(req.URL, article.Title, published, len(tokens)); err != nil {
			s.logf("analyze-url: log failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := struct {
		Title  string           `json:"title"`
		Tokens []himokagi.Token `json:"tokens"`
	}{Title: article.Title, Tokens: tokens}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logf("analyze-url: encode response failed: %v", err)
	}
}

// handleHealthz implements GET /healthz: 200 once the dictionary has
// completed WarmUp.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !s.warm {
		if err := s.analyzer.WarmUp(); err != nil {
			http.Error(w, "dictionary not ready", http.StatusServiceUnavailable)
			return
		}
		s.warm = true
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func fetchArticle(ctx context.Context, rawURL string) (readability.Article, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return readability.Article{}, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; himokagi/1.0)")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return readability.Article{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readability.Article{}, nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return readability.Article{}, nil, err
	}

	cleaned := SanitizeRuby(body)
	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(bytes.NewReader(cleaned), parsedURL)
	if err != nil {
		return readability.Article{}, nil, err
	}
	return article, body, nil
}

var metaPublishedRe = regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["'](?:article:published_time|date)["'][^>]+content=["']([^"']+)["']`)

// publishedTime scans raw HTML for an article:published_time or date
// meta tag and parses it with dateparse, since publication dates in
// the wild arrive in dozens of inconsistent formats.
func publishedTime(html []byte) sql.NullTime {
	m := metaPublishedRe.FindSubmatch(html)
	if m == nil {
		return sql.NullTime{}
	}
	t, err := dateparse.ParseAny(string(m[1]))
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
