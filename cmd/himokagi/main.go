// Command himokagi tokenizes or analyzes a text against a binary
// dictionary, or serves the HTTP analysis endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/himokagi/himokagi"
	"github.com/himokagi/himokagi/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	dictFlag := flag.String("dict", "", "path to the binary dictionary artifact")
	jsonFlag := flag.Bool("json", false, "print JSON instead of tab-separated fields")
	kFlag := flag.Int("k", 0, "print up to N analyses instead of the single best path")
	serverFlag := flag.String("server", "", "listen address for the HTTP analysis endpoint, e.g. :8080")
	logDBFlag := flag.String("log-db", "", "optional path to a SQLite database logging analyzed documents (server mode only)")
	flag.Parse()

	if *dictFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: himokagi -dict path/to/dict.bin [-json] [-k N] [-server :8080] [text]")
		return 2
	}

	analyzer, err := himokagi.Open(*dictFlag)
	if err != nil {
		log.Printf("failed to open dictionary: %v", err)
		return 1
	}
	defer analyzer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *serverFlag != "" {
		return runServer(ctx, analyzer, *serverFlag, *logDBFlag)
	}

	text, err := readText(flag.Args())
	if err != nil {
		log.Printf("failed to read input: %v", err)
		return 1
	}

	if *kFlag > 0 {
		return printAnalyses(analyzer, text, *kFlag, *jsonFlag)
	}
	return printTokens(analyzer, text, *jsonFlag)
}

func readText(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printTokens(a *himokagi.Analyzer, text string, asJSON bool) int {
	tokens, err := a.Tokenize(text)
	if err != nil {
		log.Printf("tokenize failed: %v", err)
		return 1
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tokens); err != nil {
			log.Printf("encode failed: %v", err)
			return 1
		}
		return 0
	}
	for _, t := range tokens {
		fmt.Printf("%s\t%s\t%s\t%s\n", t.Surface, t.Reading, t.POS, t.BaseForm)
	}
	return 0
}

func printAnalyses(a *himokagi.Analyzer, text string, k int, asJSON bool) int {
	analyses, err := a.Analyze(text, k)
	if err != nil {
		log.Printf("analyze failed: %v", err)
		return 1
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analyses); err != nil {
			log.Printf("encode failed: %v", err)
			return 1
		}
		return 0
	}
	for i, a := range analyses {
		fmt.Printf("#%d score=%.1f\n", i+1, a.Score)
		for _, t := range a.Tokens {
			fmt.Printf("\t%s\t%s\t%s\t%s\n", t.Surface, t.Reading, t.POS, t.BaseForm)
		}
	}
	return 0
}

func runServer(ctx context.Context, analyzer *himokagi.Analyzer, addr, logDBPath string) int {
	var store *server.Store
	if logDBPath != "" {
		s, err := server.OpenStore(logDBPath)
		if err != nil {
			log.Printf("failed to open log db: %v", err)
			return 1
		}
		defer s.Close()
		store = s
	}

	srv := server.New(analyzer, store, log.Default())
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
			return 1
		}
		return 0
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
			return 1
		}
		return 0
	}
}
