// Command contractor-flow runs the contractor scheduling conversation.
//
// The customer side of the conversation comes from stdin, or from a
// built-in script when MOCK_USER_RESPONSES is set. Sentiment analysis
// uses an LLM provider unless MOCK_SENTIMENT_ANALYSIS selects the
// rule-based classifier.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prizmhq/contractor-flow/config"
	"github.com/prizmhq/contractor-flow/graph"
	"github.com/prizmhq/contractor-flow/graph/emit"
	"github.com/prizmhq/contractor-flow/graph/model"
	"github.com/prizmhq/contractor-flow/graph/model/anthropic"
	"github.com/prizmhq/contractor-flow/graph/model/openai"
	"github.com/prizmhq/contractor-flow/graph/store"
	"github.com/prizmhq/contractor-flow/sentiment"
	"github.com/prizmhq/contractor-flow/trace"
	"github.com/prizmhq/contractor-flow/workflow"
)

// scriptedReplies drives the conversation when MOCK_USER_RESPONSES is
// set: one ambiguous answer, then an agreement.
var scriptedReplies = []string{
	"maybe",
	"I'll do it tomorrow",
}

func main() {
	if err := run(); err != nil {
		slog.Error("contractor-flow failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.LogJSON)
	ctx := context.Background()

	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}
	slog.Info("analyzer selected", "analyzer", analyzer.Name())

	st, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	metrics := graph.NewPrometheusMetrics(registry)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, registry)
	}

	runID := uuid.NewString()
	tracker := graph.NewCostTracker(runID, "USD")

	w, err := workflow.New(workflow.Config{
		Analyzer:             analyzer,
		Store:                st,
		Emitter:              emit.NewLogEmitter(os.Stderr, cfg.LogJSON),
		Metrics:              metrics,
		CostTracker:          tracker,
		MaxSentimentAttempts: cfg.MaxSentimentAttempts,
		NodeTimeout:          cfg.NodeTimeout,
	})
	if err != nil {
		return err
	}

	input := newInputSource(cfg.MockUserResponses)
	conv := w.NewConversation(runID, defaultCustomer(), workflow.Task{}, workflow.Vendor{})

	final, err := runConversation(ctx, conv, input)
	if err != nil {
		return err
	}

	printResult(final, tracker)

	if cfg.TraceAPIURL != "" {
		submitTrace(ctx, cfg, runID, final)
	}
	return nil
}

func setupLogging(jsonMode bool) {
	var handler slog.Handler
	if jsonMode {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	slog.SetDefault(slog.New(handler))
}

func buildAnalyzer(cfg *config.Config) (sentiment.Analyzer, error) {
	if cfg.MockSentiment {
		return sentiment.NewRuleAnalyzer(), nil
	}

	var (
		chat model.ChatModel
		err  error
	)
	switch cfg.LLMProvider {
	case "anthropic":
		chat, err = anthropic.NewChatModel(cfg.AnthropicAPIKey, cfg.LLMModel)
	default:
		chat, err = openai.NewChatModel(cfg.OpenAIAPIKey, cfg.LLMModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build %s model: %w", cfg.LLMProvider, err)
	}
	return sentiment.NewLLMAnalyzer(chat), nil
}

func buildStore(cfg *config.Config) (store.Store[workflow.State], func(), error) {
	switch cfg.StoreDriver {
	case "sqlite":
		s, err := store.NewSQLiteStore[workflow.State](cfg.StoreDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case "mysql":
		s, err := store.NewMySQLStore[workflow.State](cfg.StoreDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open mysql store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return store.NewMemStore[workflow.State](), func() {}, nil
	}
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	slog.Info("serving metrics", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server stopped", "error", err)
	}
}

func defaultCustomer() workflow.Customer {
	return workflow.Customer{
		Name:        "Sarah Chen",
		Email:       "sarah.chen@example.com",
		PhoneNumber: "555-1234",
		ZipCode:     "78701",
	}
}

// inputSource yields the customer side of the conversation.
type inputSource interface {
	Next() (string, bool)
}

type scriptedInput struct {
	replies []string
	pos     int
}

func (s *scriptedInput) Next() (string, bool) {
	if s.pos >= len(s.replies) {
		return "", false
	}
	reply := s.replies[s.pos]
	s.pos++
	fmt.Printf("You: %s\n", reply)
	return reply, true
}

type stdinInput struct {
	scanner *bufio.Scanner
}

func (s *stdinInput) Next() (string, bool) {
	fmt.Print("You: ")
	if !s.scanner.Scan() {
		return "", false
	}
	text := strings.TrimSpace(s.scanner.Text())
	if text == "" {
		return "", false
	}
	return text, true
}

func newInputSource(mocked bool) inputSource {
	if mocked {
		return &scriptedInput{replies: scriptedReplies}
	}
	return &stdinInput{scanner: bufio.NewScanner(os.Stdin)}
}

func runConversation(ctx context.Context, conv *workflow.Conversation, input inputSource) (workflow.State, error) {
	state, err := conv.Start(ctx)
	if err != nil {
		return workflow.State{}, err
	}
	fmt.Printf("Coordinator: %s\n", conv.LastAssistantMessage())

	for !conv.Done() {
		reply, ok := input.Next()
		if !ok {
			slog.Info("no more customer input, ending conversation")
			break
		}

		state, err = conv.Reply(ctx, reply)
		if err != nil {
			return workflow.State{}, err
		}
		fmt.Printf("Coordinator: %s\n", conv.LastAssistantMessage())
	}

	return state, nil
}

func printResult(final workflow.State, tracker *graph.CostTracker) {
	fmt.Println()
	if final.Outcome != nil {
		fmt.Println("Outcome:")
		fmt.Printf("  customer_email:  %s\n", final.Outcome.CustomerEmail)
		fmt.Printf("  vendor_email:    %s\n", final.Outcome.VendorEmail)
		fmt.Printf("  project_summary: %s\n", final.Outcome.ProjectSummary)
		if final.PreferredTime != "" {
			fmt.Printf("  preferred_time:  %s\n", final.PreferredTime)
		}
	} else {
		fmt.Println("No outcome produced (handed off to vendor).")
	}

	if len(tracker.Calls()) > 0 {
		slog.Info("llm usage", "summary", tracker.String())
	}
}

func submitTrace(ctx context.Context, cfg *config.Config, runID string, final workflow.State) {
	client := trace.NewClient(cfg.TraceAPIURL, cfg.TraceAPIKey)

	traceID, err := client.SubmitRun(ctx, trace.RunSubmission{
		RunID:      runID,
		Project:    "contractor-flow",
		Transcript: final.Messages,
		Sentiment:  string(final.Sentiment),
		Attempts:   final.SentimentAttempts,
		Outcome:    final.Outcome,
	})
	if err != nil {
		slog.Warn("failed to submit run trace", "error", err)
		return
	}
	slog.Info("run trace submitted", "trace_id", traceID)
}
