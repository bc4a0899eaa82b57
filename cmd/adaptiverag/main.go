package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/smallnest/adaptiverag/ingest"
	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/order"
	"github.com/smallnest/adaptiverag/rag"
	"github.com/smallnest/adaptiverag/rag/judge"
	"github.com/smallnest/adaptiverag/server"
	"github.com/smallnest/adaptiverag/session"
	"github.com/smallnest/adaptiverag/tool"
	"github.com/smallnest/adaptiverag/transaction"
	"github.com/smallnest/adaptiverag/workflow"
)

var (
	styleUser      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleSystem    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP server instead of the interactive chat")
	ingestPath := flag.String("ingest", "", "ingest a document before starting")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLogLevel(log.LogLevelDebug)
	}

	cfg := server.LoadConfig()
	if err := server.ValidateConfig(cfg); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}

	llm, err := newLLM(cfg)
	if err != nil {
		fatal("failed to create model client: %v", err)
	}

	embedder, err := ingest.NewOpenAIEmbedder(cfg.OpenAIKey,
		ingest.WithEmbeddingModel(cfg.EmbeddingModel),
		ingest.WithEmbeddingBaseURL(cfg.OpenAIBaseURL),
	)
	if err != nil {
		fatal("failed to create embedder: %v", err)
	}

	web, err := newWebSearcher(cfg)
	if err != nil {
		fatal("failed to create web search client: %v", err)
	}

	engine := workflow.NewEngine(
		judge.NewClient(llm),
		rag.NewGenerator(llm),
		web,
		workflow.Options{MaxRetries: cfg.MaxRetries},
	)

	var history session.History
	if cfg.RedisAddr != "" {
		history = session.NewRedisHistory(session.RedisOptions{Addr: cfg.RedisAddr})
	} else {
		history = session.NewMemoryHistory()
	}

	manager := session.NewManager(engine, embedder, history, session.WithTopK(cfg.TopK))
	defer manager.Close()

	orders := order.NewPipeline(llm)

	ctx := context.Background()
	if *ingestPath != "" {
		sections, chunks, err := manager.IngestFile(ctx, session.DefaultSessionID, *ingestPath)
		if err != nil {
			fatal("ingestion failed: %v", err)
		}
		fmt.Println(styleSystem.Render(fmt.Sprintf("ingested %s: %d sections, %d chunks", *ingestPath, sections, chunks)))
	}

	if *serve {
		store, err := newTransactionStore(ctx, cfg)
		if err != nil {
			fatal("failed to open transaction store: %v", err)
		}
		srv := server.NewServer(cfg, manager, orders, store)
		if err := srv.Start(); err != nil {
			fatal("server failed: %v", err)
		}
		return
	}

	runChat(ctx, manager, orders)
}

func newLLM(cfg server.Config) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.OpenAIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return openai.New(opts...)
}

func newWebSearcher(cfg server.Config) (rag.Searcher, error) {
	switch cfg.WebSearch {
	case "tavily":
		return tool.NewTavilySearch(cfg.TavilyKey)
	case "brave":
		return tool.NewBraveSearch(cfg.BraveKey)
	default:
		return nil, nil
	}
}

func newTransactionStore(ctx context.Context, cfg server.Config) (transaction.Store, error) {
	if cfg.DBBackend == "postgres" {
		store, err := transaction.NewPostgresStore(ctx, transaction.PostgresOptions{ConnString: cfg.PostgresURL})
		if err != nil {
			return nil, err
		}
		if err := store.InitSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return transaction.NewSqliteStore(transaction.SqliteOptions{Path: cfg.SqlitePath})
}

func runChat(ctx context.Context, manager *session.Manager, orders *order.Pipeline) {
	fmt.Println(styleSystem.Render("adaptiverag chat. Type a question, /upload <path> to add a document, /fetch <url> to ingest a web page, /quit to exit."))

	fetcher := tool.NewPageFetcher()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(styleUser.Render("you> "))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return
		case strings.HasPrefix(line, "/upload "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/upload "))
			sections, chunks, err := manager.IngestFile(ctx, session.DefaultSessionID, path)
			if err != nil {
				fmt.Println(styleError.Render(fmt.Sprintf("upload failed: %v", err)))
				continue
			}
			fmt.Println(styleSystem.Render(fmt.Sprintf("ingested %d sections, %d chunks", sections, chunks)))
			continue
		case strings.HasPrefix(line, "/fetch "):
			pageURL := strings.TrimSpace(strings.TrimPrefix(line, "/fetch "))
			text, err := fetcher.Fetch(ctx, pageURL)
			if err != nil {
				fmt.Println(styleError.Render(fmt.Sprintf("fetch failed: %v", err)))
				continue
			}
			sections, chunks, err := manager.IngestText(ctx, session.DefaultSessionID, text)
			if err != nil {
				fmt.Println(styleError.Render(fmt.Sprintf("ingestion failed: %v", err)))
				continue
			}
			fmt.Println(styleSystem.Render(fmt.Sprintf("ingested %d sections, %d chunks", sections, chunks)))
			continue
		}

		handled, reply, err := orders.Handle(ctx, line)
		if err != nil {
			fmt.Println(styleError.Render(fmt.Sprintf("error: %v", err)))
			continue
		}
		if handled {
			fmt.Println(styleAssistant.Render(reply))
			continue
		}

		out, err := manager.Ask(ctx, session.DefaultSessionID, line)
		if err != nil {
			fmt.Println(styleError.Render(fmt.Sprintf("error: %v", err)))
			continue
		}
		answer := out.Answer
		if !out.Verified {
			answer += styleSystem.Render("  (unverified)")
		}
		fmt.Println(styleAssistant.Render(answer))
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintln(os.Stderr, styleError.Render(fmt.Sprintf(format, args...)))
	os.Exit(1)
}
