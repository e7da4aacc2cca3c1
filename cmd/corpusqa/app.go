package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/corpusqa/corpusqa/config"
	"github.com/corpusqa/corpusqa/internal/chatbot"
	"github.com/corpusqa/corpusqa/internal/embedding"
	"github.com/corpusqa/corpusqa/internal/gate"
	"github.com/corpusqa/corpusqa/internal/memory"
	"github.com/corpusqa/corpusqa/internal/rag"
	"github.com/corpusqa/corpusqa/internal/vectorstore"
	vmemory "github.com/corpusqa/corpusqa/internal/vectorstore/memory"
	"github.com/corpusqa/corpusqa/internal/vectorstore/qdrant"
	"github.com/corpusqa/corpusqa/provider"
)

// app holds the wired component graph shared by the commands.
type app struct {
	cfg   *config.Config
	bot   *chatbot.Chatbot
	index vectorstore.Index
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadConfig(path)
}

func buildApp(cfg *config.Config) (*app, error) {
	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewEmbedding(llm)

	var index vectorstore.Index
	switch cfg.Storage.VectorStore.Type {
	case "memory":
		index, err = vmemory.NewStore(embedder, cfg.Storage.VectorStore.Path)
		if err != nil {
			return nil, err
		}
	case "qdrant":
		index = qdrant.NewStore(cfg.Storage.VectorStore.Qdrant, embedder)
	default:
		return nil, fmt.Errorf("unsupported vector store type %q", cfg.Storage.VectorStore.Type)
	}

	var gateOpts []gate.Option
	if cfg.Security.RateWindow.Type == "redis" {
		r := cfg.Security.RateWindow.Redis
		gateOpts = append(gateOpts, gate.WithRateWindow(gate.NewRedisWindow(r.Addr, r.Password, r.DB)))
	}
	g := gate.New(cfg.Security, gateOpts...)

	conversations, err := memory.NewStore(cfg.Storage.ConversationDir)
	if err != nil {
		return nil, err
	}

	engine := rag.NewEngine(cfg.Retrieval, index, llm)
	logger := log.New(os.Stdout, "[CHAT] ", log.LstdFlags)
	bot := chatbot.New(g, conversations, engine, cfg.Retrieval.ContextMessages, logger)

	return &app{cfg: cfg, bot: bot, index: index}, nil
}
