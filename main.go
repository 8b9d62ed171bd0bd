package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiaot623/gogo/copilot/internal/adapter/llm"
	"github.com/xiaot623/gogo/copilot/internal/config"
	"github.com/xiaot623/gogo/copilot/internal/directive"
	"github.com/xiaot623/gogo/copilot/internal/logging"
	"github.com/xiaot623/gogo/copilot/internal/patch"
	"github.com/xiaot623/gogo/copilot/internal/prompt"
	"github.com/xiaot623/gogo/copilot/internal/repository"
	"github.com/xiaot623/gogo/copilot/internal/service"
	handler "github.com/xiaot623/gogo/copilot/internal/transport/http"
	"github.com/xiaot623/gogo/copilot/internal/transport/rpc"
	"github.com/xiaot623/gogo/copilot/internal/transport/ws"
	"github.com/xiaot623/gogo/copilot/internal/workspace"
	"github.com/xiaot623/gogo/copilot/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.WithFields(logrus.Fields{
		"http_port": cfg.HTTPPort,
		"rpc_port":  cfg.RPCPort,
		"database":  cfg.DatabaseURL,
		"llm_url":   cfg.LLMBaseURL,
		"model":     cfg.LLMModel,
		"root_dir":  cfg.RootDir,
	}).Info("Starting copilot")

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize LLM client
	llmClient := llm.NewLLMClient(cfg.Mode, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout, logger)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		logger.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize workspace helpers
	lister, err := workspace.NewLister(cfg.ExcludePatterns)
	if err != nil {
		logger.Fatalf("Invalid exclude patterns: %v", err)
	}
	sanitizer := directive.NewSanitizer(cfg.FenceLanguages...)
	applier := patch.NewApplier(db, workspace.NewLocker(), policyEngine, sanitizer, logger)
	assembler := prompt.NewAssembler(cfg.MaxPromptTokens)

	// Initialize service
	svc := service.New(db, llmClient, assembler, applier, lister, cfg, logger)

	// Create HTTP server with the websocket endpoint
	wsServer := ws.NewServer(svc, ws.OptionsFromConfig(cfg), logger)
	httpServer := handler.NewServer(svc, cfg.CORSOrigins, logger, wsServer.RegisterRoutes)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
	logger.Infof("HTTP API started on port %d", cfg.HTTPPort)

	// Start RPC server
	var rpcServer *rpc.Server
	if cfg.RPCPort > 0 {
		rpcServer, err = rpc.NewServer(svc, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize RPC server: %v", err)
		}
		go func() {
			addr := fmt.Sprintf(":%d", cfg.RPCPort)
			if err := rpcServer.Start(addr); err != nil {
				logger.Fatalf("Failed to start RPC server: %v", err)
			}
		}()
		logger.Infof("JSON-RPC started on port %d", cfg.RPCPort)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down copilot...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("Failed to shutdown HTTP server gracefully: %v", err)
	}
	if rpcServer != nil {
		if err := rpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("Failed to shutdown RPC server gracefully: %v", err)
		}
	}

	logger.Info("Copilot stopped")
}
