// Package service orchestrates a conversation turn: context assembly, the
// model call, directive extraction, file edits and the exchange log.
package service

import (
	"github.com/sirupsen/logrus"

	"github.com/xiaot623/gogo/copilot/internal/adapter/llm"
	"github.com/xiaot623/gogo/copilot/internal/config"
	"github.com/xiaot623/gogo/copilot/internal/patch"
	"github.com/xiaot623/gogo/copilot/internal/prompt"
	"github.com/xiaot623/gogo/copilot/internal/repository"
	"github.com/xiaot623/gogo/copilot/internal/workspace"
)

type Service struct {
	store     repository.Store
	llmClient llm.LLMClient
	assembler *prompt.Assembler
	applier   *patch.Applier
	lister    *workspace.Lister
	config    *config.Config
	logger    logrus.FieldLogger
}

func New(store repository.Store, llmClient llm.LLMClient, assembler *prompt.Assembler, applier *patch.Applier, lister *workspace.Lister, cfg *config.Config, logger logrus.FieldLogger) *Service {
	return &Service{
		store:     store,
		llmClient: llmClient,
		assembler: assembler,
		applier:   applier,
		lister:    lister,
		config:    cfg,
		logger:    logger,
	}
}
