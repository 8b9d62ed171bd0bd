package llm

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ModeMock selects the mock client.
const ModeMock = "MOCK"

// NewLLMClient creates an LLM client for the given mode.
// With mode MOCK it returns a MockClient; otherwise a real Client.
func NewLLMClient(mode, baseURL, apiKey string, timeout time.Duration, logger logrus.FieldLogger) LLMClient {
	if mode == ModeMock {
		logger.Info("COPILOT_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}

	return NewClient(baseURL, apiKey, timeout)
}
