// Package prompt assembles the text sent to the language model from prior
// exchanges, selected files and the new question.
package prompt

import (
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/copilot/internal/domain"
	"github.com/xiaot623/gogo/copilot/internal/workspace"
)

// CodeTrigger must appear in a question for selected file contents to be
// included in the prompt. Matching is case-sensitive.
const CodeTrigger = "CODE"

// Assembler builds prompts.
type Assembler struct {
	maxTokens int
	count     func(string) int
}

// NewAssembler creates an assembler. maxTokens > 0 drops the oldest
// exchanges until the prompt fits; 0 keeps every exchange.
func NewAssembler(maxTokens int) *Assembler {
	return &Assembler{maxTokens: maxTokens, count: CountTokens}
}

// Assemble renders history, then (only when the question contains
// CodeTrigger) every selected file, then the question. Selected file paths
// are resolved under root; any failure to read one aborts assembly.
func (a *Assembler) Assemble(history []domain.Exchange, question string, files []domain.SelectedFile, root string) (string, error) {
	var filesBlock strings.Builder
	if strings.Contains(question, CodeTrigger) {
		for _, f := range files {
			content, err := readSelected(root, f)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&filesBlock, "File: %s\n%s\n\n", f.Path, content)
		}
	}
	questionBlock := fmt.Sprintf("Q: %s\n", question)

	blocks := make([]string, len(history))
	for i, ex := range history {
		blocks[i] = FormatExchange(ex)
	}
	blocks = a.window(blocks, filesBlock.String()+questionBlock)

	var b strings.Builder
	for _, block := range blocks {
		b.WriteString(block)
	}
	b.WriteString(filesBlock.String())
	b.WriteString(questionBlock)
	return b.String(), nil
}

// FormatExchange renders one prior exchange.
func FormatExchange(ex domain.Exchange) string {
	return fmt.Sprintf("Q: %s\nA: %s\n\n", ex.Question, ex.Answer)
}

// window keeps the newest history blocks that fit next to tail.
func (a *Assembler) window(blocks []string, tail string) []string {
	if a.maxTokens <= 0 {
		return blocks
	}
	budget := a.maxTokens - a.count(tail)
	start := len(blocks)
	for start > 0 {
		cost := a.count(blocks[start-1])
		if cost > budget {
			break
		}
		budget -= cost
		start--
	}
	return blocks[start:]
}

func readSelected(root string, f domain.SelectedFile) (string, error) {
	path, err := workspace.SafeJoin(root, f.Path)
	if err != nil {
		return "", &domain.FileError{Op: domain.FileOpRead, Path: f.Path, Err: err}
	}
	return workspace.ReadFile(path)
}
