package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

func okText(s string) string {
	return color.GreenString("✓ ") + s
}

func errorText(s string) string {
	return color.RedString("✗ ") + s
}

func renderAnswer(answer string, changes []domain.Change) string {
	var sb strings.Builder
	sb.WriteString(answer)
	if !strings.HasSuffix(answer, "\n") {
		sb.WriteString("\n")
	}
	if len(changes) == 0 {
		return sb.String()
	}

	sb.WriteString(color.CyanString("\nChanges\n"))
	sb.WriteString(strings.Repeat("─", 40) + "\n")
	for _, c := range changes {
		switch c.Status {
		case domain.ChangeStatusApplied:
			fmt.Fprintf(&sb, "%s %s %s\n", color.GreenString("✓"), c.Action, c.Path)
		case domain.ChangeStatusBlocked:
			fmt.Fprintf(&sb, "%s %s %s %s\n", color.YellowString("!"), c.Action, c.Path, color.HiBlackString("(blocked)"))
		default:
			fmt.Fprintf(&sb, "%s %s %s %s\n", color.RedString("✗"), c.Action, c.Path, color.HiBlackString(c.Error))
		}
	}
	return sb.String()
}

func renderHistory(exchanges []domain.Exchange) string {
	if len(exchanges) == 0 {
		return "No history yet\n"
	}

	var sb strings.Builder
	for _, ex := range exchanges {
		fmt.Fprintf(&sb, "%s %s\n", color.HiBlackString(ex.CreatedAt.Format("15:04:05")), color.CyanString("Q: ")+ex.Question)
		fmt.Fprintf(&sb, "%s\n\n", ex.Answer)
	}
	return sb.String()
}

func renderModified(files []domain.ModifiedFile) string {
	if len(files) == 0 {
		return "No modified files\n"
	}

	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "%s  %s\n", color.HiBlackString(f.LastModified.Format("2006-01-02 15:04:05")), f.FilePath)
	}
	return sb.String()
}

func renderTree(nodes []domain.TreeNode) string {
	var sb strings.Builder
	writeTree(&sb, nodes, "")
	return sb.String()
}

func writeTree(sb *strings.Builder, nodes []domain.TreeNode, indent string) {
	for _, n := range nodes {
		if n.Type == domain.NodeTypeFolder {
			fmt.Fprintf(sb, "%s%s/\n", indent, color.BlueString(n.Name))
			writeTree(sb, n.Children, indent+"  ")
			continue
		}
		fmt.Fprintf(sb, "%s%s\n", indent, n.Name)
	}
}
