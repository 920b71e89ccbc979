package commands

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

//go:embed docs/*.md
var docsFS embed.FS

var topicTitleStyle = lipgloss.NewStyle().Bold(true)

func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs [topic]",
		Short: MsgDocsShort,
		Long:  MsgDocsLong,
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return listTopics(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				printTopicList(cmd)
				return nil
			}
			return showTopic(cmd, args[0])
		},
	}
}

func listTopics() []string {
	entries, err := fs.ReadDir(docsFS, "docs")
	if err != nil {
		return nil
	}
	topics := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".md") {
			topics = append(topics, strings.TrimSuffix(name, ".md"))
		}
	}
	sort.Strings(topics)
	return topics
}

func printTopicList(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, topicTitleStyle.Render("Available topics:"))
	for _, name := range listTopics() {
		fmt.Fprintf(out, "  %s\n", name)
	}
	fmt.Fprintln(out, "\nUse 'devprep docs <topic>' to read one.")
}

func showTopic(cmd *cobra.Command, name string) error {
	content, err := docsFS.ReadFile(path.Join("docs", name+".md"))
	if err != nil {
		return fmt.Errorf("unknown topic %q, run 'devprep docs' for the list", name)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(string(content)))
	return nil
}

// renderMarkdown renders a topic for the terminal, falling back to the
// raw markdown when stdout is not a terminal or rendering fails.
func renderMarkdown(content string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return content
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
