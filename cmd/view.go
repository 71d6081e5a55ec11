// Package cmd — view command.
// A full-screen pager over the terminal rendering of a work item or of a
// local ADF document.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/jirapipe/core/document"
	"github.com/gaurav-prasanna/jirapipe/core/terminal"
	"github.com/gaurav-prasanna/jirapipe/crawl"
)

var viewCmd = &cobra.Command{
	Use:   "view <KEY|file.json>",
	Short: "Page through a work item or an ADF document",
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	title, markdown, err := viewSource(cmd, args[0])
	if err != nil {
		return err
	}
	program := tea.NewProgram(newPager(title, markdown), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = program.Run()
	return err
}

// viewSource loads a local ADF file when arg names one, otherwise the
// work item with that key.
func viewSource(cmd *cobra.Command, arg string) (title, markdown string, err error) {
	if _, statErr := os.Stat(arg); statErr == nil || strings.HasSuffix(arg, ".json") {
		data, err := readInput(cmd.InOrStdin(), []string{arg})
		if err != nil {
			return "", "", err
		}
		markdown, err = convertADF(data)
		return arg, markdown, err
	}

	key := crawl.NormalizeKey(arg)
	if !crawl.ValidKey(key) {
		return "", "", fmt.Errorf("%s is neither a file nor a work item key", arg)
	}
	client, err := newClient()
	if err != nil {
		return "", "", err
	}
	item, err := loadWorkItem(cmd.Context(), client, key)
	if err != nil {
		return "", "", err
	}
	return item.Key + ": " + item.Summary, document.Build(item, newNormalizer(), documentOptions()), nil
}

var (
	pagerTitle  = lipgloss.NewStyle().Bold(true).Foreground(terminal.DefaultTheme.Heading).Padding(0, 1)
	pagerFooter = lipgloss.NewStyle().Foreground(terminal.DefaultTheme.Faint).Padding(0, 1)
)

// pager is the bubbletea model behind the view command.
type pager struct {
	title    string
	markdown string
	viewport viewport.Model
	ready    bool
}

func newPager(title, markdown string) pager {
	return pager{title: title, markdown: markdown}
}

func (p pager) Init() tea.Cmd { return nil }

func (p pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		}
	case tea.WindowSizeMsg:
		height := max(msg.Height-lipgloss.Height(p.header())-lipgloss.Height(p.footer()), 1)
		if !p.ready {
			p.viewport = viewport.New(msg.Width, height)
			p.ready = true
		} else {
			p.viewport.Width = msg.Width
			p.viewport.Height = height
		}
		p.viewport.SetContent(terminal.Render(p.markdown, msg.Width))
	}

	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p pager) View() string {
	if !p.ready {
		return "Loading…"
	}
	return p.header() + "\n" + p.viewport.View() + "\n" + p.footer()
}

func (p pager) header() string {
	return pagerTitle.Render(p.title)
}

func (p pager) footer() string {
	return pagerFooter.Render(fmt.Sprintf("%3.f%%  ↑/↓ scroll · q quit", p.viewport.ScrollPercent()*100))
}
