// Package cmd — issue commands.
// show prints one work item; export orchestrates the pipeline
// fetch → document → render → write for one item (--only) or for every
// linked item (--all); search lists the results of a JQL query.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/jirapipe/core"
	"github.com/gaurav-prasanna/jirapipe/core/document"
	"github.com/gaurav-prasanna/jirapipe/core/output"
	"github.com/gaurav-prasanna/jirapipe/core/render"
	"github.com/gaurav-prasanna/jirapipe/core/terminal"
	"github.com/gaurav-prasanna/jirapipe/crawl"
)

const defaultJQL = "updated >= -15d ORDER BY created DESC"

// Flag variables.
var (
	flagPlain bool

	flagOnly        bool
	flagAll         bool
	flagPDF         bool
	flagMarkdown    bool
	flagJSON        bool
	flagOutputDir   string
	flagMaxItems    int
	flagSameProject bool
	flagReferences  bool

	flagJQL   string
	flagLimit int
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Show, export and search work items",
}

var issueShowCmd = &cobra.Command{
	Use:   "show <KEY>",
	Short: "Print a work item",
	Args:  cobra.ExactArgs(1),
	RunE:  runIssueShow,
}

var issueExportCmd = &cobra.Command{
	Use:   "export <KEY>",
	Short: "Export a work item to the specified output format",
	Long: `Export fetches a work item, assembles it into a Markdown document and
converts it to the specified output format (Markdown, JSON or PDF).

Examples:
  jirapipe issue export ENG-42 --markdown
  jirapipe issue export ENG-42 --json --output_dir ./out
  jirapipe issue export ENG-42 --all --pdf --max_items 20`,
	Args: cobra.ExactArgs(1),
	RunE: runIssueExport,
}

var issueSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "List work items matching a JQL query",
	Args:  cobra.NoArgs,
	RunE:  runIssueSearch,
}

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.AddCommand(issueShowCmd, issueExportCmd, issueSearchCmd)

	issueShowCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print Markdown even on a terminal")

	// Mode flags.
	issueExportCmd.Flags().BoolVar(&flagOnly, "only", false, "Export only the given work item (default)")
	issueExportCmd.Flags().BoolVar(&flagAll, "all", false, "Export the work item and every linked work item")

	// Output format flags (mutually exclusive).
	issueExportCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	issueExportCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	issueExportCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")

	// Discovery flags.
	issueExportCmd.Flags().IntVar(&flagMaxItems, "max_items", crawl.DefaultMaxItems, "Maximum work items to export with --all")
	issueExportCmd.Flags().BoolVar(&flagSameProject, "same_project", false, "With --all, stay within the root work item's project")
	issueExportCmd.Flags().BoolVar(&flagReferences, "follow_references", false, "With --all, also follow work item links in descriptions")

	issueExportCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")

	issueSearchCmd.Flags().StringVar(&flagJQL, "jql", defaultJQL, "JQL query")
	issueSearchCmd.Flags().IntVar(&flagLimit, "limit", 0, "Maximum results (default: search_results_per_page)")
}

func runIssueShow(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	item, err := loadWorkItem(cmd.Context(), client, crawl.NormalizeKey(args[0]))
	if err != nil {
		return err
	}
	printMarkdown(cmd.OutOrStdout(), document.Build(item, newNormalizer(), documentOptions()), flagPlain)
	return nil
}

// printMarkdown writes markdown, styled when w is a terminal.
func printMarkdown(w io.Writer, markdown string, plain bool) {
	if !plain && isTerminal(w) {
		markdown = terminal.Render(markdown, terminalWidth(w))
	}
	fmt.Fprintln(w, markdown)
}

func runIssueExport(cmd *cobra.Command, args []string) error {
	key := crawl.NormalizeKey(args[0])

	// --- Validate flags ---
	if err := validateExportFlags(); err != nil {
		return err
	}
	if !crawl.ValidKey(key) {
		return fmt.Errorf("invalid work item key: %s (expected PROJECT-123)", args[0])
	}

	renderer, err := selectRenderer()
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if flagAll {
		return runAll(ctx, out, key, client, renderer, writer)
	}
	return runOnly(ctx, out, key, client, renderer, writer)
}

// runOnly processes a single work item through the pipeline.
func runOnly(
	ctx context.Context,
	out io.Writer,
	key string,
	client workItemSource,
	renderer core.Renderer,
	writer *output.Writer,
) error {
	item, err := client.WorkItem(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	data, err := processWorkItem(ctx, item, client, renderer)
	if err != nil {
		return err
	}

	path, err := writer.WriteOnly(item.Key, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Written: %s\n", path)
	return nil
}

// runAll discovers every linked work item and processes each through the pipeline.
func runAll(
	ctx context.Context,
	out io.Writer,
	key string,
	client workItemSource,
	renderer core.Renderer,
	writer *output.Writer,
) error {
	fmt.Fprintf(out, "Discovering work items linked to %s...\n", key)

	items, err := crawl.Discover(ctx, key, client, crawl.Options{
		MaxItems:         flagMaxItems,
		SameProjectOnly:  flagSameProject,
		FollowReferences: flagReferences,
	})
	if err != nil {
		return fmt.Errorf("discovering work items: %w", err)
	}

	fmt.Fprintf(out, "Found %d work items to export\n", len(items))

	var errCount int
	for i, item := range items {
		fmt.Fprintf(out, "[%d/%d] Processing %s\n", i+1, len(items), item.Key)

		data, err := processWorkItem(ctx, item, client, renderer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Error: %v\n", err)
			errCount++
			continue
		}

		path, err := writer.WriteAll(item.Key, data, renderer.Extension())
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Write error: %v\n", err)
			errCount++
			continue
		}
		fmt.Fprintf(out, "  ✓ Written: %s\n", path)
	}

	if errCount > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d work items failed\n", errCount, len(items))
	}
	return nil
}

// processWorkItem runs a fetched work item through the rest of the pipeline.
func processWorkItem(
	ctx context.Context,
	item *core.WorkItem,
	client workItemSource,
	renderer core.Renderer,
) ([]byte, error) {
	// 1. Web links are fetched separately from the item itself.
	if err := attachWebLinks(ctx, client, item); err != nil {
		slog.Warn("fetching web links failed", "key", item.Key, "err", err)
	}

	// 2. Assemble the Markdown document
	opts := documentOptions()
	markdown := document.Build(item, newNormalizer(), opts)

	// 3. Render to output format
	data, err := renderer.Render(markdown, document.Metadata(item, opts))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return data, nil
}

// validateExportFlags checks that exactly one output format is chosen and
// that --only and --all are not both specified.
func validateExportFlags() error {
	if flagOnly && flagAll {
		return fmt.Errorf("--only and --all are mutually exclusive")
	}

	formatCount := 0
	for _, set := range []bool{flagPDF, flagMarkdown, flagJSON} {
		if set {
			formatCount++
		}
	}
	if formatCount == 0 {
		return fmt.Errorf("exactly one output format is required: --pdf, --markdown or --json")
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	if flagMaxItems < 1 {
		return fmt.Errorf("--max_items must be at least 1")
	}
	return nil
}

// selectRenderer creates the appropriate Renderer based on flags.
func selectRenderer() (core.Renderer, error) {
	switch {
	case flagMarkdown:
		return render.NewMarkdownRenderer(), nil
	case flagJSON:
		return render.NewJSONRenderer(), nil
	case flagPDF:
		return render.NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("no output format selected")
	}
}

func runIssueSearch(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	limit := flagLimit
	if limit <= 0 {
		limit = cfg.SearchResultsPerPage
	}

	items, err := client.Search(cmd.Context(), flagJQL, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No work items found.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Key, it.Status, it.Type, it.Summary)
	}
	return tw.Flush()
}
