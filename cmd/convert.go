// Package cmd — convert command.
// Converts an Atlassian Document Format tree read from a file or stdin
// into Markdown, without talking to the API.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/jirapipe/core/adf"
	"github.com/gaurav-prasanna/jirapipe/core/normalize"
	"github.com/gaurav-prasanna/jirapipe/core/terminal"
)

// Flag variables.
var (
	flagConvertBaseURL   string
	flagConvertKeepMedia bool
	flagConvertRaw       bool
	flagConvertTerminal  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [file|-]",
	Short: "Convert an ADF document to Markdown",
	Long: `Convert reads an Atlassian Document Format tree (a JSON object, or an
array of nodes) and prints it as Markdown. With no file, or "-", the
document is read from stdin.

Examples:
  jirapipe convert description.json
  jirapipe convert - --base-url https://example.atlassian.net < body.json
  jirapipe convert comment.json --terminal`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&flagConvertBaseURL, "base-url", "", "Web base URL for mention links (default: from config)")
	convertCmd.Flags().BoolVar(&flagConvertKeepMedia, "keep-media", false, "Keep media nodes as attachment markers")
	convertCmd.Flags().BoolVar(&flagConvertRaw, "raw", false, "Convert the tree as-is, skipping the clean-up passes")
	convertCmd.Flags().BoolVar(&flagConvertTerminal, "terminal", false, "Print styled terminal output instead of Markdown")
}

func runConvert(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	markdown, err := convertADF(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagConvertTerminal {
		markdown = terminal.Render(markdown, terminalWidth(out))
	}
	if markdown != "" {
		fmt.Fprintln(out, markdown)
	}
	return nil
}

// readInput reads the named file, or stdin for no argument or "-".
func readInput(stdin io.Reader, args []string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("reading input: empty document")
	}
	return data, nil
}

func convertADF(data []byte) (string, error) {
	if flagConvertRaw {
		return adf.ConvertJSON(data)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return "", fmt.Errorf("decoding ADF: %w", err)
	}
	baseURL := flagConvertBaseURL
	if baseURL == "" {
		baseURL = cfg.WebBaseURL()
	}
	return normalize.New(baseURL, flagConvertKeepMedia).Normalize(tree)
}
