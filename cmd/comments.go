// Package cmd — comments commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/jirapipe/core/document"
	"github.com/gaurav-prasanna/jirapipe/crawl"
)

var (
	flagCommentsPage  int
	flagCommentsPlain bool
)

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "List, show, add and delete comments",
}

var commentsListCmd = &cobra.Command{
	Use:   "list <KEY>",
	Short: "List the comments of a work item",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentsList,
}

var commentsShowCmd = &cobra.Command{
	Use:   "show <KEY> <ID>",
	Short: "Print one comment",
	Args:  cobra.ExactArgs(2),
	RunE:  runCommentsShow,
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <KEY> <MESSAGE>",
	Short: "Add a comment to a work item",
	Args:  cobra.ExactArgs(2),
	RunE:  runCommentsAdd,
}

var commentsDeleteCmd = &cobra.Command{
	Use:   "delete <KEY> <ID>",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(2),
	RunE:  runCommentsDelete,
}

func init() {
	rootCmd.AddCommand(commentsCmd)
	commentsCmd.AddCommand(commentsListCmd, commentsShowCmd, commentsAddCmd, commentsDeleteCmd)

	commentsListCmd.Flags().IntVar(&flagCommentsPage, "page", 1, "Page number, starting at 1")
	commentsCmd.PersistentFlags().BoolVar(&flagCommentsPlain, "plain", false, "Print Markdown even on a terminal")
}

func runCommentsList(cmd *cobra.Command, args []string) error {
	if flagCommentsPage < 1 {
		return fmt.Errorf("--page must be at least 1")
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	key := crawl.NormalizeKey(args[0])
	perPage := cfg.SearchResultsPerPage

	page, err := client.Comments(cmd.Context(), key, (flagCommentsPage-1)*perPage, perPage)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(page.Comments) == 0 {
		fmt.Fprintf(out, "No comments on %s (page %d).\n", key, flagCommentsPage)
		return nil
	}

	n := newNormalizer()
	opts := documentOptions()
	md := fmt.Sprintf("## Comments on %s (%d–%d of %d)\n",
		key, page.StartAt+1, page.StartAt+len(page.Comments), page.Total)
	for _, c := range page.Comments {
		md += "\n" + document.Comment(c, n, opts)
	}
	printMarkdown(out, md, flagCommentsPlain)
	return nil
}

func runCommentsShow(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	c, err := client.Comment(cmd.Context(), crawl.NormalizeKey(args[0]), args[1])
	if err != nil {
		return err
	}
	printMarkdown(cmd.OutOrStdout(), document.Comment(*c, newNormalizer(), documentOptions()), flagCommentsPlain)
	return nil
}

func runCommentsAdd(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	key := crawl.NormalizeKey(args[0])
	c, err := client.AddComment(cmd.Context(), key, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added comment %s to %s\n", c.ID, key)
	return nil
}

func runCommentsDelete(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	key := crawl.NormalizeKey(args[0])
	if err := client.DeleteComment(cmd.Context(), key, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted comment %s from %s\n", args[1], key)
	return nil
}
