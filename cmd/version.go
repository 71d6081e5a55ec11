// Package cmd — version command.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X ...cmd.version=v1.2.3".
var version = "dev"

var flagVersionServer bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the jirapipe version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&flagVersionServer, "server", false, "Also describe the configured Jira server and account")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "jirapipe %s\n", version)
	if !flagVersionServer {
		return nil
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	info, err := client.ServerInfo(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "server:   %s %s (%s, REST API v%d)\n", info.ServerTitle, info.Version, info.DeploymentType, client.APIVersion())
	fmt.Fprintf(out, "base URL: %s\n", info.BaseURL)

	me, err := client.Myself(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "account:  %s\n", me.Name())
	return nil
}
