// Command discord-mcp exposes Discord server administration as MCP tools
// over stdio.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggoodman/discord-mcp-go/internal/config"
	"github.com/ggoodman/discord-mcp-go/internal/tools"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "discord-mcp:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var o config.Overrides

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and serve MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), o)
		},
	}

	root := &cobra.Command{
		Use:           "discord-mcp",
		Short:         "Discord administration tools for MCP clients",
		Long:          "discord-mcp exposes Discord server administration as MCP tools over stdio.\nThe bot token is read from DISCORD_TOKEN.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve.RunE,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.ConfigFile, "config", "", "path to a YAML config file (env DISCORD_MCP_CONFIG)")
	flags.StringVar(&o.LogLevel, "log-level", "", "debug, info, warn or error (env DISCORD_MCP_LOG_LEVEL)")
	flags.StringVar(&o.LogFormat, "log-format", "", "text or json (env DISCORD_MCP_LOG_FORMAT)")
	flags.StringVar(&o.MetricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address (env DISCORD_MCP_METRICS_ADDR)")
	flags.StringSliceVar(&o.DisabledTools, "disable-tool", nil, "remove a tool from the catalog (repeatable)")

	root.AddCommand(serve, newToolsCommand(), newVersionCommand())
	return root
}

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			disabled, err := cmd.Flags().GetStringSlice("disable-tool")
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tools.New(nil, tools.WithDisabled(disabled...)).Descriptors())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
