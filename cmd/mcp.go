package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recordui/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the record tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("mcp"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		h, _, err := newToolHandler(cfg)
		if err != nil {
			return err
		}

		zap.L().Info("mcp server ready", zap.Int("tools", len(h.Definitions())))
		return mcp.NewServer(h, version, os.Stdout).Run(ctx, os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
