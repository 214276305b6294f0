package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	yishumcp "github.com/yishu-dev/yishu/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the yishu MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the yishu MCP server on stdio",
	Long: `Start the yishu MCP server on stdio transport.

The server lets an AI assistant conduct the interview: get_progress,
current_question, save_answer, next_question, previous_question,
advance_stage, jump_to_stage, analyze_answer, generate_biography,
list_styles, get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Interview == nil || Flow == nil || Biographer == nil {
			return fmt.Errorf("interview services not initialized")
		}

		srv := yishumcp.NewServer(yishumcp.Services{
			Interview:   Interview,
			Flow:        Flow,
			Biographer:  Biographer,
			SubjectName: SubjectName,
			Metrics:     MetricsCalc,
			Alerts:      AlertEngine,
		}, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
