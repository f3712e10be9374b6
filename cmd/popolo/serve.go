package main

import (
	"context"

	"github.com/spf13/cobra"

	"popolo/internal/logger"
	"popolo/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	var data dataFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, data)
		},
	}
	data.register(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, data dataFlags) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	src, release, err := dataSource(ctx, cfg, data)
	if err != nil {
		return err
	}
	defer release()

	logger.Logger.Infow("starting mcp server",
		logger.FieldDataset, data.dataset,
		logger.FieldSource, data.file,
	)
	server := mcp.NewServer(src, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
