// Package commands implements the modelstore command line interface.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-modelstore/config"
	"github.com/goliatone/go-modelstore/internal/build"
	"github.com/goliatone/go-modelstore/pkg/di"
)

// CLI represents the command line interface for modelstore.
type CLI struct {
	rootCmd    *cobra.Command
	configPath string
	dbPath     string
	container  *di.Container
}

// New creates a new CLI instance.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "modelstore",
		Short:         "Inspect and modify a modelstore SQLite database",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))

	c := &CLI{rootCmd: rootCmd}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&c.dbPath, "db", "", "Database file, overrides the configured engine path")

	rootCmd.AddCommand(c.newExecCmd())
	rootCmd.AddCommand(c.newQueryCmd())
	rootCmd.AddCommand(c.newTablesCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	defer c.close()
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// open loads the configuration and builds the container on first use.
func (c *CLI) open(cmd *cobra.Command) (*di.Container, error) {
	if c.container != nil {
		return c.container, nil
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.dbPath != "" {
		cfg.Engine.Path = c.dbPath
	}

	logger := cfg.Log.Logger(cmd.ErrOrStderr())
	container, err := di.NewContainer(cmd.Context(), cfg, di.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("database opened", slog.String("path", cfg.Engine.Path))

	c.container = container
	return container, nil
}

func (c *CLI) close() {
	if c.container != nil {
		_ = c.container.Close()
		c.container = nil
	}
}
