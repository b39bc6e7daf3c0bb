// Package cli implements the composer command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/composer"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatYAML = "yaml"
	formatJSON = "json"
)

type rootOptions struct {
	configFile string
	verbose    bool
	output     string
	logger     *slog.Logger
}

// NewRootCommand creates the composer command tree.
func NewRootCommand(info VersionInfo) *cobra.Command {
	options := &rootOptions{}
	root := &cobra.Command{
		Use:           "composer",
		Short:         "Composed-proof orchestration engine",
		Long:          `composer runs proof templates as dependency graphs of verification tools and aggregates their verdicts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if options.verbose {
				level = slog.LevelDebug
			}
			options.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			switch strings.ToLower(options.output) {
			case formatYAML, formatJSON:
				return nil
			}
			return fmt.Errorf("unsupported output format %q", options.output)
		},
	}
	root.PersistentFlags().StringVar(&options.configFile, "config", "", "Path to configuration file (yaml, json or toml)")
	root.PersistentFlags().BoolVarP(&options.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&options.output, "output", "o", formatYAML, "Output format: yaml or json")

	root.AddCommand(newRunCommand(options))
	root.AddCommand(newTemplatesCommand(options))
	root.AddCommand(newExecutionsCommand(options))
	root.AddCommand(newVersionCommand(info))
	return root
}

// service builds the engine from --config and COMPOSER_* variables.
func (o *rootOptions) service(ctx context.Context, opts ...composer.Option) (*composer.Service, error) {
	config, err := composer.LoadConfig(o.configFile)
	if err != nil {
		return nil, err
	}
	opts = append([]composer.Option{composer.WithLogger(o.logger)}, opts...)
	return composer.NewFromConfig(ctx, config, opts...)
}

func (o *rootOptions) print(w io.Writer, value interface{}) error {
	if strings.ToLower(o.output) == formatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	return encoder.Close()
}
