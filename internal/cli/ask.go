package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akshay-abraham/lyra/internal/llm/configbuilder"
	"github.com/akshay-abraham/lyra/internal/logging"
	"github.com/akshay-abraham/lyra/internal/tutor"
)

// NewAskCmd returns a one-shot command routing a single question to the
// configured providers, useful for smoke-testing credentials.
func NewAskCmd(opts *Options) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Send one question through the response router",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			registry, err := configbuilder.BuildRegistryFromConfig(cfg)
			if err != nil {
				return err
			}

			router := tutor.NewRouter(registry, logger, nil)
			result, err := router.Route(cmd.Context(), tutor.Request{
				Problem: strings.Join(args, " "),
				Model:   model,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Logical model id (default: configured default)")
	return cmd
}
