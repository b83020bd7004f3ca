package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/akshay-abraham/lyra/internal/llm/configbuilder"
)

// NewDoctorCmd returns a health-check command validating config and reporting
// per-provider credential presence.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Providers: %d, models: %d\n", len(cfg.Providers), len(cfg.Models))

			names := make([]string, 0, len(cfg.Providers))
			for name := range cfg.Providers {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				p := cfg.Providers[name]
				status := "credential missing"
				if configbuilder.ResolveAPIKey(p) != "" {
					status = "credential present"
				}
				fmt.Fprintf(out, "  %-10s type=%-8s %s\n", name, p.Type, status)
			}
			return nil
		},
	}
}
