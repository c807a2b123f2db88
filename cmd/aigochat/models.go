package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leofalp/aigochat/core/registry"
)

func (a *app) newModelsCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models served with the current credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			models, err := registry.New(cfg.VendorConfigs(), registry.WithLogger(logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(models.AvailableModels())
			case "text":
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tDESCRIPTION")
				for _, model := range models.AvailableModels() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", model.ID, model.Name, model.Vendor, model.Description)
				}
				return w.Flush()
			default:
				return fmt.Errorf("unknown output format %q (want text or json)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	return cmd
}
