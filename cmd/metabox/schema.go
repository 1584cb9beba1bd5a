package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-metabox/pkg/restschema"
)

func newSchemaCmd(a *app) *cobra.Command {
	var (
		format    string
		output    string
		serverURL string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the OpenAPI document of the meta API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := restschema.Build(cmd.Context(), a.runtime.Registry, restschema.Info{ServerURL: serverURL})
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "json":
				data, err = json.MarshalIndent(doc, "", "  ")
			case "yaml":
				data, err = yaml.Marshal(doc)
			default:
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
			if err != nil {
				return fmt.Errorf("encode schema: %w", err)
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write schema: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&serverURL, "server-url", "/api", "server URL recorded in the document")
	return cmd
}
