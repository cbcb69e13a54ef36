package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ironsheep/inscription-decoder/internal/imaging"
)

func decodeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [image]",
		Short: "Decode one photograph and print the report",
		Long:  `Decode a single photograph and print the result, detections and stage trace as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := imaging.LoadRawImage(args[0])
			if err != nil {
				return err
			}
			svc, err := a.newService(nil)
			if err != nil {
				return err
			}
			report, err := svc.Decode(cmd.Context(), raw)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(report)
		},
	}
}
