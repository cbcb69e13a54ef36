package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ironsheep/inscription-decoder/internal/config"
	"github.com/ironsheep/inscription-decoder/internal/decoder"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
	"github.com/ironsheep/inscription-decoder/internal/logging"
	"github.com/ironsheep/inscription-decoder/internal/metrics"
	"github.com/ironsheep/inscription-decoder/internal/script"
	"github.com/ironsheep/inscription-decoder/internal/session"
)

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

// newRootCommand builds the command tree. Configuration flags are persistent
// so every subcommand accepts them.
func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "inscription-decoder",
		Short: "Decode photographed Tamil-Brahmi inscriptions",
		Long: `inscription-decoder turns a photograph of a stone inscription into its
archaic text, a modern Tamil transliteration and an English-glossed reading.

Run "serve" to expose the decoder as an MCP server over stdin/stdout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{Flags: cmd.Flags()})
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.Init(logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		serveCommand(a),
		decodeCommand(a),
		tablesCommand(a),
		versionCommand(),
	)
	return root
}

// newService wires the decoder from the loaded configuration. m may be nil.
func (a *app) newService(m *metrics.DecoderMetrics) (*decoder.Service, error) {
	mode, err := a.cfg.GlossMode()
	if err != nil {
		return nil, err
	}
	norm, err := imaging.NewNormalizer(a.cfg.Normalize)
	if err != nil {
		return nil, err
	}
	det, err := newDetector(a.cfg.Detector, logging.ForModule("detection"))
	if err != nil {
		return nil, err
	}

	tables := script.NewRegistry(a.cfg.Tables)
	if err := tables.Init(); err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	return decoder.NewService(decoder.ServiceConfig{
		Pipeline: decoder.Options{
			Normalizer: norm,
			GlossMode:  mode,
			Logger:     logging.ForModule("decoder"),
			Metrics:    m,
		},
		Detector:        det,
		Tables:          tables,
		Sessions:        session.NewStore[decoder.Result](a.cfg.Session.TTL),
		DetectorTimeout: a.cfg.Detector.Timeout,
	})
}
