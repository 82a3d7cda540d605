package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/triage-bridge/internal/config"
	"github.com/scan-io-git/triage-bridge/internal/preview"
)

type PreviewOptions struct {
	Addr  string
	Open  bool
	Theme string
}

var allPreviewOptions PreviewOptions

var execExamplePreview = `  # Serve finding #42 on http://127.0.0.1:8765 and open it in the browser
  triage-bridge preview 42 --open`

var previewCmd = &cobra.Command{
	Use:     "preview ID [--addr HOST:PORT] [--open]",
	Short:   "Serve an interactive finding document in the browser",
	Example: execExamplePreview,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseFindingID(args[0])
		if err != nil {
			return err
		}
		if allPreviewOptions.Theme != "" {
			AppConfig.UI.Theme = allPreviewOptions.Theme
			if err := config.ValidateUIConfig(&AppConfig.UI); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		s := newSession(ctx, AppConfig, cmd.Name(), cmd.InOrStdin(), cmd.OutOrStdout())
		defer s.Close()

		srv, err := preview.New(allPreviewOptions.Addr, id, s.client, s.engine, s.guard, s.logger.Named("preview"), composerOptions(AppConfig, s.logger)...)
		if err != nil {
			return err
		}

		unsubscribe := s.topic.Subscribe(func() {
			_ = srv.Reload(ctx)
		})
		defer unsubscribe()

		if allPreviewOptions.Open {
			go func() {
				if err := s.guard.Open("http://" + allPreviewOptions.Addr + "/"); err != nil {
					s.logger.Warn("failed to open preview in browser", "error", err)
				}
			}()
		}

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&allPreviewOptions.Addr, "addr", "127.0.0.1:8765", "listen address of the preview server")
	previewCmd.Flags().BoolVar(&allPreviewOptions.Open, "open", false, "open the preview in the system browser")
	previewCmd.Flags().StringVar(&allPreviewOptions.Theme, "theme", "", "override the configured theme: auto, dark or light")
}
