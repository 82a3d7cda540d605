package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/triage-bridge/internal/appsec"
	"github.com/scan-io-git/triage-bridge/internal/composer"
	"github.com/scan-io-git/triage-bridge/internal/config"
	"github.com/scan-io-git/triage-bridge/internal/findings"
	"github.com/scan-io-git/triage-bridge/internal/logger"
	"github.com/scan-io-git/triage-bridge/pkg/shared/httpclient"
)

type RenderOptions struct {
	SARIF      string
	Index      int
	OutputFile string
	Markdown   bool
	Theme      string
}

var allRenderOptions RenderOptions

var execExampleRender = `  # Render finding #42 from the portal into an HTML document
  triage-bridge render 42 -o finding-42.html

  # Render the third result of a SARIF report as markdown
  triage-bridge render --sarif /tmp/juice-shop/semgrep.sarif --index 2 --markdown`

var renderCmd = &cobra.Command{
	Use:     "render {ID | --sarif PATH [--index N]} [-o PATH] [--markdown] [--theme auto|dark|light]",
	Short:   "Render a finding as a themed document with action controls",
	Example: execExampleRender,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateRenderArgs(&allRenderOptions, args); err != nil {
			return err
		}
		if allRenderOptions.Theme != "" {
			AppConfig.UI.Theme = allRenderOptions.Theme
			if err := config.ValidateUIConfig(&AppConfig.UI); err != nil {
				return err
			}
		}

		l := logger.NewLogger(AppConfig, "render")

		var f findings.Finding
		if allRenderOptions.SARIF != "" {
			results, err := findings.ReadSARIF(allRenderOptions.SARIF, l)
			if err != nil {
				return err
			}
			if allRenderOptions.Index >= len(results) {
				return fmt.Errorf("report has %d result(s), index %d is out of range", len(results), allRenderOptions.Index)
			}
			f = results[allRenderOptions.Index]
		} else {
			id, err := parseFindingID(args[0])
			if err != nil {
				return err
			}
			client := appsec.New(httpclient.InitializeRestyClient(l.Named("http"), AppConfig), AppConfig.AppSec, l.Named("appsec"))
			fetched, err := client.GetFinding(cmd.Context(), id)
			if err != nil {
				return err
			}
			f = *fetched
		}

		c, err := composer.New(composerOptions(AppConfig, l)...)
		if err != nil {
			return err
		}

		var out string
		if allRenderOptions.Markdown {
			out = c.Markdown(f)
		} else if out, err = c.Compose(f); err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if allRenderOptions.OutputFile != "" {
			file, err := os.Create(allRenderOptions.OutputFile)
			if err != nil {
				return err
			}
			defer file.Close()
			w = file
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}

		l.Debug("finding rendered", "finding_id", f.ID, "output", allRenderOptions.OutputFile)
		return nil
	},
}

func validateRenderArgs(options *RenderOptions, args []string) error {
	if options.SARIF != "" && len(args) > 0 {
		return fmt.Errorf("you cannot use both the 'sarif' flag and a finding id at the same time")
	}
	if options.SARIF == "" && len(args) == 0 {
		return fmt.Errorf("either a finding id or the 'sarif' flag must be specified")
	}
	if options.Index < 0 {
		return fmt.Errorf("the 'index' flag must not be negative")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&allRenderOptions.SARIF, "sarif", "", "render a result of a SARIF report instead of a portal finding")
	renderCmd.Flags().IntVar(&allRenderOptions.Index, "index", 0, "index of the SARIF result to render")
	renderCmd.Flags().StringVarP(&allRenderOptions.OutputFile, "output", "o", "", "output file (default is stdout)")
	renderCmd.Flags().BoolVar(&allRenderOptions.Markdown, "markdown", false, "print the annotated markdown instead of HTML")
	renderCmd.Flags().StringVar(&allRenderOptions.Theme, "theme", "", "override the configured theme: auto, dark or light")
}
