package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/sitetrans/config"
	"github.com/gaurav-prasanna/sitetrans/viewer"
)

var (
	flagViewerHost string
	flagViewerPort int
	flagSiteDir    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Browse the source and translated pages side by side",
	Long: `serve starts a local web viewer over the output directory. The left pane
shows the source page, the right pane its translation. Zip archives of both
language trees are offered for download.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		srv, err := viewer.NewServer(viewerLayout(cfg), logger, viewer.Options{
			Host:            cfg.ViewerHost,
			Port:            cfg.ViewerPort,
			ShutdownTimeout: 5 * time.Second,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "viewer on http://%s/ (Ctrl+C to stop)\n", srv.Addr())
		return srv.Start(cmd.Context())
	},
}

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Export the viewer as a static site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagSiteDir == "" {
			return fmt.Errorf("--site-dir is required")
		}
		if err := viewer.BuildSite(viewerLayout(cfg), flagSiteDir); err != nil {
			return err
		}
		logger.Info().Str("site_dir", flagSiteDir).Msg("static viewer written")
		fmt.Fprintf(cmd.OutOrStdout(), "static viewer written to %s\n", flagSiteDir)
		return nil
	},
}

func viewerLayout(c *config.Config) viewer.Layout {
	return viewer.Layout{OutputDir: c.OutputDir, SourceLang: c.SourceLang, TargetLang: c.TargetLang}
}

func addLayoutFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagSourceLang, "source-lang", "", "Source language code (default de)")
	f.StringVar(&flagTargetLang, "target-lang", "", "Target language code (default en)")
	f.StringVar(&flagOutputDir, "output-dir", "", "Output directory of a previous run (default: output)")
}

func init() {
	addLayoutFlags(serveCmd)
	serveCmd.Flags().StringVar(&flagViewerHost, "host", "", "Listen address (default 127.0.0.1)")
	serveCmd.Flags().IntVar(&flagViewerPort, "port", 0, "Listen port (default 8000)")

	addLayoutFlags(siteCmd)
	siteCmd.Flags().StringVar(&flagSiteDir, "site-dir", "", "Directory to write the static site into")

	rootCmd.AddCommand(serveCmd, siteCmd)
}
