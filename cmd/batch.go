package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/pipeline"
	"github.com/gaurav-prasanna/sitetrans/core/render"
	"github.com/gaurav-prasanna/sitetrans/crawl"
)

var (
	flagSitemap  string
	flagCrawl    string
	flagLimit    int
	flagMaxPages int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Translate every page listed in a sitemap",
	Long: `Batch loads the page list from a sitemap (JSON or XML, file or URL) or
a link crawl, translates each page, and writes a run report. URLs that
failed are listed in failed_urls.txt in the output directory.

Examples:
  sitetrans batch --sitemap sitemap.json --limit 20
  sitetrans batch --sitemap https://www.landsiedel.com/sitemap.xml --workers 4 --delay 500ms
  sitetrans batch --crawl https://www.landsiedel.com/de/ --max-pages 50 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addPipelineFlags(batchCmd)

	f := batchCmd.Flags()
	f.StringVar(&flagSitemap, "sitemap", "", "Sitemap file or URL (JSON or XML)")
	f.StringVar(&flagCrawl, "crawl", "", "Discover pages by following links from this URL")
	f.IntVar(&flagLimit, "limit", 0, "Process at most this many URLs (0 = all)")
	f.IntVar(&flagMaxPages, "max-pages", crawl.DefaultMaxPages, "Upper bound on pages discovered by --crawl")
	f.DurationVar(&flagDelay, "delay", 0, "Minimum delay between fetches across all workers (default 1s)")
	f.IntVar(&flagWorkers, "workers", 0, "Number of pages processed concurrently (default 1)")
	f.StringVar(&flagReportFormat, "report-format", "", "Run report format: "+fmt.Sprint(render.Formats))
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if (flagSitemap == "") == (flagCrawl == "") {
		return errors.New("exactly one of --sitemap or --crawl is required")
	}

	renderer, err := render.ForFormat(cfg.ReportFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, flagDryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	scope := crawl.SitemapOptions{Host: cfg.SitemapHost, SourceLang: cfg.SourceLang, Limit: flagLimit}
	var urls []string
	if flagSitemap != "" {
		urls, err = crawl.LoadSitemap(ctx, flagSitemap, scope)
	} else {
		urls, err = crawl.Discover(ctx, flagCrawl, cfg.SourceLang, flagMaxPages, a.fetcher, logger)
		urls = crawl.Filter(urls, scope)
	}
	if err != nil {
		return fmt.Errorf("loading URLs: %w", err)
	}
	if len(urls) == 0 {
		return errors.New("no URLs to process")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processing %d URLs with %d workers\n", len(urls), cfg.Workers)

	report, runErr := a.pipeline.Run(ctx, urls, pipeline.RunOptions{Workers: cfg.Workers, DryRun: flagDryRun})

	data, err := renderer.Render(report)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	reportPath, err := a.writer.WriteReport(data, renderer.Extension())
	if err != nil {
		return err
	}

	printSummary(out, report, reportPath)

	if runErr != nil {
		return runErr
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d/%d URLs failed (see %s)", report.Failed, report.Total, report.ManifestPath)
	}
	return nil
}

func printSummary(w io.Writer, r *core.RunReport, reportPath string) {
	fmt.Fprintf(w, "\nRun %s\n", r.RunID)
	fmt.Fprintf(w, "  processed: %d/%d\n", r.Processed, r.Total)
	fmt.Fprintf(w, "  success:   %d\n", r.Success)
	fmt.Fprintf(w, "  skipped:   %d\n", r.Skipped)
	fmt.Fprintf(w, "  failed:    %d\n", r.Failed)
	if r.DryRun {
		s := r.Stats
		fmt.Fprintf(w, "  texts=%d skipped=%d cache_hits=%d pending=%d\n", s.Texts, s.Skipped, s.CacheHits, s.Pending)
	}
	if r.Aborted {
		fmt.Fprintln(w, "  run aborted")
	}
	if n := len(r.NotProcessed); n > 0 {
		fmt.Fprintf(w, "  not processed: %d\n", n)
	}
	if r.ManifestPath != "" {
		fmt.Fprintf(w, "  failed URLs: %s\n", r.ManifestPath)
	}
	fmt.Fprintf(w, "  report: %s\n", reportPath)
}
