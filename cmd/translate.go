// translate command: one URL through fetch, extract, translate and write.

package cmd

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/sitetrans/core"
)

var translateCmd = &cobra.Command{
	Use:   "translate <url>",
	Short: "Translate one page",
	Long: `Translate fetches one page in the source language, translates its visible
text and writes both the original and the translated copy below the output
directory.

Examples:
  sitetrans translate https://www.landsiedel.com/de/kurse.html
  sitetrans translate https://www.landsiedel.com/de/ --dry-run
  sitetrans translate https://www.landsiedel.com/de/ --backend openai --output-dir ./site`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	addPipelineFlags(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s (must include scheme, e.g. https://example.com)", rawURL)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger, flagDryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	o := a.pipeline.ProcessURL(ctx, rawURL, flagDryRun)
	printOutcome(cmd.OutOrStdout(), o)
	if o.Status == core.StatusFailed {
		return o.Err
	}
	return nil
}

func printOutcome(w io.Writer, o core.Outcome) {
	switch o.Status {
	case core.StatusSuccess:
		if o.TargetPath != "" {
			fmt.Fprintf(w, "✓ Written: %s\n", o.TargetPath)
		} else {
			fmt.Fprintf(w, "✓ Planned: %s\n", o.URL)
		}
	case core.StatusSkipped:
		fmt.Fprintf(w, "- Skipped: %s (%s)\n", o.URL, o.Reason)
	default:
		fmt.Fprintf(w, "✗ Failed: %s (%s)\n", o.URL, o.Reason)
	}
	s := o.Stats
	fmt.Fprintf(w, "  texts=%d skipped=%d cache_hits=%d pending=%d translated=%d batches=%d\n",
		s.Texts, s.Skipped, s.CacheHits, s.Pending, s.Translated, s.Batches)
}
