// Package pipeline drives one URL through fetch, extract, translate and
// write, and runs many URLs through a bounded worker pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/sitetrans/core"
	"github.com/gaurav-prasanna/sitetrans/core/document"
	"github.com/gaurav-prasanna/sitetrans/core/extract"
	"github.com/gaurav-prasanna/sitetrans/core/output"
	"github.com/gaurav-prasanna/sitetrans/core/review"
	"github.com/gaurav-prasanna/sitetrans/core/rewrite"
	"github.com/gaurav-prasanna/sitetrans/core/translate"
)

// Deps are the components a Pipeline owns.
type Deps struct {
	Fetcher    core.Fetcher
	Translator *translate.Translator
	Writer     *output.Writer
	Review     *review.MarkdownConverter // nil disables review copies
	Logger     zerolog.Logger
}

// Pipeline is safe for concurrent use: every call works on its own
// document and the shared components synchronize internally.
type Pipeline struct {
	fetcher    core.Fetcher
	extractor  *extract.FragmentExtractor
	translator *translate.Translator
	writer     *output.Writer
	review     *review.MarkdownConverter
	src, dst   string
	log        zerolog.Logger
}

// New creates a Pipeline for one language pair.
func New(src, dst string, deps Deps) (*Pipeline, error) {
	if deps.Fetcher == nil || deps.Translator == nil || deps.Writer == nil {
		return nil, errors.New("pipeline requires a fetcher, a translator and a writer")
	}
	if src == "" || dst == "" {
		return nil, errors.New("pipeline requires source and target languages")
	}
	return &Pipeline{
		fetcher:    deps.Fetcher,
		extractor:  extract.New(),
		translator: deps.Translator,
		writer:     deps.Writer,
		review:     deps.Review,
		src:        src,
		dst:        dst,
		log:        deps.Logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// ProcessURL runs one URL to a terminal outcome. Non-document content is
// Skipped; every other error ends the URL as Failed and is recorded with
// the stage it came from. In dry-run mode the page is planned against the
// cache but nothing is translated or written.
func (p *Pipeline) ProcessURL(ctx context.Context, rawURL string, dryRun bool) core.Outcome {
	start := time.Now()
	o := core.Outcome{URL: rawURL, Stage: core.StagePending}

	fail := func(stage core.Stage, err error) core.Outcome {
		o.Stage = stage
		o.Status = core.StatusFailed
		o.Err = &core.StageError{Stage: stage, Err: err}
		o.Reason = o.Err.Error()
		o.Duration = time.Since(start)
		return o
	}

	o.Stage = core.StageFetching
	res, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if core.IsNonDocument(err) {
			o.Status = core.StatusSkipped
			o.Reason = "non-document content"
			o.Err = err
			o.Duration = time.Since(start)
			return o
		}
		return fail(core.StageFetching, err)
	}

	o.Stage = core.StageExtracting
	doc, err := document.ParseString(res.HTML)
	if err != nil {
		return fail(core.StageExtracting, err)
	}
	items, err := p.extractor.Extract(doc)
	if err != nil {
		return fail(core.StageExtracting, err)
	}

	o.Stage = core.StageTranslating
	if dryRun {
		plan := p.translator.Plan(ctx, items, p.src, p.dst)
		o.Stats = plan.Stats
		o.Stage = core.StageDone
		o.Status = core.StatusSuccess
		o.Reason = "dry run"
		o.Duration = time.Since(start)
		return o
	}
	texts, stats, err := p.translator.Translate(ctx, items, p.src, p.dst)
	o.Stats = stats
	if err != nil {
		return fail(core.StageTranslating, err)
	}

	o.Stage = core.StageWriting
	if err := rewrite.Apply(doc, items, texts); err != nil {
		return fail(core.StageWriting, err)
	}
	links := rewrite.LinkRewriter{From: p.src, To: p.dst, Host: pageHost(res)}
	changed := links.Rewrite(doc)
	rewrite.SetLanguage(doc, p.dst)
	rewrite.SetCharset(doc)

	translated, err := doc.Render()
	if err != nil {
		return fail(core.StageWriting, err)
	}

	// Output paths follow the URL the page was actually served from.
	pageURL := rawURL
	if res.FinalURL != "" {
		pageURL = res.FinalURL
	}
	original := res.Raw
	if original == nil {
		original = []byte(res.HTML)
	}
	o.SourcePath, o.TargetPath, err = p.writer.WritePage(pageURL, original, translated)
	if err != nil {
		return fail(core.StageWriting, err)
	}

	if p.review != nil {
		if err := p.writeReview(pageURL, translated); err != nil {
			return fail(core.StageWriting, err)
		}
	}

	o.Stage = core.StageDone
	o.Status = core.StatusSuccess
	o.Duration = time.Since(start)

	p.log.Debug().
		Str("url", rawURL).
		Int("texts", stats.Texts).
		Int("links", changed).
		Str("target", o.TargetPath).
		Msg("page translated")
	return o
}

func (p *Pipeline) writeReview(pageURL string, page []byte) error {
	md, err := p.review.Convert(page)
	if err != nil {
		return err
	}
	_, err = p.writer.WriteReview(pageURL, md)
	if err != nil {
		return fmt.Errorf("writing review copy: %w", err)
	}
	return nil
}

// pageHost is the host absolute links are compared against: the host
// the page was finally served from.
func pageHost(res *core.FetchResult) string {
	for _, raw := range []string{res.FinalURL, res.URL} {
		if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return ""
}
