// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert orchestrates document-to-Markdown conversion: it selects
// a format converter per document, writes the Markdown next to the source
// file, and aggregates per-file outcomes into a batch result.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/docmark/internal/normalize"
	"github.com/pdiddy/docmark/pkg/types"
)

// Converter transforms one source document into Markdown text. Format
// packages (docx, pptx) implement this interface.
type Converter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// Registry selects a Converter by document format.
type Registry map[types.Format]Converter

// For returns the converter registered for doc's format.
func (r Registry) For(doc types.Document) (Converter, bool) {
	c, ok := r[doc.Format]
	return c, ok
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any documents failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Options control a batch run.
type Options struct {
	// Force re-converts documents whose Markdown output already exists.
	Force bool

	// OnFile, when non-nil, is invoked after each document completes. The
	// CLI hangs progress-bar advancement and history recording off it.
	OnFile func(types.FileResult)
}

// ConvertDocument converts a single document, writing the Markdown to the
// sibling .md path. Unless force is set, an existing output file skips the
// conversion. Per-file status lines go to w.
func ConvertDocument(ctx context.Context, reg Registry, doc types.Document, force bool, w io.Writer) types.FileResult {
	start := time.Now()
	mdPath := OutputPath(doc.Path)
	res := types.FileResult{Path: doc.Path, Output: mdPath}

	fail := func(err error) types.FileResult {
		res.Status = types.ConversionFailed
		res.Error = err.Error()
		res.DurationMS = time.Since(start).Milliseconds()
		fmt.Fprintf(w, "failed:    %s (%v)\n", doc.Path, err)
		return res
	}

	if !force {
		if _, err := os.Stat(mdPath); err == nil {
			res.Status = types.ConversionNone
			res.DurationMS = time.Since(start).Milliseconds()
			fmt.Fprintf(w, "skipped:   %s (already exists)\n", doc.Path)
			return res
		}
	}

	c, ok := reg.For(doc)
	if !ok {
		return fail(fmt.Errorf("no converter for format %q", doc.Format))
	}

	raw, err := c.Convert(ctx, doc.Path)
	if err != nil {
		return fail(err)
	}

	content := addFrontmatter(doc, normalize.ToASCII(raw))

	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		return fail(err)
	}

	res.Status = types.ConversionDone
	res.DurationMS = time.Since(start).Milliseconds()
	fmt.Fprintf(w, "converted: %s\n", doc.Path)
	return res
}

// ConvertBatch processes documents in order, honoring context cancellation
// between files, printing per-file status to w, and returning a summary
// plus the individual results. A cancellation error is returned alongside
// the counts accumulated so far.
func ConvertBatch(ctx context.Context, reg Registry, docs []types.Document, opts Options, w io.Writer) (BatchResult, []types.FileResult, error) {
	var result BatchResult
	results := make([]types.FileResult, 0, len(docs))

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return result, results, ctx.Err()
		default:
		}

		res := ConvertDocument(ctx, reg, doc, opts.Force, w)
		switch res.Status {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
		results = append(results, res)

		if opts.OnFile != nil {
			opts.OnFile(res)
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, results, nil
}

// OutputPath returns the sibling .md path for a source document path.
func OutputPath(srcPath string) string {
	return strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ".md"
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown body.
func addFrontmatter(doc types.Document, body string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "source: %q\n", doc.Path)
	fmt.Fprintf(&b, "format: %q\n", doc.Format)
	fmt.Fprintf(&b, "converted_at: %q\n", ts)
	b.WriteString("generator: \"docmark\"\n")
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}
