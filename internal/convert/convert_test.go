// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/docmark/pkg/types"
)

// fakeConverter implements Converter for testing. It returns canned Markdown
// or an error, depending on configuration.
type fakeConverter struct {
	output string
	err    error
}

func (f *fakeConverter) Convert(ctx context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func registryWith(c Converter) Registry {
	return Registry{types.FormatDocx: c, types.FormatPptx: c}
}

// setupDoc creates a source file in a temp dir and returns its Document.
func setupDoc(t *testing.T, name string) types.Document {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake office file"), 0o644); err != nil {
		t.Fatal(err)
	}
	ext := filepath.Ext(name)
	return types.Document{
		ID:     strings.TrimSuffix(name, ext),
		Path:   path,
		Format: types.Format(strings.TrimPrefix(ext, ".")),
	}
}

func TestConvertDocument(t *testing.T) {
	tests := []struct {
		name       string
		converter  *fakeConverter
		preCreate  bool // create output MD before running
		force      bool
		wantStatus types.ConversionStatus
		wantLog    string
	}{
		{
			name:       "successful conversion",
			converter:  &fakeConverter{output: "# Title\n\nContent here."},
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
		},
		{
			name:       "skip existing markdown",
			converter:  &fakeConverter{output: "should not be written"},
			preCreate:  true,
			wantStatus: types.ConversionNone,
			wantLog:    "skipped:",
		},
		{
			name:       "force overwrites existing markdown",
			converter:  &fakeConverter{output: "# Fresh"},
			preCreate:  true,
			force:      true,
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
		},
		{
			name:       "conversion failure",
			converter:  &fakeConverter{err: errors.New("corrupt archive")},
			wantStatus: types.ConversionFailed,
			wantLog:    "failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := setupDoc(t, "report.docx")

			if tt.preCreate {
				if err := os.WriteFile(OutputPath(doc.Path), []byte("existing"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			var log bytes.Buffer
			res := ConvertDocument(context.Background(), registryWith(tt.converter), doc, tt.force, &log)

			if res.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", res.Status, tt.wantStatus)
			}
			if !strings.Contains(log.String(), tt.wantLog) {
				t.Errorf("log output %q does not contain %q", log.String(), tt.wantLog)
			}
			if res.Output != OutputPath(doc.Path) {
				t.Errorf("output path = %q, want %q", res.Output, OutputPath(doc.Path))
			}
		})
	}
}

func TestConvertDocument_UnknownFormat(t *testing.T) {
	doc := setupDoc(t, "notes.odt")
	var log bytes.Buffer
	res := ConvertDocument(context.Background(), Registry{}, doc, false, &log)
	if res.Status != types.ConversionFailed {
		t.Fatalf("status = %q, want %q", res.Status, types.ConversionFailed)
	}
	if !strings.Contains(res.Error, "no converter") {
		t.Errorf("error = %q, want mention of missing converter", res.Error)
	}
}

func TestConvertDocument_FrontmatterAndNormalization(t *testing.T) {
	doc := setupDoc(t, "report.docx")
	conv := &fakeConverter{output: "# Report Title\n\nRange 3–5 — “quoted”.\n"}

	var log bytes.Buffer
	res := ConvertDocument(context.Background(), registryWith(conv), doc, false, &log)
	if res.Status != types.ConversionDone {
		t.Fatalf("expected ConversionDone, got %q", res.Status)
	}

	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "---\n") {
		t.Error("output should start with YAML frontmatter delimiter")
	}
	for _, want := range []string{"source:", `format: "docx"`, "converted_at:", `generator: "docmark"`} {
		if !strings.Contains(content, want) {
			t.Errorf("frontmatter should contain %q", want)
		}
	}
	if !strings.Contains(content, "# Report Title") {
		t.Error("output should contain the original Markdown body")
	}
	if !strings.Contains(content, `Range 3-5 -- "quoted".`) {
		t.Errorf("body should be ASCII-normalized, got:\n%s", content)
	}
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	// Three documents: one succeeds, one is pre-existing, one fails.
	for _, name := range []string{"a.docx", "b.docx", "c.pptx"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("office"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "b.md"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	conv := &selectiveConverter{
		outputs: map[string]string{
			filepath.Join(dir, "a.docx"): "# Doc A",
		},
		errors: map[string]error{
			filepath.Join(dir, "c.pptx"): errors.New("bad zip"),
		},
	}

	docs := []types.Document{
		{ID: "a", Path: filepath.Join(dir, "a.docx"), Format: types.FormatDocx},
		{ID: "b", Path: filepath.Join(dir, "b.docx"), Format: types.FormatDocx},
		{ID: "c", Path: filepath.Join(dir, "c.pptx"), Format: types.FormatPptx},
	}

	var hooked []types.ConversionStatus
	opts := Options{
		OnFile: func(res types.FileResult) { hooked = append(hooked, res.Status) },
	}

	var log bytes.Buffer
	result, results, err := ConvertBatch(context.Background(), registryWith(conv), docs, opts, &log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if result.Total() != 3 {
		t.Errorf("total = %d, want 3", result.Total())
	}
	if len(results) != 3 {
		t.Errorf("results = %d entries, want 3", len(results))
	}
	if len(hooked) != 3 {
		t.Errorf("OnFile called %d times, want 3", len(hooked))
	}
	if !strings.Contains(log.String(), "Batch summary:") {
		t.Error("batch output should contain summary line")
	}
}

func TestConvertBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := setupDoc(t, "a.docx")
	conv := &fakeConverter{output: "# A"}

	var log bytes.Buffer
	result, results, err := ConvertBatch(ctx, registryWith(conv), []types.Document{doc}, Options{}, &log)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result.Total() != 0 || len(results) != 0 {
		t.Errorf("no documents should be processed after cancellation, got %d", result.Total())
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath(filepath.Join("docs", "q3 report.pptx"))
	want := filepath.Join("docs", "q3 report.md")
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

// selectiveConverter returns different results per file path.
type selectiveConverter struct {
	outputs map[string]string
	errors  map[string]error
}

func (s *selectiveConverter) Convert(ctx context.Context, path string) (string, error) {
	if err, ok := s.errors[path]; ok {
		return "", err
	}
	if out, ok := s.outputs[path]; ok {
		return out, nil
	}
	return "# default", nil
}
