// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pdiddy/docmark/internal/caption"
	"github.com/pdiddy/docmark/internal/convert"
	"github.com/pdiddy/docmark/internal/docx"
	"github.com/pdiddy/docmark/internal/history"
	"github.com/pdiddy/docmark/internal/pptx"
	"github.com/pdiddy/docmark/internal/scan"
	"github.com/pdiddy/docmark/pkg/types"
)

const defaultModel = "gpt-4o"

var convertCmd = &cobra.Command{
	Use:   "convert [directory]",
	Short: "Convert Office documents under a directory to Markdown",
	Long: `Convert recursively scans a directory for Word and PowerPoint documents
and converts each one to Markdown, written next to the source file. With an
OPENAI_API_KEY configured, embedded images are captioned through a vision
model; --skip-images disables that to save API cost.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("directory", "d", ".", "directory to scan for documents")
	convertCmd.Flags().StringSliceP("extensions", "e", []string{".docx", ".pptx"}, "file extensions to convert")
	convertCmd.Flags().Bool("skip-images", false, "disable LLM image captions")
	convertCmd.Flags().Bool("force", false, "re-convert files whose Markdown output already exists")
	convertCmd.Flags().String("error-log", "conversion_errors.log", "failure log file")
	convertCmd.Flags().String("report", "", "write a YAML run report to this path")
	convertCmd.Flags().Bool("no-progress", false, "disable the progress bar")
	convertCmd.Flags().Bool("no-history", false, "do not record this run in the history database")
	convertCmd.Flags().String("model", "", "vision model for image captions (default "+defaultModel+")")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	dir, _ := flags.GetString("directory")
	if len(args) == 1 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}

	exts, _ := flags.GetStringSlice("extensions")
	docs, err := scan.Find(root, exts)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintf(os.Stderr, "no files with extensions %v found under %s\n", exts, root)
		return nil
	}
	fmt.Fprintf(os.Stderr, "Found %d file(s) to convert under %s\n", len(docs), root)

	describer := setupDescriber(cmd)
	reg := convert.Registry{
		types.FormatDocx: docx.New(describer),
		types.FormatPptx: pptx.New(describer),
	}

	errorLog, _ := flags.GetString("error-log")
	flog := convert.NewFailureLog(errorLog)
	defer flog.Close()

	noProgress, _ := flags.GetBool("no-progress")
	showBar := !noProgress && term.IsTerminal(int(os.Stderr.Fd()))

	// With the bar active, per-file status lines would tear it; they go to
	// the error log and history instead.
	var bar *progressbar.ProgressBar
	statusW := io.Writer(os.Stdout)
	if showBar {
		bar = progressbar.NewOptions(len(docs),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
		)
		statusW = io.Discard
	}

	report := types.RunReport{Root: root, StartedAt: time.Now().UTC()}

	force, _ := flags.GetBool("force")
	opts := convert.Options{
		Force: force,
		OnFile: func(res types.FileResult) {
			if bar != nil {
				bar.Describe(filepath.Base(res.Path))
				bar.Add(1)
			}
			if err := flog.Record(res); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		},
	}

	result, results, runErr := convert.ConvertBatch(ctx, reg, docs, opts, statusW)
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	report.FinishedAt = time.Now().UTC()
	report.Converted = result.Converted
	report.Skipped = result.Skipped
	report.Failed = result.Failed
	report.Results = results

	recordHistory(cmd, report)

	if reportPath, _ := flags.GetString("report"); reportPath != "" {
		if err := convert.WriteReport(reportPath, report); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	if showBar {
		fmt.Printf("Converted %d, skipped %d, failed %d (total %d)\n",
			result.Converted, result.Skipped, result.Failed, result.Total())
	}
	if result.HasFailures() {
		fmt.Fprintf(os.Stderr, "%d conversion(s) failed; see %s\n", result.Failed, errorLog)
	}

	if runErr != nil {
		return runErr
	}
	if result.HasFailures() {
		return fmt.Errorf("%d of %d conversions failed", result.Failed, result.Total())
	}
	return nil
}

// setupDescriber builds the vision captioner from flags, environment,
// viper config, and secrets. It returns nil when captioning is disabled or
// no API key can be found; conversion then proceeds without captions.
func setupDescriber(cmd *cobra.Command) caption.Describer {
	if skip, _ := cmd.Flags().GetBool("skip-images"); skip {
		fmt.Fprintln(os.Stderr, "Image captions disabled.")
		return nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = secretDefault("openai-api-key", viper.GetString("openai_api_key"))
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "warning: OPENAI_API_KEY not set; image captions disabled")
		fmt.Fprintln(os.Stderr, "warning: set it in the environment, .env, or .secrets/openai-api-key to enable")
		return nil
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("model")
	}
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = secretDefault("openai-model", "")
	}
	if model == "" {
		model = defaultModel
	}

	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = secretDefault("openai-base-url", viper.GetString("openai_base_url"))
	}

	fmt.Fprintf(os.Stderr, "Image captions enabled using model: %s\n", model)
	return caption.NewOpenAIDescriber(types.CaptionConfig{
		AIConfig: types.AIConfig{
			Model:      model,
			APIKey:     apiKey,
			BaseURL:    baseURL,
			MaxRetries: viper.GetInt("max_retries"),
		},
		Prompt: viper.GetString("caption_prompt"),
	})
}

// recordHistory appends the run to the SQLite history database. History is
// best effort: failures warn and never fail the conversion.
func recordHistory(cmd *cobra.Command, report types.RunReport) {
	if skip, _ := cmd.Flags().GetBool("no-history"); skip {
		return
	}

	dbPath := viper.GetString("history_db")
	if dbPath == "" {
		var err error
		dbPath, err = history.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
			return
		}
	}

	store, err := history.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.RecordRun(report); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording history: %v\n", err)
	}
}
