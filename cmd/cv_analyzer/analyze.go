package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonathan/cv-keyword-analyzer/internal/config"
	"github.com/jonathan/cv-keyword-analyzer/internal/extraction"
	"github.com/jonathan/cv-keyword-analyzer/internal/normalize"
	"github.com/jonathan/cv-keyword-analyzer/internal/observability"
	"github.com/jonathan/cv-keyword-analyzer/internal/pipeline"
	"github.com/jonathan/cv-keyword-analyzer/internal/storage"
)

var analyzeJobs []string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume>",
	Short: "Analyze a résumé against job postings",
	Long: `Extracts the text of a PDF or DOCX résumé, fetches the requirement sections of the
given job postings and prints the keyword analysis as JSON.

The résumé may be a local path or an s3://bucket/key object, which is downloaded to a
temporary file and removed afterwards. With --verbose, progress and a readable summary
are printed instead of JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringArrayVarP(&analyzeJobs, "job", "j", nil, "Job posting URL (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	resumePath, cleanup, err := localResume(cmd, cfg, args[0], log)
	if err != nil {
		return err
	}
	defer cleanup()

	p, closeFn, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)
	in := pipeline.Input{
		ResumePath: resumePath,
		Kind:       extraction.KindFromFilename(args[0]),
		JobURLs:    analyzeJobs,
	}
	if cfg.Verbose {
		in.OnProgress = func(ev pipeline.ProgressEvent) {
			printer.PrintProgress(ev.Step, ev.Message)
		}
	}

	result, err := p.Run(ctx, in)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		printer.PrintAnalysis(result)
		return nil
	}
	return writeJSON(out, result)
}

// localResume returns a local path for the résumé argument, downloading
// s3:// objects to a temporary file.
func localResume(cmd *cobra.Command, cfg config.Config, arg string, log logrus.FieldLogger) (string, func(), error) {
	if !storage.IsURI(arg) {
		if _, err := os.Stat(arg); err != nil {
			return "", nil, fmt.Errorf("résumé %s: %w", filepath.Base(arg), extraction.ErrFileNotFound)
		}
		return arg, func() {}, nil
	}

	downloader, err := storage.NewDownloader(cmd.Context(), cfg.Storage, log)
	if err != nil {
		return "", nil, err
	}
	path, cleanup, err := downloader.DownloadToTemp(cmd.Context(), arg)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download résumé: %w", err)
	}
	return path, cleanup, nil
}

func writeJSON(w io.Writer, result *normalize.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
