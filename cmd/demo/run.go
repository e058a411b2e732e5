package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"promoagent/internal/demo"
)

const (
	defaultQuery  = "Create a Marketing Campaign"
	defaultAPIURL = "http://localhost:8080"
	apiURLEnv     = "PROMOAGENT_API_URL"
)

type runOptions struct {
	file    string
	query   string
	api     string
	out     string
	verbose bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Upload a PDF and generate a post",
		Example: `  demo run --file report.pdf
  demo run --file report.pdf --query "Write a LinkedIn post" --out ./post`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
				Level(level).With().Timestamp().Logger()

			opts.api = resolveAPIURL(opts.api, cmd.Flags().Changed("api"))
			return runDemo(cmd.Context(), opts, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Path to the PDF to upload")
	cmd.Flags().StringVar(&opts.query, "query", defaultQuery, "What to generate from the PDF")
	cmd.Flags().StringVar(&opts.api, "api", "", "Base URL of the promoagent API (default $"+apiURLEnv+" or "+defaultAPIURL+")")
	cmd.Flags().StringVar(&opts.out, "out", "", "Directory to save the post text and image into")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// resolveAPIURL runs after .env is loaded, so the environment wins over
// the built-in default but never over an explicit --api.
func resolveAPIURL(flagValue string, changed bool) string {
	if changed && flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(apiURLEnv); env != "" {
		return env
	}
	return defaultAPIURL
}

func runDemo(ctx context.Context, opts runOptions, out io.Writer, logger zerolog.Logger) error {
	file, err := demo.LoadFile(opts.file)
	if err != nil {
		return err
	}

	client := demo.NewAPIClient(opts.api, nil)
	widget := demo.NewWidget(client, logger)

	if err := widget.SelectFile(file); err != nil {
		if errors.Is(err, demo.ErrNotPDF) {
			fmt.Fprintln(out, demo.AlertNotPDF)
		}
		return err
	}

	view := widget.View()
	fmt.Fprintf(out, "%s  %s  Uploading...\n", view.FileName, view.FileSize)

	if err := widget.Advance(ctx); err != nil {
		render(out, widget.View())
		return err
	}
	render(out, widget.View())

	if err := widget.SetQuery(opts.query); err != nil {
		return err
	}

	fmt.Fprintf(out, "Query: %s\nGenerating...\n", opts.query)
	if err := widget.Generate(ctx); err != nil {
		render(out, widget.View())
		return err
	}

	view = widget.View()
	render(out, view)

	if opts.out == "" || view.Result == nil {
		return nil
	}

	paths, err := client.Download(ctx, *view.Result, opts.out)
	for _, p := range paths {
		fmt.Fprintf(out, "Saved %s\n", p)
	}
	return err
}

func render(out io.Writer, v demo.View) {
	if v.FileName != "" {
		fmt.Fprintf(out, "%s  %s  %s\n", v.FileName, v.FileSize, v.Status)
	}
	if v.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", v.Error)
	}
	if v.Result != nil {
		fmt.Fprintf(out, "\n%s\n\nImage: %s\n", v.Result.Text, v.ImageURL)
	}
}
