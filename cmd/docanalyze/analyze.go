package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/app"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/config"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/handlers"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
	"github.com/BerylCAtieno/legal-document-analyzer/internal/utils"
)

func analyzeCmd(logLevel *string) *cobra.Command {
	var language string
	var contentType string

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Extract, analyze and optionally translate one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			a, err := buildApp(cmd, *logLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			filename := filepath.Base(path)
			resp, err := a.Service.AnalyzeDocument(cmd.Context(), &models.AnalyzeRequest{
				File: &models.UploadedFile{
					Content:     content,
					ContentType: handlers.DetermineContentType(filename, contentType),
					Filename:    filename,
					Size:        int64(len(content)),
				},
				Language: language,
			})
			if err != nil {
				if appErr, ok := utils.AsAppError(err); ok {
					return fmt.Errorf("%s", appErr.Message)
				}
				return err
			}

			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "en", "output language code")
	cmd.Flags().StringVarP(&contentType, "type", "t", "", "MIME type of the file (default: inferred from the extension)")
	return cmd
}

func languagesCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported output languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, *logLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			languages, err := a.Service.SupportedLanguages(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"languages": languages})
		},
	}
}

func supportedTypesCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "supported-types",
		Short: "List the accepted document types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, *logLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			return printJSON(cmd.OutOrStdout(), map[string]any{"supportedTypes": a.Service.SupportedTypes()})
		},
	}
}

// buildApp wires the pipeline without the server-only side channels.
func buildApp(cmd *cobra.Command, logLevel string) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := utils.NewLoggerWithWriter(logLevel, cmd.ErrOrStderr())

	return app.Build(cmd.Context(), cfg, logger, app.Options{
		DisableHistory:   true,
		DisableArchive:   true,
		DisableRateLimit: true,
	})
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
