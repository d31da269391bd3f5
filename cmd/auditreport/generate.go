package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"auditreport/internal/cli"
	"auditreport/internal/core"
	"auditreport/internal/report"
)

// reportRenderer is the renderer used by the generate command. nil selects
// the .docx renderer.
var reportRenderer report.Renderer

func newGenerateCmd() *cobra.Command {
	var dataPath, outPath, templatePath string
	cmd := &cobra.Command{
		Use:   "generate --data <payload.json>",
		Short: "Render a report document from a JSON payload without the API",
		Long: `generate renders the report template offline. The payload is either the
form data object itself or a request body of the form {"data": {...}}.
Use "-" to read it from stdin.`,
		Example: `  auditreport generate --data payload.json --out 审核报告.docx
  cat payload.json | auditreport generate --data - --template ./report_template.docx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg)
			if templatePath == "" {
				templatePath = cfg.TemplatePath
			}

			data, err := readPayload(cmd.InOrStdin(), dataPath)
			if err != nil {
				return err
			}

			outDir := cfg.TmpDir
			if outPath != "" {
				outDir = filepath.Dir(outPath)
			}
			generator := report.NewGenerator(templatePath, outDir, reportRenderer)
			path, err := generator.Generate(cmd.Context(), data, "report")
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := os.Rename(path, outPath); err != nil {
					os.Remove(path)
					return fmt.Errorf("move report to %s: %w", outPath, err)
				}
				path = outPath
			}

			logger.Info("Report generated", "path", path, "template_path", templatePath)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", `JSON payload file, or "-" for stdin`)
	cmd.Flags().StringVar(&outPath, "out", "", "output .docx path (default: a new file in TMP_DIR)")
	cmd.Flags().StringVar(&templatePath, "template", "", "report template (default: TEMPLATE_PATH)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func readPayload(stdin io.Reader, path string) (core.ReportData, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var data core.ReportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse payload %s: %w", path, err)
	}
	if data == nil {
		return nil, fmt.Errorf("parse payload %s: expected a JSON object", path)
	}
	if inner, ok := data["data"].(map[string]any); ok && len(data) == 1 {
		data = core.ReportData(inner)
	}
	return data, nil
}
