package main

import (
	"context"
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-cli/internal/ingest"
	"github.com/sells-group/crm-cli/internal/settings"
	"github.com/sells-group/crm-cli/internal/store"
)

var (
	importPath       string
	importSheet      string
	importReportPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import settings and record batches",
}

var importSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Import the settings table from CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rows, err := readSettingsRows(importPath)
		if err != nil {
			return err
		}

		snap, report, err := settings.Normalize(rows)
		if err != nil {
			return eris.Wrapf(err, "normalize settings from %s", importPath)
		}

		if importReportPath != "" {
			if err := writeReport(report, importReportPath); err != nil {
				return err
			}
		}
		for _, issue := range report.Errors {
			zap.L().Error("settings row rejected", zap.Int("row", issue.Row), zap.String("field", issue.Field), zap.String("message", issue.Message))
		}
		for _, issue := range report.Warnings {
			zap.L().Warn("settings row warning", zap.Int("row", issue.Row), zap.String("field", issue.Field), zap.String("message", issue.Message))
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// A snapshot replaces the previous one wholesale; a scoring pass
		// never sees a partially patched table.
		if err := st.SaveSettings(ctx, snap); err != nil {
			return eris.Wrap(err, "save settings snapshot")
		}
		if err := st.RecordImportRun(ctx, store.ImportRun{
			Kind:         "settings",
			Source:       importPath,
			ImportedRows: report.ImportedRows,
			ErrorCount:   len(report.Errors),
			WarningCount: len(report.Warnings),
		}); err != nil {
			return eris.Wrap(err, "record import run")
		}

		zap.L().Info("settings import complete",
			zap.String("source", importPath),
			zap.Int("imported", report.ImportedRows),
			zap.Int("errors", len(report.Errors)),
			zap.Int("warnings", len(report.Warnings)),
			zap.Bool("ok", report.OK()),
		)
		return nil
	},
}

var importProspectsCmd = &cobra.Command{
	Use:   "prospects",
	Short: "Import prospect rows from CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return importRecords(cmd.Context(), "prospects")
	},
}

var importOutreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Import outreach log rows from CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return importRecords(cmd.Context(), "outreach")
	},
}

// readSettingsRows dispatches on file extension.
func readSettingsRows(path string) ([]settings.Row, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		sheet := importSheet
		if sheet == "" {
			sheet = cfg.Import.Sheet
		}
		return settings.ReadXLSX(path, sheet)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open settings file %s", path)
	}
	defer f.Close() //nolint:errcheck
	return settings.ReadCSV(f)
}

func writeReport(report *settings.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create report file %s", path)
	}
	defer f.Close() //nolint:errcheck
	return report.WriteYAML(f)
}

// importRecords reads a record CSV through the header adapter and
// persists each row. Rows that fail to parse are logged and skipped;
// the batch continues.
func importRecords(ctx context.Context, kind string) error {
	f, err := os.Open(importPath)
	if err != nil {
		return eris.Wrapf(err, "open record file %s", importPath)
	}
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return eris.Wrap(err, "read record csv")
	}
	if len(records) < 2 {
		return eris.Errorf("%s is empty or header-only", importPath)
	}

	adapter := ingest.NewRowAdapter(records[0])
	if !adapter.Has(ingest.FieldCompany) {
		return eris.Errorf("%s has no company column", importPath)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	imported, skipped := 0, 0
	for i, row := range records[1:] {
		var rowErr error
		switch kind {
		case "outreach":
			o, err := adapter.Outreach(row)
			if err == nil {
				_, err = st.AddOutreach(ctx, o)
			}
			rowErr = err
		default:
			p := adapter.Prospect(row)
			if p.Company == "" {
				rowErr = eris.New("missing company")
			} else {
				_, rowErr = st.UpsertProspect(ctx, p)
			}
		}

		if rowErr != nil {
			zap.L().Warn("record row skipped", zap.Int("row", i+2), zap.Error(rowErr))
			skipped++
			continue
		}
		imported++
	}

	if err := st.RecordImportRun(ctx, store.ImportRun{
		Kind:         kind,
		Source:       importPath,
		ImportedRows: imported,
		ErrorCount:   skipped,
	}); err != nil {
		return eris.Wrap(err, "record import run")
	}

	zap.L().Info("record import complete",
		zap.String("kind", kind),
		zap.String("source", importPath),
		zap.Int("imported", imported),
		zap.Int("skipped", skipped),
	)
	return nil
}

func init() {
	importCmd.PersistentFlags().StringVar(&importPath, "file", "", "path to CSV or XLSX file (required)")
	importCmd.PersistentFlags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importSettingsCmd.Flags().StringVar(&importReportPath, "report", "", "write the validation report as YAML to this path")
	_ = importCmd.MarkPersistentFlagRequired("file")

	importCmd.AddCommand(importSettingsCmd)
	importCmd.AddCommand(importProspectsCmd)
	importCmd.AddCommand(importOutreachCmd)
	rootCmd.AddCommand(importCmd)
}
