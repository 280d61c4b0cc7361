package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"rental-directory/core/metrics"
	"rental-directory/feature/importer"
	"rental-directory/feature/importer/parser"
	"rental-directory/feature/importer/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importObject          string
	importFormat          string
	importCreateMissing   bool
	importDryRun          bool
	importResolutionsFile string
	importSessionID       string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import rental companies from a CSV or JSON file",
	Long: `Imports rental companies, their inventory and any missing manufacturers/products.

Examples:
  # Import a local file, reporting missing manufacturers
  import companies.csv

  # Create missing manufacturers and products automatically
  import companies.json --create-missing

  # Resolve missing entities from a file
  import companies.csv --resolutions resolutions.json

  # Import a file previously uploaded to the bucket
  import --object uploads/companies.csv

  # Resume a suspended import (redis session backend)
  import --session 2f0c... --resolutions resolutions.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && importObject == "" && importSessionID == "" {
			return errors.New("a file, --object or --session is required")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		resolutions, err := loadResolutions(importResolutionsFile)
		if err != nil {
			return err
		}

		opts := reconcile.Options{CreateMissingEntities: importCreateMissing, DryRun: importDryRun}

		var resp *importer.Response
		switch {
		case importSessionID != "":
			resp, err = a.importer.Resume(ctx, importSessionID, resolutions)
		case importObject != "":
			resp, err = a.importer.ImportObject(ctx, importObject, importFormat, opts)
		default:
			var data []byte
			data, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			format := importFormat
			if format == "" {
				format, _ = parser.DetectFormat(args[0])
			}
			resp, err = a.importer.Import(ctx, importer.Request{Data: data, Format: format, Options: opts})
		}
		if err != nil {
			return err
		}

		// Resolutions given with a new import apply to the session it opens.
		if resp.Outcome == metrics.OutcomeMissing && len(resolutions) > 0 && importSessionID == "" {
			a.logger.Info("Applying resolutions", zap.String("session_id", resp.ImportSessionID))
			resp, err = a.importer.Resume(ctx, resp.ImportSessionID, resolutions)
			if err != nil {
				return err
			}
		}

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		fmt.Println(string(out))

		switch resp.Outcome {
		case metrics.OutcomeSuccess, metrics.OutcomeDryRun:
			a.logger.Info("Import completed",
				zap.String("outcome", resp.Outcome),
				zap.Int("companies_created", resp.Created.RentalCompanies),
				zap.Int("companies_updated", resp.Updated.RentalCompanies),
			)
			return nil
		case metrics.OutcomeMissing:
			a.logger.Warn("Import suspended, missing entities must be resolved",
				zap.String("session_id", resp.ImportSessionID),
				zap.Int("missing", len(resp.MissingEntities)),
			)
			return nil
		default:
			return fmt.Errorf("import failed (%s) with %d errors", resp.Outcome, len(resp.Errors))
		}
	},
}

// loadResolutions reads a {"<id>": {"action": ...}} file.
func loadResolutions(path string) (map[string]reconcile.Resolution, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resolutions: %w", err)
	}
	var resolutions map[string]reconcile.Resolution
	if err := json.Unmarshal(data, &resolutions); err != nil {
		return nil, fmt.Errorf("failed to parse resolutions: %w", err)
	}
	return resolutions, nil
}

func init() {
	RootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importObject, "object", "", "Import an object from the storage bucket")
	importCmd.Flags().StringVar(&importFormat, "format", "", "Payload format (csv or json), detected when empty")
	importCmd.Flags().BoolVar(&importCreateMissing, "create-missing", false, "Create missing manufacturers and products")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Plan the import without writing")
	importCmd.Flags().StringVar(&importResolutionsFile, "resolutions", "", "JSON file with resolutions keyed by manufacturer or product id")
	importCmd.Flags().StringVar(&importSessionID, "session", "", "Resume a suspended import session")
}
