package cmd

import (
	"context"
	"errors"

	"rental-directory/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on the catalog, storage and schema",
	Long:  `Checks catalog consistency, the storage folder structure, archived imports and the database schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return cmd.Help()
		}
		return runIntegrityChecks(cmd.Context(), checkAll)
	},
}

// catalogCheckCmd represents the integrity catalog command
var catalogCheckCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Check catalog consistency",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), checkCatalog)
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix folder structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), checkStructure)
	},
}

// archivesCmd represents the integrity archives command
var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "Check archived import payloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), checkArchives)
	},
}

// serverCmd represents the integrity server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Check integrity of the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), checkServer)
	},
}

type checkSet int

const (
	checkCatalog checkSet = 1 << iota
	checkStructure
	checkArchives
	checkServer

	checkAll = checkCatalog | checkStructure | checkArchives | checkServer
)

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(catalogCheckCmd, structureCmd, archivesCmd, serverCmd)

	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Fix missing folders")
}

func runIntegrityChecks(ctx context.Context, set checkSet) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.integrity
	logg := a.logger
	only := set != checkAll

	if set&checkCatalog != 0 {
		logg.Info("Checking catalog consistency...")
		report, err := svc.CheckCatalog(ctx)
		if err != nil {
			return err
		}
		if report.Matched {
			logg.Info("Catalog is consistent.",
				zap.Int("manufacturers", report.Manufacturers),
				zap.Int("products", report.Products),
				zap.Int("companies", report.Companies),
			)
		} else {
			logg.Warn("Catalog inconsistencies found", zap.Int("issues", len(report.Issues)))
			for _, issue := range report.Issues {
				logg.Warn("Issue", zap.String("entity", issue.Entity), zap.String("id", issue.ID), zap.String("problem", issue.Problem))
			}
		}
	}

	if set&checkStructure != 0 {
		logg.Info("Checking folder structure...")
		missing, err := svc.CheckStructure(ctx)
		switch {
		case errors.Is(err, integrity.ErrStorageDisabled) && !only:
			logg.Info("Object storage disabled, skipping structure check.")
		case err != nil:
			return err
		case len(missing) == 0:
			logg.Info("Structure is intact.")
		default:
			logg.Warn("Missing folders detected", zap.Strings("missing", missing))
			if only && fixFlag {
				logg.Info("Fixing missing folders...")
				if err := svc.FixStructure(ctx, missing); err != nil {
					return err
				}
				logg.Info("Structure fixed successfully.")
			} else if only {
				logg.Info("Run with --fix to create missing folders.")
			}
		}
	}

	if set&checkArchives != 0 {
		logg.Info("Checking archived imports...")
		report, err := svc.CheckArchives(ctx)
		switch {
		case errors.Is(err, integrity.ErrStorageDisabled) && !only:
			logg.Info("Object storage disabled, skipping archive check.")
		case err != nil:
			return err
		case len(report.Unexpected) == 0:
			logg.Info("Archives follow the expected layout.", zap.Int("total", report.Total))
		default:
			logg.Warn("Unexpected archive objects", zap.Int("total", report.Total), zap.Strings("keys", report.Unexpected))
		}
	}

	if set&checkServer != 0 {
		logg.Info("Checking server schema integrity...")
		report, err := svc.CheckServer()
		if err != nil {
			return err
		}
		if report.Matched {
			logg.Info("Server schema matches the catalog models.", zap.String("driver", report.Driver))
		} else {
			logg.Warn("Server schema mismatches found", zap.String("driver", report.Driver))
			for table, tblReport := range report.Tables {
				if tblReport.Status == "ok" {
					continue
				}
				if len(tblReport.MissingColumns) > 0 {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tblReport.MissingColumns))
				}
				if len(tblReport.TypeMismatches) > 0 {
					logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tblReport.TypeMismatches))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
	}

	return nil
}
