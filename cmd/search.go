package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"rental-directory/feature/search"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	searchText          string
	searchManufacturers string
	searchProducts      string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List rental companies matching a filter selection",
	Long: `Runs the public company search against the catalog.

Examples:
  search --q berlin
  search --manufacturers 559 --products 559-1065-2012`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		query := url.Values{}
		if searchText != "" {
			query.Set(search.ParamText, searchText)
		}
		if searchManufacturers != "" {
			query.Set(search.ParamManufacturers, searchManufacturers)
		}
		if searchProducts != "" {
			query.Set(search.ParamProducts, searchProducts)
		}

		result, err := a.search.Companies(ctx, query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(out))

		a.logger.Info("Search completed", zap.Int("companies", len(result.Companies)), zap.String("query", result.Query))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchText, "q", "", "Free text matched against name, city, address and inventory")
	searchCmd.Flags().StringVar(&searchManufacturers, "manufacturers", "", "Comma separated manufacturer ids")
	searchCmd.Flags().StringVar(&searchProducts, "products", "", "Comma separated product ids")
}
