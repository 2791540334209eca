package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/user/quotabar/internal/provider"
)

func init() {
	queryCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	queryCmd.Flags().StringP("provider", "p", "", "Fetch a single provider")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Fetch and display provider usage",
	Long:  `Fetches usage, quota and spend from the enabled providers and prints a table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		filter, _ := cmd.Flags().GetString("provider")

		ctx := context.Background()
		var results map[provider.ProviderID]provider.FetchResult
		if filter != "" {
			res := a.orch.FetchOne(ctx, provider.ProviderID(filter))
			results = map[provider.ProviderID]provider.FetchResult{res.ProviderID: res}
		} else {
			results = a.orch.FetchAll(ctx, a.cfg.ProviderIDs())
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return PrintJSON(results)
		}
		return PrintTable(results)
	},
}
