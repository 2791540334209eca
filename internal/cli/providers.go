package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/user/quotabar/internal/provider"
)

func init() {
	providersCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List known providers and their fetch strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		descriptors := a.reg.All()

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			type entry struct {
				ID          provider.ProviderID     `json:"id"`
				DisplayName string                  `json:"display_name"`
				Strategies  []provider.StrategyKind `json:"strategies"`
				Credentials []bool                  `json:"credentials_present"`
			}
			entries := make([]entry, 0, len(descriptors))
			for _, d := range descriptors {
				e := entry{ID: d.ID, DisplayName: d.DisplayName}
				for _, cfg := range d.Strategies {
					e.Strategies = append(e.Strategies, cfg.Kind)
					e.Credentials = append(e.Credentials, hasCredential(a, d.ID, cfg.Kind))
				}
				entries = append(entries, e)
			}
			return PrintJSON(entries)
		}

		cellStyle := lipgloss.NewStyle().Padding(0, 1)
		t := table.New().
			Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
			Headers("ID", "NAME", "STRATEGIES")

		for _, d := range descriptors {
			var kinds []string
			for _, cfg := range d.Strategies {
				label := string(cfg.Kind)
				if hasCredential(a, d.ID, cfg.Kind) {
					label += " *"
				}
				kinds = append(kinds, label)
			}
			t.Row(string(d.ID), d.DisplayName, strings.Join(kinds, ", "))
		}

		fmt.Println(t)
		fmt.Println("* credential stored")
		return nil
	},
}

func hasCredential(a *app, id provider.ProviderID, kind provider.StrategyKind) bool {
	credKind := kind.Credential()
	if credKind == "" {
		// Strategy needs no stored secret (cli, local_db).
		return false
	}
	_, err := a.store.Get(id, credKind)
	return err == nil
}
