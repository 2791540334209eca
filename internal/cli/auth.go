package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/quotabar/internal/credstore"
	"github.com/user/quotabar/internal/provider"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored provider credentials",
}

func init() {
	authSetCmd.Flags().Duration("expires-in", 0, "Mark the secret as expiring after this duration")
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authDeleteCmd)
}

var authSetCmd = &cobra.Command{
	Use:   "set <provider> <kind>",
	Short: "Store a credential for a provider",
	Long: `Stores a secret for a provider. The secret is read from stdin so it
never appears in shell history or the process list.

Kinds: api-key, oauth-token, session-cookie.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		id := provider.ProviderID(args[0])
		kind, err := credentialKind(args[1])
		if err != nil {
			return err
		}
		if _, ok := a.reg.Lookup(id); !ok {
			return fmt.Errorf("unknown provider %q", id)
		}

		fmt.Fprintf(os.Stderr, "Paste the %s for %s and press enter: ", kind, id)
		reader := bufio.NewReader(os.Stdin)
		secret, err := reader.ReadString('\n')
		if err != nil && secret == "" {
			return fmt.Errorf("reading secret: %w", err)
		}
		secret = strings.TrimSpace(secret)
		if secret == "" {
			return fmt.Errorf("empty secret")
		}

		cred := credstore.Credential{ProviderID: id, Kind: kind, Secret: secret}
		if expiresIn, _ := cmd.Flags().GetDuration("expires-in"); expiresIn > 0 {
			cred.ExpiresAt = time.Now().Add(expiresIn)
		}

		if err := a.store.Put(cred); err != nil {
			return fmt.Errorf("storing credential: %w", err)
		}
		fmt.Printf("Stored %s for %s.\n", kind, id)
		return nil
	},
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete <provider> <kind>",
	Short: "Remove a stored credential",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		id := provider.ProviderID(args[0])
		kind, err := credentialKind(args[1])
		if err != nil {
			return err
		}

		if err := a.store.Delete(id, kind); err != nil {
			return fmt.Errorf("deleting credential: %w", err)
		}
		fmt.Printf("Removed %s for %s.\n", kind, id)
		return nil
	},
}

func credentialKind(s string) (provider.CredentialKind, error) {
	switch provider.CredentialKind(s) {
	case provider.CredentialAPIKey, provider.CredentialOAuthToken, provider.CredentialSessionCookie:
		return provider.CredentialKind(s), nil
	}
	return "", fmt.Errorf("unknown credential kind %q (want api-key, oauth-token or session-cookie)", s)
}
