package keys

import (
	"fmt"

	"github.com/chapool/subflow-agent/internal/keys"
	"github.com/spf13/cobra"
)

const pathFlag = "path"

func newNew() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generates a new executor mnemonic",
		Long: `Generates a 24 word mnemonic and prints it together with the address derived at --path.

Store the mnemonic offline, encrypt it with "keys encrypt" for use by the agent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(pathFlag)
			if err != nil {
				return err
			}

			mnemonic, err := keys.NewMnemonic()
			if err != nil {
				return err
			}

			cred, err := keys.FromMnemonic(mnemonic, "", path)
			if err != nil {
				return err
			}
			defer cred.Destroy()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mnemonic: %s\n", mnemonic)
			fmt.Fprintf(out, "path:     %s\n", path)
			fmt.Fprintf(out, "address:  %s\n", cred.Address().Hex())

			return nil
		},
	}

	cmd.Flags().String(pathFlag, keys.DefaultDerivationPath, "BIP44 derivation path of the executor account")

	return cmd
}
