package keys

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chapool/subflow-agent/internal/keys"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	outFlag   = "out"
	lightFlag = "light"
)

func newEncrypt() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypts a mnemonic into a keystore file",
		Long: `Prompts for a mnemonic and a password and writes a scrypt encrypted keystore,
to be referenced by SERVER_EXECUTOR_KEYSTORE_FILE.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := cmd.Flags().GetString(outFlag)
			if err != nil {
				return err
			}

			light, err := cmd.Flags().GetBool(lightFlag)
			if err != nil {
				return err
			}

			return runEncrypt(cmd, newPrompter(os.Stdin, cmd.ErrOrStderr()), out, light)
		},
	}

	cmd.Flags().StringP(outFlag, "o", "", "keystore file to write, stdout when empty")
	cmd.Flags().Bool(lightFlag, false, "use the light scrypt cost, only for tests")

	return cmd
}

func runEncrypt(cmd *cobra.Command, p *prompter, out string, light bool) error {
	stderr := cmd.ErrOrStderr()

	mnemonic, err := p.ask("Mnemonic: ")
	if err != nil {
		return err
	}

	password, err := p.ask("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	confirm, err := p.ask("Repeat password: ")
	if err != nil {
		return err
	}
	if confirm != password {
		return errors.New("passwords do not match")
	}

	// derive once so a typo in the mnemonic fails here and not at agent startup
	cred, err := keys.FromMnemonic(mnemonic, "", keys.DefaultDerivationPath)
	if err != nil {
		return err
	}
	address := cred.Address().Hex()
	cred.Destroy()

	params := keys.StandardScryptParams()
	if light {
		params = keys.LightScryptParams()
	}

	ks, err := keys.EncryptMnemonic(mnemonic, password, params)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal keystore")
	}

	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	} else if err := os.WriteFile(out, b, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write keystore to %s", out)
	}

	fmt.Fprintf(stderr, "Encrypted mnemonic of %s (%s)\n", address, keys.DefaultDerivationPath)

	return nil
}
