package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	sdkcrypto "github.com/todoledger/sdk-go/pkg/crypto"
)

// KeysOptions holds flags for the keys commands.
type KeysOptions struct {
	*RootOptions
	MnemonicFile string
}

// NewKeysCommand creates the keys command group.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeysOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing keys in the keyring",
	}

	importCmd := &cobra.Command{
		Use:   "import <name>",
		Short: "Import an EVM account from a BIP-39 mnemonic file",
		Long: `Derive the first EVM account (m/44'/60'/0'/0/0) from a mnemonic and store it in the keyring.

Example:
  todoledger keys import dev --mnemonic-file ./dev.mnemonic`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysImport(cmd, opts, args[0])
		},
	}
	importCmd.Flags().StringVar(&opts.MnemonicFile, "mnemonic-file", "", "file holding the mnemonic (required)")
	_ = importCmd.MarkFlagRequired("mnemonic-file")

	showCmd := &cobra.Command{
		Use:           "show <name>",
		Short:         "Print the EVM address of a key",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysShow(cmd, opts, args[0])
		},
	}

	cmd.AddCommand(importCmd, showCmd)
	return cmd
}

func (o *KeysOptions) keyringParams() (sdkcrypto.KeyringParams, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return sdkcrypto.KeyringParams{}, err
	}
	return sdkcrypto.KeyringParams{
		AppName: cfg.Keyring.AppName,
		Backend: cfg.Keyring.Backend,
		Dir:     cfg.Keyring.Dir,
	}, nil
}

func runKeysImport(cmd *cobra.Command, opts *KeysOptions, name string) error {
	params, err := opts.keyringParams()
	if err != nil {
		return err
	}
	params.Input = cmd.InOrStdin()
	kr, err := sdkcrypto.NewKeyring(params)
	if err != nil {
		return fmt.Errorf("open keyring: %w", err)
	}
	addr, err := sdkcrypto.ImportKeyFromMnemonicFile(kr, name, opts.MnemonicFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, addr.Hex())
	return nil
}

func runKeysShow(cmd *cobra.Command, opts *KeysOptions, name string) error {
	params, err := opts.keyringParams()
	if err != nil {
		return err
	}
	params.Input = cmd.InOrStdin()
	kr, err := sdkcrypto.NewKeyring(params)
	if err != nil {
		return fmt.Errorf("open keyring: %w", err)
	}
	addr, err := sdkcrypto.AddressFromKey(kr, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, addr.Hex())
	return nil
}
