package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	walletstatedb "github.com/Maphikza/xrpl-wallet-custody/internal/database"
	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Create, import and inspect stored wallets",
}

var (
	walletLabel   string
	walletKeyType string
	showCopy      bool
	showReveal    bool
)

func init() {
	walletCmd.PersistentFlags().StringVar(&walletLabel, "label", "", "label for the new wallet")
	generateWalletCmd.Flags().StringVar(&walletKeyType, "key-type", string(addresscodec.KeyTypeEd25519), "ed25519, secp256k1 or mnemonic")
	showWalletCmd.Flags().BoolVar(&showCopy, "copy", false, "copy the address to the clipboard")
	showWalletCmd.Flags().BoolVar(&showReveal, "reveal-seed", false, "print the seed or mnemonic")

	importWalletCmd.AddCommand(importSeedCmd, importMnemonicCmd, importKeysCmd)
	walletCmd.AddCommand(generateWalletCmd, importWalletCmd, listWalletsCmd, showWalletCmd)
}

var generateWalletCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new wallet",
	Long: `Generate a new wallet and store it. With --key-type mnemonic a 24 word
BIP-39 phrase is generated and printed once; write it down.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService()
		if err != nil {
			return err
		}
		defer closeStore()

		var (
			rec      *walletstatedb.WalletRecord
			mnemonic string
		)
		switch walletKeyType {
		case "mnemonic":
			rec, mnemonic, err = svc.GenerateMnemonic(cmd.Context(), walletLabel)
		case string(addresscodec.KeyTypeEd25519), string(addresscodec.KeyTypeSecp256k1):
			rec, err = svc.Generate(cmd.Context(), walletLabel, addresscodec.KeyType(walletKeyType))
		default:
			return fmt.Errorf("unknown key type %q", walletKeyType)
		}
		if err != nil {
			return fmt.Errorf("error generating wallet: %w", err)
		}

		view := viewOf(rec)
		view.Seed = mnemonic
		return printJSON(view)
	},
}

var importWalletCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an existing wallet",
}

var stdin = bufio.NewReader(os.Stdin)

// secret arguments are read from stdin so they stay out of shell history
func readSecretLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("error reading input: %v", err)
	}
	return strings.TrimSpace(line), nil
}

var importSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import a family seed (read from stdin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := readSecretLine("Enter the family seed: ")
		if err != nil {
			return err
		}

		svc, closeStore, err := openService()
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := svc.ImportSeed(cmd.Context(), walletLabel, seed)
		if err != nil {
			return fmt.Errorf("error importing wallet: %w", err)
		}
		return printJSON(viewOf(rec))
	},
}

var importMnemonicCmd = &cobra.Command{
	Use:   "mnemonic",
	Short: "Import a BIP-39 mnemonic (read from stdin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mnemonic, err := readSecretLine("Enter your seed phrase: ")
		if err != nil {
			return err
		}

		svc, closeStore, err := openService()
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := svc.ImportMnemonic(cmd.Context(), walletLabel, mnemonic)
		if err != nil {
			return fmt.Errorf("error importing wallet: %w", err)
		}
		return printJSON(viewOf(rec))
	},
}

var importKeysCmd = &cobra.Command{
	Use:   "keys [address] [public-key]",
	Short: "Import a key pair; seed and private key are read from stdin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := readSecretLine("Enter the seed: ")
		if err != nil {
			return err
		}
		priv, err := readSecretLine("Enter the private key: ")
		if err != nil {
			return err
		}

		svc, closeStore, err := openService()
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := svc.ImportKeys(cmd.Context(), walletLabel, args[0], seed, priv, args[1])
		if err != nil {
			return fmt.Errorf("error importing wallet: %w", err)
		}
		return printJSON(viewOf(rec))
	},
}

var listWalletsCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored wallets in creation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService()
		if err != nil {
			return err
		}
		defer closeStore()

		records, err := svc.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing wallets: %w", err)
		}

		views := make([]walletView, 0, len(records))
		for i := range records {
			views = append(views, viewOf(&records[i]))
		}
		return printJSON(views)
	},
}

var showWalletCmd = &cobra.Command{
	Use:   "show [id-or-address]",
	Short: "Show one stored wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService()
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading wallet: %w", err)
		}

		if showCopy {
			if err := clipboard.WriteAll(rec.Address); err != nil {
				return fmt.Errorf("error copying address: %w", err)
			}
			fmt.Fprintln(os.Stderr, "Address copied to clipboard.")
		}

		view := viewOf(rec)
		if showReveal {
			view.Seed = rec.Seed
		}
		return printJSON(view)
	},
}
