package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
	"github.com/Maphikza/xrpl-wallet-custody/lib/transaction"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Build transactions and follow submitted ones",
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an unsigned transaction and print its fields",
	Long: `Build an unsigned transaction for a wallet, filling in the account
sequence, the fee and the last ledger bound from the network. Sign the
printed fields with a binary codec, then hand the blob to "tx submit-blob".`,
}

var (
	buildFrom string

	payTo      string
	payAmount  string
	payTag     uint32
	payIssued  string
	allowSelf  bool
	trustLimit string
	trustIssue string
	mintTaxon  int64
	mintURI    string
	mintFee    uint16
	mintFlags  uint32
	setFlag    uint32
	clearFlag  uint32

	blobAccount    string
	blobSequence   uint32
	blobLastLedger uint32
	statusLast     uint32
)

// resolveAccount accepts a classic address or a stored wallet reference
func resolveAccount(ctx context.Context, ref string) (string, error) {
	if addresscodec.IsValidClassicAddress(ref) {
		return ref, nil
	}
	svc, closeStore, err := openService()
	if err != nil {
		return "", err
	}
	defer closeStore()

	rec, err := svc.Get(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("error loading wallet %q: %w", ref, err)
	}
	return rec.Address, nil
}

func buildAndPrint(cmd *cobra.Command, intent transaction.Intent) error {
	ctx := cmd.Context()
	account, err := resolveAccount(ctx, buildFrom)
	if err != nil {
		return err
	}

	client := newLedgerClient(cfg)
	state, err := client.AccountInfo(ctx, account)
	if err != nil {
		return fmt.Errorf("error reading account %s: %w", account, err)
	}

	unsigned, err := newBuilder(cfg, client).Build(ctx, intent, account, state.Sequence, feePolicy(cfg, client))
	if err != nil {
		return err
	}
	return printJSON(unsigned.Fields())
}

var buildPaymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Pay XRP (--amount in XRP) or an issued currency (--issued CUR/issuer)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := transaction.Payment{Destination: payTo, AllowSelf: allowSelf}
		if cmd.Flags().Changed("tag") {
			tag := payTag
			p.DestinationTag = &tag
		}

		if payIssued != "" {
			issue, err := parseIssue(payIssued)
			if err != nil {
				return err
			}
			p.Amount = transaction.Issued(issue.Currency, issue.Issuer, payAmount)
		} else {
			drops, err := transaction.XRPToDrops(payAmount)
			if err != nil {
				return err
			}
			p.Amount = transaction.XRP(drops)
		}
		return buildAndPrint(cmd, p)
	},
}

var buildTrustSetCmd = &cobra.Command{
	Use:   "trust-set",
	Short: "Create or change a trust line (--issue CUR/issuer --limit value)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		issue, err := parseIssue(trustIssue)
		if err != nil {
			return err
		}
		return buildAndPrint(cmd, transaction.TrustSet{Currency: issue.Currency, Issuer: issue.Issuer, Limit: trustLimit})
	},
}

var buildMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint an NFT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := transaction.NewTokenMint(mintTaxon, mintURI)
		m.TransferFee = mintFee
		if cmd.Flags().Changed("flags") {
			m.Flags = mintFlags
		}
		return buildAndPrint(cmd, m)
	},
}

var buildAccountSetCmd = &cobra.Command{
	Use:   "account-set",
	Short: "Set or clear one account flag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var change transaction.AccountSettingsChange
		if cmd.Flags().Changed("set-flag") {
			f := setFlag
			change.SetFlag = &f
		}
		if cmd.Flags().Changed("clear-flag") {
			f := clearFlag
			change.ClearFlag = &f
		}
		return buildAndPrint(cmd, change)
	},
}

var submitBlobCmd = &cobra.Command{
	Use:   "submit-blob [hex-blob]",
	Short: "Submit a signed blob and wait for its final outcome",
	Long: `Submit a signed transaction blob and follow it until it is validated,
rejected or expired. --account, --sequence and --last-ledger must match the
signed fields; without --last-ledger the wait can only end in a timeout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signed, err := transaction.ParseSigned(args[0], blobAccount, blobSequence, blobLastLedger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Submit.ConfirmTimeout)
		defer cancel()

		client := newLedgerClient(cfg)
		out, err := newSubmitter(cfg, client).SubmitSigned(ctx, signed)
		if err != nil {
			return err
		}
		return printJSON(outcomeOf(out))
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [hash]",
	Short: "Check once whether a transaction validated or expired",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newLedgerClient(cfg)
		out, err := newSubmitter(cfg, client).Status(cmd.Context(), args[0], statusLast)
		if err != nil {
			return err
		}
		return printJSON(outcomeOf(out))
	},
}

func init() {
	buildCmd.PersistentFlags().StringVar(&buildFrom, "from", "", "source account: address, wallet ID or wallet address")
	buildCmd.MarkPersistentFlagRequired("from")

	buildPaymentCmd.Flags().StringVar(&payTo, "to", "", "destination address")
	buildPaymentCmd.Flags().StringVar(&payAmount, "amount", "", "amount; XRP unless --issued is set")
	buildPaymentCmd.Flags().Uint32Var(&payTag, "tag", 0, "destination tag")
	buildPaymentCmd.Flags().StringVar(&payIssued, "issued", "", "issued currency as CUR/issuer")
	buildPaymentCmd.Flags().BoolVar(&allowSelf, "allow-self", false, "allow paying the source account")
	buildPaymentCmd.MarkFlagRequired("to")
	buildPaymentCmd.MarkFlagRequired("amount")

	buildTrustSetCmd.Flags().StringVar(&trustIssue, "issue", "", "currency and issuer as CUR/issuer")
	buildTrustSetCmd.Flags().StringVar(&trustLimit, "limit", "", "trust line limit")
	buildTrustSetCmd.MarkFlagRequired("issue")
	buildTrustSetCmd.MarkFlagRequired("limit")

	buildMintCmd.Flags().Int64Var(&mintTaxon, "taxon", 0, "NFT taxon")
	buildMintCmd.Flags().StringVar(&mintURI, "uri", "", "NFT URI")
	buildMintCmd.Flags().Uint16Var(&mintFee, "transfer-fee", 0, "transfer fee in 1/100000 units")
	buildMintCmd.Flags().Uint32Var(&mintFlags, "flags", 0, "NFTokenMint flags (default transferable)")

	buildAccountSetCmd.Flags().Uint32Var(&setFlag, "set-flag", 0, "asf flag to set")
	buildAccountSetCmd.Flags().Uint32Var(&clearFlag, "clear-flag", 0, "asf flag to clear")

	submitBlobCmd.Flags().StringVar(&blobAccount, "account", "", "account that signed the blob")
	submitBlobCmd.Flags().Uint32Var(&blobSequence, "sequence", 0, "sequence of the signed transaction")
	submitBlobCmd.Flags().Uint32Var(&blobLastLedger, "last-ledger", 0, "LastLedgerSequence of the signed transaction")
	submitBlobCmd.MarkFlagRequired("account")

	statusCmd.Flags().Uint32Var(&statusLast, "last-ledger", 0, "LastLedgerSequence, to detect expiry")

	buildCmd.AddCommand(buildPaymentCmd, buildTrustSetCmd, buildMintCmd, buildAccountSetCmd)
	txCmd.AddCommand(buildCmd, submitBlobCmd, statusCmd)
}
