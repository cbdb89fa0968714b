package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Maphikza/xrpl-wallet-custody/lib/ledger"
	"github.com/Maphikza/xrpl-wallet-custody/lib/transaction"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Read-only ledger queries",
}

var (
	ledgerTransactions bool
	ledgerExpand       bool
	objectType         string
	linesPeer          string
	bookLimit          int
	dataLimit          int
	dataMarker         string
	pathFindParams     string
)

type queryFunc func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error)

// queryCommand wraps a facade call: it builds a client from the loaded
// config and prints whatever the call returns as JSON.
func queryCommand(use, short string, args cobra.PositionalArgs, run queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			res, err := run(cmd.Context(), newLedgerClient(cfg), a)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

// parseIssue reads XRP or CUR/issuer
func parseIssue(s string) (ledger.Issue, error) {
	if strings.EqualFold(s, "XRP") {
		return ledger.Issue{Currency: "XRP"}, nil
	}
	currency, issuer, ok := strings.Cut(s, "/")
	if !ok || currency == "" || issuer == "" {
		return ledger.Issue{}, fmt.Errorf("issue %q must be XRP or CURRENCY/issuer", s)
	}
	return ledger.Issue{Currency: currency, Issuer: issuer}, nil
}

var (
	serverInfoCmd = queryCommand("server-info", "Show server_info", cobra.NoArgs,
		func(ctx context.Context, c *ledger.Client, _ []string) (interface{}, error) {
			return c.ServerInfo(ctx)
		})

	serverStateCmd = queryCommand("server-state", "Show validated ledger figures and reserves", cobra.NoArgs,
		func(ctx context.Context, c *ledger.Client, _ []string) (interface{}, error) {
			st, err := c.ServerState(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"state":                st.State,
				"build_version":        st.BuildVersion,
				"validated_ledger_seq": st.ValidatedLedgerSeq,
				"base_fee_drops":       st.BaseFee,
				"reserve_base_drops":   st.ReserveBase,
				"reserve_inc_drops":    st.ReserveInc,
				"load_factor":          st.LoadFactor,
			}, nil
		})

	ledgerCmd = queryCommand("ledger [index]", "Show a ledger (validated, closed, current or a number)", cobra.MaximumNArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			index := "validated"
			if len(args) == 1 {
				index = args[0]
			}
			return c.Ledger(ctx, index, ledgerTransactions, ledgerExpand)
		})

	ledgerClosedCmd = queryCommand("ledger-closed", "Show the last closed ledger", cobra.NoArgs,
		func(ctx context.Context, c *ledger.Client, _ []string) (interface{}, error) {
			return c.LedgerClosed(ctx)
		})

	ledgerCurrentCmd = queryCommand("ledger-current", "Show the current open ledger index", cobra.NoArgs,
		func(ctx context.Context, c *ledger.Client, _ []string) (interface{}, error) {
			idx, err := c.LedgerCurrent(ctx)
			return map[string]uint32{"ledger_current_index": idx}, err
		})

	validatedLedgerCmd = queryCommand("ledger-validated", "Show the latest validated ledger index", cobra.NoArgs,
		func(ctx context.Context, c *ledger.Client, _ []string) (interface{}, error) {
			idx, err := c.ValidatedLedgerIndex(ctx)
			return map[string]uint32{"validated_ledger_index": idx}, err
		})

	accountInfoCmd = queryCommand("account-info [account]", "Show an account's sequence and balance", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			st, err := c.AccountInfo(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"account":      st.Account,
				"sequence":     st.Sequence,
				"balance":      transaction.DropsToXRP(st.Balance),
				"owner_count":  st.OwnerCount,
				"flags":        st.Flags,
				"ledger_index": st.LedgerIndex,
				"validated":    st.Validated,
			}, nil
		})

	accountCurrenciesCmd = queryCommand("account-currencies [account]", "List currencies an account can send or receive", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.AccountCurrencies(ctx, args[0])
		})

	accountObjectsCmd = queryCommand("account-objects [account]", "List ledger objects owned by an account", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.AccountObjects(ctx, args[0], objectType)
		})

	accountChannelsCmd = queryCommand("account-channels [account]", "List an account's payment channels", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.AccountChannels(ctx, args[0])
		})

	accountLinesCmd = queryCommand("account-lines [account]", "List an account's trust lines", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.AccountLines(ctx, args[0], linesPeer)
		})

	accountNFTsCmd = queryCommand("account-nfts [account]", "List an account's NFTs", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.AccountNFTs(ctx, args[0])
		})

	accountOffersCmd = queryCommand("account-offers [account]", "List an account's open offers", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.AccountOffers(ctx, args[0])
		})

	pathFindCmd = queryCommand("path-find [subcommand]", "Run path_find (create, close or status)", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			params := map[string]interface{}{}
			if pathFindParams != "" {
				if err := json.Unmarshal([]byte(pathFindParams), &params); err != nil {
					return nil, fmt.Errorf("invalid --params: %w", err)
				}
			}
			return c.PathFind(ctx, args[0], params)
		})

	ripplePathFindCmd = queryCommand("ripple-path-find [source] [destination] [xrp-amount]", "Find payment paths delivering an XRP amount", cobra.ExactArgs(3),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			drops, err := transaction.XRPToDrops(args[2])
			if err != nil {
				return nil, err
			}
			return c.RipplePathFind(ctx, args[0], args[1], fmt.Sprint(drops))
		})

	bookOffersCmd = queryCommand("book-offers [taker-gets] [taker-pays]", "Show an order book; issues are XRP or CUR/issuer", cobra.ExactArgs(2),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			gets, err := parseIssue(args[0])
			if err != nil {
				return nil, err
			}
			pays, err := parseIssue(args[1])
			if err != nil {
				return nil, err
			}
			return c.BookOffers(ctx, gets, pays, bookLimit)
		})

	nftInfoCmd = queryCommand("nft-info [nft-id]", "Show an NFT", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.NFTInfo(ctx, args[0])
		})

	nftBuyOffersCmd = queryCommand("nft-buy-offers [nft-id]", "List buy offers for an NFT", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.NFTBuyOffers(ctx, args[0])
		})

	nftSellOffersCmd = queryCommand("nft-sell-offers [nft-id]", "List sell offers for an NFT", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.NFTSellOffers(ctx, args[0])
		})

	ledgerDataCmd = queryCommand("ledger-data", "Page through ledger state", cobra.NoArgs,
		func(ctx context.Context, c *ledger.Client, _ []string) (interface{}, error) {
			var marker interface{}
			if dataMarker != "" {
				marker = dataMarker
			}
			return c.LedgerData(ctx, dataLimit, marker)
		})

	manifestCmd = queryCommand("manifest [public-key]", "Show a validator manifest", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			return c.Manifest(ctx, args[0])
		})

	feeCmd = queryCommand("fee", "Show current transaction fees in drops", cobra.NoArgs,
		func(ctx context.Context, c *ledger.Client, _ []string) (interface{}, error) {
			f, err := c.Fee(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"base_fee":             f.BaseFee,
				"median_fee":           f.MedianFee,
				"minimum_fee":          f.MinimumFee,
				"open_ledger_fee":      f.OpenLedgerFee,
				"ledger_current_index": f.LedgerCurrentIndex,
			}, nil
		})

	txLookupCmd = queryCommand("tx [hash]", "Look up a transaction", cobra.ExactArgs(1),
		func(ctx context.Context, c *ledger.Client, args []string) (interface{}, error) {
			st, err := c.Tx(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return st.Raw, nil
		})
)

func init() {
	ledgerCmd.Flags().BoolVar(&ledgerTransactions, "transactions", false, "include transactions")
	ledgerCmd.Flags().BoolVar(&ledgerExpand, "expand", false, "expand transactions")
	accountObjectsCmd.Flags().StringVar(&objectType, "type", "", "only objects of this type")
	accountLinesCmd.Flags().StringVar(&linesPeer, "peer", "", "only lines with this counterparty")
	bookOffersCmd.Flags().IntVar(&bookLimit, "limit", 0, "maximum offers to return")
	ledgerDataCmd.Flags().IntVar(&dataLimit, "limit", 0, "maximum objects per page")
	ledgerDataCmd.Flags().StringVar(&dataMarker, "marker", "", "marker from the previous page")
	pathFindCmd.Flags().StringVar(&pathFindParams, "params", "", "extra request fields as a JSON object")

	queryCmd.AddCommand(
		serverInfoCmd, serverStateCmd,
		ledgerCmd, ledgerClosedCmd, ledgerCurrentCmd, validatedLedgerCmd,
		accountInfoCmd, accountCurrenciesCmd, accountObjectsCmd, accountChannelsCmd,
		accountLinesCmd, accountNFTsCmd, accountOffersCmd,
		pathFindCmd, ripplePathFindCmd, bookOffersCmd,
		nftInfoCmd, nftBuyOffersCmd, nftSellOffersCmd,
		ledgerDataCmd, manifestCmd, feeCmd, txLookupCmd,
	)
}
