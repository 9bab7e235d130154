package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/Mohsinsiddi/w3gate/internal/config"
	"github.com/Mohsinsiddi/w3gate/internal/gateway"
	"github.com/Mohsinsiddi/w3gate/internal/guard"
	"github.com/Mohsinsiddi/w3gate/internal/ui"
	"github.com/Mohsinsiddi/w3gate/internal/wallet"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Networks and the wallet's chain",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		t := ui.NewTable(
			ui.Column{Title: "NAME"},
			ui.Column{Title: "DISPLAY"},
			ui.Column{Title: "CHAIN ID"},
			ui.Column{Title: "HEX"},
			ui.Column{Title: "CURRENCY"},
			ui.Column{Title: "TESTNET"},
		)
		for _, n := range reg.All() {
			testnet := ""
			if n.Testnet {
				testnet = "yes"
			}
			t.AddRow(n.Name, n.DisplayName, strconv.FormatInt(n.ChainID, 10), chain.HexChainID(n.ChainID), n.Currency, testnet)
			if n.ChainID == cfg.RequiredChainID {
				t.Mark()
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks, * marks the contract's chain", len(reg.All()))))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <chain>",
	Short: "Set the chain the contract is deployed on",
	Long:  "Set required_chain_id. <chain> is a network name or a decimal or 0x chain id.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, label, err := resolveChain(newRegistry(), args[0])
		if err != nil {
			return err
		}
		err = updateConfig(func(c *config.Config) error {
			return c.Set("required_chain_id", strconv.FormatInt(id, 10))
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Contract chain set to "+label))
		return nil
	},
}

// resolveChain accepts a registry name or any positive chain id, known or
// not.
func resolveChain(reg *chain.Registry, s string) (int64, string, error) {
	if n, err := reg.Resolve(s); err == nil {
		return n.ChainID, fmt.Sprintf("%s (chain %d)", ui.ChainName(n.DisplayName), n.ChainID), nil
	}
	id, err := chain.ParseChainID(s)
	if err != nil {
		return 0, "", fmt.Errorf("unknown network %q, run `w3gate network list`", s)
	}
	return id, fmt.Sprintf("chain %d", id), nil
}

// connectWallet connects the configured wallet with line prompts.
func connectWallet(ctx context.Context, cmd *cobra.Command, reg *chain.Registry) (*gateway.Gateway, func(), error) {
	var approver wallet.Approver = ui.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	if assumeYes {
		approver = wallet.AutoApprove
	}
	host, closeHost, err := newHost(ctx, reg, approver)
	if err != nil {
		return nil, nil, err
	}
	gw := gateway.New(host, gateway.WithLogger(log))
	if _, err := gw.Connect(ctx); err != nil {
		closeHost()
		return nil, nil, err
	}
	return gw, closeHost, nil
}

var networkCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the chain the wallet is on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		reg := newRegistry()
		gw, closeHost, err := connectWallet(ctx, cmd, reg)
		if err != nil {
			return err
		}
		defer closeHost()

		id, err := gw.CurrentNetwork(ctx)
		if err != nil {
			return err
		}
		_, label, _ := resolveChain(reg, strconv.FormatInt(id, 10))
		out := cmd.OutOrStdout()
		s := gw.Session()
		fmt.Fprintln(out, ui.KeyValueBlock("Wallet", [][2]string{
			{"account", s.Account.Hex()},
			{"capability", s.Capability.String()},
			{"network", label},
		}, false))
		if id != cfg.RequiredChainID {
			fmt.Fprintln(out, ui.Warn(fmt.Sprintf("the contract is on chain %d; calls will ask the wallet to switch", cfg.RequiredChainID)))
		}
		return nil
	},
}

var networkSwitchCmd = &cobra.Command{
	Use:   "switch [chain]",
	Short: "Ask the wallet to switch network",
	Long: `Ask the wallet to switch to <chain>, or to the contract's chain when
no chain is given. Nothing is requested when the wallet is already there.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		reg := newRegistry()
		id, label := cfg.RequiredChainID, ""
		if len(args) == 1 {
			var err error
			if id, label, err = resolveChain(reg, args[0]); err != nil {
				return err
			}
		} else {
			_, label, _ = resolveChain(reg, strconv.FormatInt(id, 10))
		}

		gw, closeHost, err := connectWallet(ctx, cmd, reg)
		if err != nil {
			return err
		}
		defer closeHost()

		st, err := guard.New(gw, guard.WithLogger(log)).EnsureNetwork(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Wallet on %s (%s)", label, chain.HexChainID(st.Current))))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd, networkCurrentCmd, networkSwitchCmd)
}
