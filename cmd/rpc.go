package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/Mohsinsiddi/w3gate/internal/config"
	"github.com/Mohsinsiddi/w3gate/internal/rpc"
	"github.com/Mohsinsiddi/w3gate/internal/ui"
	"github.com/spf13/cobra"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage the RPC endpoints local wallets use",
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <chain> <url>",
	Short: "Add a custom RPC URL for a chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newRegistry().GetByName(args[0])
		if err != nil {
			return err
		}
		url := args[1]
		if err := updateConfig(func(c *config.Config) error { return c.AddRPC(n.Name, url) }); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(n.Name), url)))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <chain> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]
		if err := updateConfig(func(c *config.Config) error { return c.RemoveRPC(name, url) }); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Removed RPC for %s: %s", name, url)))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list [chain]",
	Short: "List the RPCs of a chain, or the chains with custom RPCs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			chains := cfg.RPCChains()
			if len(chains) == 0 {
				fmt.Fprintln(out, ui.Info("No custom RPCs configured."))
				return nil
			}
			for _, name := range chains {
				fmt.Fprintln(out, ui.StyleHeader.Render(name))
				for _, u := range cfg.CustomRPCs[name] {
					fmt.Fprintln(out, "  "+u)
				}
			}
			return nil
		}

		n, err := newRegistry().GetByName(args[0])
		if err != nil {
			return err
		}
		custom := len(cfg.CustomRPCs[n.Name])
		fmt.Fprintln(out, ui.StyleTitle.Render("RPCs for "+n.DisplayName))
		for i, u := range n.RPCs {
			label := ui.Meta("(built-in)")
			if i < custom {
				label = ui.Meta("(custom)")
			}
			fmt.Fprintf(out, "  %s %s\n", label, u)
		}
		return nil
	},
}

var rpcProbeCmd = &cobra.Command{
	Use:   "probe <chain>",
	Short: "Probe every RPC of a chain and show which one would be picked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		n, err := reg.Resolve(args[0])
		if err != nil {
			return err
		}
		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()
		results := rpc.ProbeAll(ctx, n.RPCs, n.ChainID)

		t := ui.NewTable(
			ui.Column{Title: "RPC URL"},
			ui.Column{Title: "LATENCY", Width: 9},
			ui.Column{Title: "BLOCK", Width: 11},
			ui.Column{Title: "STATUS"},
		)
		for _, r := range results {
			status, latency, block := "healthy", fmt.Sprintf("%dms", r.Latency.Milliseconds()), strconv.FormatUint(r.BlockNumber, 10)
			if r.Err != nil {
				status, latency, block = r.Err.Error(), "-", "-"
			}
			t.AddRow(r.URL, latency, block, status)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n\n", ui.StyleTitle.Render(fmt.Sprintf("%s RPCs (%s)", n.DisplayName, chain.HexChainID(n.ChainID))))
		fmt.Fprint(out, t.Render())

		best, err := rpc.NewPicker(algo).Pick(results)
		if err != nil {
			fmt.Fprintln(out, ui.Err(err.Error()))
			return errReported
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%s picks %s", algo, best.URL)))
		return nil
	},
}

var rpcAlgorithmCmd = &cobra.Command{
	Use:       "algorithm <fastest|round-robin|failover>",
	Short:     "Set the RPC selection algorithm",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(rpc.AlgorithmFastest), string(rpc.AlgorithmRoundRobin), string(rpc.AlgorithmFailover)},
	RunE: func(cmd *cobra.Command, args []string) error {
		algo := args[0]
		if err := updateConfig(func(c *config.Config) error { return c.Set("rpc_algorithm", algo) }); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC algorithm set to %q", algo)))
		return nil
	},
}

func init() {
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcProbeCmd, rpcAlgorithmCmd)
}
