package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3gate/internal/ens"
	"github.com/Mohsinsiddi/w3gate/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var ensCmd = &cobra.Command{
	Use:   "ens <name|address>",
	Short: "Resolve an ENS name, or look up an address's primary name",
	Long: `Resolve an ENS name to its address, or an address to its primary name.

Lookups go to Ethereum mainnet through the configured RPC endpoints. Address
arguments of "call" and "pool" accept ENS names the same way.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		arg := args[0]
		if !ens.IsName(arg) && !common.IsHexAddress(arg) {
			return fmt.Errorf("%q is neither an ENS name nor an address", arg)
		}

		c, done, err := dialENS(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		if common.IsHexAddress(arg) {
			addr := common.HexToAddress(arg)
			name, err := ens.ReverseLookup(cmd.Context(), c, addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  %s\n", ui.Addr(addr.Hex()), ui.Val(name))
			return nil
		}

		addr, err := ens.Resolve(cmd.Context(), c, arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %s\n", ui.Val(ens.Normalize(arg)), ui.Addr(addr.Hex()))
		return nil
	},
}
