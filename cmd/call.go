package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/Mohsinsiddi/w3gate/internal/ui"
	"github.com/spf13/cobra"
)

var callList bool

var callCmd = &cobra.Command{
	Use:   "call <method> [args...]",
	Short: "Call a method of the configured contract",
	Long: `Call any method of the configured contract. View methods are read;
other methods are sent as a transaction from the wallet and awaited.

Arguments are given in ABI order: addresses as 0x hex, integers in decimal
or 0x hex, bools as true/false, bytes as 0x hex.

Examples:
  w3gate call --list
  w3gate call getPool 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 3000
  w3gate call owner --deployment deploy/sepolia.yaml`,
	Args: func(cmd *cobra.Command, args []string) error {
		if callList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if callList {
			desc, err := loadDescriptor(cfg.Contract)
			if err != nil {
				return err
			}
			printMethods(cmd.OutOrStdout(), desc)
			return nil
		}
		return invoke(cmd.Context(), os.Stdout, args[0], args[1:])
	},
}

func printMethods(w io.Writer, desc contract.Descriptor) {
	fmt.Fprintf(w, "%s %s\n\n", ui.StyleTitle.Render(desc.Name), ui.Addr(desc.Address.Hex()))
	t := ui.NewTable(ui.Column{Title: "METHOD"}, ui.Column{Title: "KIND"})
	for _, name := range desc.ReadMethods() {
		m, _ := desc.Method(name)
		t.AddRow(contract.Signature(m), "view")
	}
	for _, name := range desc.WriteMethods() {
		m, _ := desc.Method(name)
		t.AddRow(contract.Signature(m), "write")
	}
	fmt.Fprint(w, t.Render())
}

func init() {
	callCmd.Flags().BoolVarP(&callList, "list", "l", false, "list the contract's methods")
}
