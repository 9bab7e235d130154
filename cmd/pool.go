package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Uniswap V3 factory shortcuts",
	Long: `Shortcuts for the Uniswap V3 factory. They need the configured contract
to be the factory (contract.builtin = uniswap-v3-factory, the default).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		desc, err := loadDescriptor(cfg.Contract)
		if err != nil {
			return err
		}
		for _, m := range []string{"getPool", "createPool", "feeAmountTickSpacing", "parameters"} {
			if _, ok := desc.Method(m); !ok {
				return fmt.Errorf("%s is not a Uniswap V3 factory (no %s method)", desc.Name, m)
			}
		}
		return nil
	},
}

var poolGetCmd = &cobra.Command{
	Use:   "get <tokenA> <tokenB> <fee>",
	Short: "Look up the pool for a token pair and fee tier",
	Example: `  w3gate pool get 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 3000`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), os.Stdout, "getPool", args)
	},
}

var poolCreateCmd = &cobra.Command{
	Use:   "create <tokenA> <tokenB> <fee>",
	Short: "Create a pool (sends a transaction)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), os.Stdout, "createPool", args)
	},
}

var poolTickSpacingCmd = &cobra.Command{
	Use:   "tick-spacing <fee>",
	Short: "Show the tick spacing of a fee tier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), os.Stdout, "feeAmountTickSpacing", args)
	},
}

var poolParametersCmd = &cobra.Command{
	Use:   "parameters",
	Short: "Show the factory's pool deployment parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), os.Stdout, "parameters", nil)
	},
}

func init() {
	poolCmd.AddCommand(poolGetCmd, poolCreateCmd, poolTickSpacingCmd, poolParametersCmd)
}
