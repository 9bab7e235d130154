package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3gate/internal/config"
	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/Mohsinsiddi/w3gate/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3gate/cmd.Version=1.2.3" .
var Version = "0.1.0"

// errReported marks an error whose details were already printed.
var errReported = errors.New("reported")

var (
	cfgDir         string
	cfg            *config.Config
	log            = zap.NewNop()
	verbose        bool
	deploymentPath string
	hostURL        string
	walletName     string
	plainOutput    bool
	assumeYes      bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3gate",
	Short: "Wallet-gated contract calls",
	Long: `w3gate drives one deployed contract through a wallet.

Every call connects the wallet, checks that it is on the contract's chain
(asking it to switch when it is not), then reads or sends and waits for the
transaction to be mined.

The wallet is either an external JSON-RPC wallet endpoint (--host-url) or a
local account managed with "w3gate wallet".`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if deploymentPath != "" {
			d, err := config.LoadDeployment(deploymentPath)
			if err != nil {
				return err
			}
			d.Apply(cfg)
		}
		if hostURL != "" {
			cfg.HostURL = hostURL
		}
		if walletName != "" {
			cfg.Wallet = walletName
		}
		log, err = config.NewLogger(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		log.Debug("config loaded",
			zap.String("dir", cfg.Dir()),
			zap.Int64("chain", cfg.RequiredChainID),
			zap.String("deployment", deploymentPath),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, errReported) {
		printError(err)
	}
	os.Exit(1)
}

func printError(err error) {
	var fe *failure.Error
	if errors.As(err, &fe) {
		for _, line := range ui.ErrorLines(fe, nil) {
			fmt.Fprintln(os.Stderr, line)
		}
		return
	}
	fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $"+config.DirEnv+" or ~/.w3gate)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&deploymentPath, "deployment", "d", "", "deployment file (yaml or json) naming the chain and contract")
	rootCmd.PersistentFlags().StringVar(&hostURL, "host-url", "", "external wallet JSON-RPC endpoint")
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "", "local wallet to use (default: the default wallet)")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false, "line output instead of the live progress view")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve every wallet request of a local wallet")

	rootCmd.AddCommand(
		callCmd,
		poolCmd,
		walletCmd,
		networkCmd,
		rpcCmd,
		ensCmd,
		configCmd,
	)
}
