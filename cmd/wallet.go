package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/Mohsinsiddi/w3gate/internal/config"
	"github.com/Mohsinsiddi/w3gate/internal/ui"
	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage local wallets",
	Long: `Local wallets are used when no --host-url is set. Watch-only wallets
can read; signing wallets keep their private key in the OS keychain.`,
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Add a watch-only wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager(false)
		if err != nil {
			return err
		}
		w, err := mgr.AddWatchOnly(args[0], args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", w.Name, ui.Addr(w.Address))))
		fmt.Fprintln(out, ui.Hint("watch-only wallets can read but not send"))
		return nil
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a private key into the keychain",
	Long: `Import a private key as a signing wallet. The key is read from the
terminal without echo, or from stdin when it is piped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := readKey(cmd.InOrStdin())
		if err != nil {
			return err
		}
		mgr, err := newWalletManager(true)
		if err != nil {
			return err
		}
		w, err := mgr.Import(args[0], key)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Signing wallet %q imported: %s", w.Name, ui.Addr(w.Address))))
		return nil
	},
}

// readKey prompts without echo on a terminal, otherwise reads one line.
func readKey(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && ui.IsTerminal(f) {
		return keyring.TerminalPrompt("Private key")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", errors.New("no private key given")
	}
	return key, nil
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager(false)
		if err != nil {
			return err
		}
		wallets, err := mgr.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Info("No wallets configured yet."))
			fmt.Fprintln(out, ui.Hint("add one with: w3gate wallet add <name> <address>"))
			return nil
		}

		def, _ := mgr.Default()
		t := ui.NewTable(ui.Column{Title: "NAME"}, ui.Column{Title: "ADDRESS"}, ui.Column{Title: "TYPE"})
		for _, w := range wallets {
			t.AddRow(w.Name, w.Address, w.Type)
			if def != nil && def.Name == w.Name {
				t.Mark()
			}
		}
		fmt.Fprint(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d wallet(s), * marks the default", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := cmd.OutOrStdout()
		if !assumeYes {
			ok, err := ui.NewPrompter(cmd.InOrStdin(), out).Confirm(cmd.Context(), fmt.Sprintf("Remove wallet %q and its key?", name))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, ui.Meta("Cancelled."))
				return nil
			}
		}
		mgr, err := newWalletManager(false)
		if err != nil {
			return err
		}
		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		if w.CanSign() {
			if mgr, err = newWalletManager(true); err != nil {
				return err
			}
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		err = updateConfig(func(c *config.Config) error {
			if c.Wallet == name {
				c.Wallet = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr, err := newWalletManager(false)
		if err != nil {
			return err
		}
		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletAddCmd, walletImportCmd, walletListCmd, walletRemoveCmd, walletUseCmd)
}
