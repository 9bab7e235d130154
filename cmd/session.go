package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/99designs/keyring"
	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/Mohsinsiddi/w3gate/internal/config"
	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/Mohsinsiddi/w3gate/internal/dispatch"
	"github.com/Mohsinsiddi/w3gate/internal/ens"
	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/Mohsinsiddi/w3gate/internal/gateway"
	"github.com/Mohsinsiddi/w3gate/internal/rpc"
	"github.com/Mohsinsiddi/w3gate/internal/ui"
	"github.com/Mohsinsiddi/w3gate/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// keyringPasswordEnv supplies the file keyring password non-interactively.
const keyringPasswordEnv = "W3GATE_KEYRING_PASSWORD"

func newRegistry() *chain.Registry {
	return chain.NewRegistry(cfg.CustomRPCs)
}

func newSelector(reg *chain.Registry) (*rpc.Selector, error) {
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return nil, err
	}
	return rpc.NewSelector(reg, algo,
		rpc.WithRateLimiter(chain.NewRateLimiter(config.RPCRequestsPerSecond, config.RPCBurst)),
		rpc.WithLogger(log),
	), nil
}

func keyringPassword() keyring.PromptFunc {
	if pw := os.Getenv(keyringPasswordEnv); pw != "" {
		return keyring.FixedStringPrompt(pw)
	}
	return keyring.TerminalPrompt
}

func openKeystore() (*wallet.Keystore, error) {
	return wallet.OpenKeystore(cfg.KeyringDir(), keyringPassword())
}

// newWalletManager returns the wallet manager. withKeys opens the keychain,
// which may prompt for a password.
func newWalletManager(withKeys bool) (*wallet.Manager, error) {
	opts := []wallet.Option{wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath()))}
	if withKeys {
		ks, err := openKeystore()
		if err != nil {
			return nil, err
		}
		opts = append(opts, wallet.WithKeys(ks))
	}
	return wallet.NewManager(opts...), nil
}

// loadDescriptor builds the configured contract. An abi_file wins over a
// builtin.
func loadDescriptor(c config.Contract) (contract.Descriptor, error) {
	if c.ABIFile != "" {
		name := c.Name
		if name == "" {
			name = "contract"
		}
		return contract.LoadDescriptor(name, c.Address, c.ABIFile)
	}
	d, err := contract.Builtin(c.Builtin, c.Address)
	if err != nil {
		return contract.Descriptor{}, err
	}
	if c.Name != "" {
		d.Name = c.Name
	}
	return d, nil
}

// startChain is the network a local wallet is on before the first switch.
func startChain(reg *chain.Registry, required int64) int64 {
	if _, err := reg.GetByChainID(required); err == nil {
		return required
	}
	return 1
}

// newHost returns the wallet to drive: the external endpoint when host_url
// is set, otherwise the selected local wallet. With neither it returns a nil
// host.
func newHost(ctx context.Context, reg *chain.Registry, approver wallet.Approver) (gateway.Host, func(), error) {
	if cfg.HostURL != "" {
		c, err := gethrpc.DialContext(ctx, cfg.HostURL)
		if err != nil {
			return nil, nil, fmt.Errorf("dialing wallet %s: %w", cfg.HostURL, err)
		}
		log.Debug("using external wallet", zap.String("url", cfg.HostURL))
		return c, c.Close, nil
	}

	mgr, err := newWalletManager(false)
	if err != nil {
		return nil, nil, err
	}
	w, err := mgr.Resolve(cfg.Wallet)
	if errors.Is(err, wallet.ErrWalletNotFound) && cfg.Wallet == "" {
		log.Debug("no wallet configured")
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var keys wallet.Keys
	if w.CanSign() {
		if keys, err = openKeystore(); err != nil {
			return nil, nil, err
		}
	}
	sel, err := newSelector(reg)
	if err != nil {
		return nil, nil, err
	}
	h, err := wallet.NewLocalHost(w, keys, sel, startChain(reg, cfg.RequiredChainID),
		wallet.WithApprover(approver),
		wallet.WithHostLogger(log),
	)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("using local wallet", zap.String("wallet", w.Name), zap.String("type", w.Type))
	return h, h.Close, nil
}

// session is everything one command needs to drive the contract.
type session struct {
	reg      *chain.Registry
	desc     contract.Descriptor
	target   ui.Target
	gw       *gateway.Gateway
	sink     ui.Sink
	approver wallet.Approver
	ctx      context.Context
	closers  []func()
}

// openSession builds the contract, the reporter and the wallet. The context
// ends on interrupt.
func openSession(parent context.Context, out *os.File) (*session, error) {
	s := &session{reg: newRegistry()}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	ctx, cancel := context.WithCancel(ctx)
	s.ctx = ctx
	s.closers = append(s.closers, stop, cancel)

	desc, err := loadDescriptor(cfg.Contract)
	if err != nil {
		s.close()
		return nil, err
	}
	s.desc = desc
	network, _ := s.reg.GetByChainID(cfg.RequiredChainID)
	s.target = ui.Target{Contract: desc, Network: network, ChainID: cfg.RequiredChainID}

	// Debug logs share the terminal, so they force line output.
	s.sink = ui.NewReporter(out, s.target, plainOutput || verbose, cancel)
	switch sink := s.sink.(type) {
	case *ui.ProgressReporter:
		s.approver = sink
	default:
		s.approver = ui.NewPrompter(os.Stdin, out)
	}
	if assumeYes {
		s.approver = wallet.AutoApprove
	}

	host, closeHost, err := newHost(ctx, s.reg, s.approver)
	if err != nil {
		s.close()
		return nil, err
	}
	s.closers = append(s.closers, closeHost)
	s.gw = gateway.New(host, gateway.WithLogger(log))
	return s, nil
}

func (s *session) dispatcher() *dispatch.Dispatcher {
	return dispatch.New(s.gw, s.desc, cfg.RequiredChainID,
		dispatch.WithLogger(log),
		dispatch.WithReporter(s.sink),
		dispatch.WithBindingOptions(
			contract.WithConfirmTimeout(cfg.ConfirmTimeout.Std()),
			contract.WithPollInterval(cfg.PollInterval.Std()),
		),
	)
}

func (s *session) close() {
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			log.Debug("closing progress view", zap.Error(err))
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// dialer opens a connection to the ENS network.
type dialer func(ctx context.Context) (ens.Caller, func(), error)

func dialENS(ctx context.Context) (ens.Caller, func(), error) {
	sel, err := newSelector(newRegistry())
	if err != nil {
		return nil, nil, err
	}
	c, err := sel.Connect(ctx, ens.ChainID)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// resolveNames replaces ENS names given for address inputs with the
// addresses they point to. The ENS network is only dialed when a name is
// present.
func resolveNames(ctx context.Context, out io.Writer, m abi.Method, raw []string, dial dialer) ([]string, error) {
	if len(raw) != len(m.Inputs) {
		return raw, nil
	}
	var (
		caller ens.Caller
		done   = func() {}
	)
	defer func() { done() }()

	resolved := append([]string(nil), raw...)
	for i, in := range m.Inputs {
		if in.Type.T != abi.AddressTy || !ens.IsName(raw[i]) {
			continue
		}
		if caller == nil {
			c, closer, err := dial(ctx)
			if err != nil {
				return nil, failure.Wrap(failure.NetworkUnavailable, err, "connecting to resolve %s", raw[i])
			}
			caller, done = c, closer
		}
		addr, err := ens.Resolve(ctx, caller, raw[i])
		switch {
		case errors.Is(err, ens.ErrNoResolver), errors.Is(err, ens.ErrNoAddress):
			return nil, failure.Wrap(failure.ArgumentMismatch, err, "argument %s", argName(in, i))
		case err != nil:
			return nil, failure.Classify(err, failure.RpcError)
		}
		log.Debug("resolved ens name", zap.String("name", raw[i]), zap.Stringer("address", addr))
		fmt.Fprintln(out, ui.Info(ens.Normalize(raw[i])+" → "+ui.Addr(addr.Hex())))
		resolved[i] = addr.Hex()
	}
	return resolved, nil
}

func argName(in abi.Argument, i int) string {
	if in.Name != "" {
		return in.Name
	}
	return fmt.Sprintf("#%d", i)
}

// invoke parses raw against the method's inputs and runs it. Outcomes are
// printed by the reporter; the returned error only sets the exit status.
func invoke(parent context.Context, out *os.File, method string, raw []string) error {
	desc, err := loadDescriptor(cfg.Contract)
	if err != nil {
		return err
	}
	var args []any
	if m, ok := desc.Method(method); ok {
		if raw, err = resolveNames(parent, out, m, raw, dialENS); err != nil {
			return err
		}
		if args, err = contract.ParseArgs(m, raw); err != nil {
			return err
		}
	}

	s, err := openSession(parent, out)
	if err != nil {
		return err
	}
	defer s.close()

	_, err = s.dispatcher().Run(s.ctx, method, args...)
	if cerr := s.sink.Close(); cerr != nil {
		log.Debug("closing progress view", zap.Error(cerr))
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dispatch.ErrAbandoned):
		fmt.Fprintln(out, ui.Warn("abandoned "+method+"; a submitted transaction may still be mined"))
		return errReported
	default:
		var fe *failure.Error
		if errors.As(err, &fe) {
			return errReported
		}
		return err
	}
}
