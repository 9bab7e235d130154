package wallet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/Mohsinsiddi/w3gate/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	otherHex = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func newManager(t *testing.T) *wallet.Manager {
	t.Helper()
	return wallet.NewManager(wallet.WithKeys(wallet.NewKeystore(keyring.NewArrayKeyring(nil))))
}

func TestAddWatchOnlyWallet(t *testing.T) {
	mgr := newManager(t)

	w, err := mgr.AddWatchOnly("watcher", "0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeWatchOnly, w.Type)
	assert.Equal(t, otherHex, w.Address, "address is stored checksummed")
	assert.False(t, w.CanSign())

	got, err := mgr.Get("watcher")
	require.NoError(t, err)
	assert.Same(t, w, got)
}

func TestAddWatchOnlyInvalidAddress(t *testing.T) {
	_, err := newManager(t).AddWatchOnly("bad", "0x1234")
	assert.ErrorIs(t, err, wallet.ErrInvalidAddress)
}

func TestAddDuplicateWalletErrors(t *testing.T) {
	mgr := newManager(t)
	_, err := mgr.AddWatchOnly("dup", otherHex)
	require.NoError(t, err)

	_, err = mgr.AddWatchOnly("dup", otherHex)
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
	_, err = mgr.Import("dup", testKey)
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestImportSigningWallet(t *testing.T) {
	mgr := newManager(t)

	w, err := mgr.Import("signer", testKey)
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, testAddr, w.Address)
	assert.Equal(t, "w3gate.signer", w.KeyRef)
	assert.True(t, w.CanSign())

	key, err := mgr.Keys().Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, testKey[2:], key)
}

func TestImportInvalidKey(t *testing.T) {
	_, err := newManager(t).Import("bad", "not-a-valid-key")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestImportWithoutKeystore(t *testing.T) {
	_, err := wallet.NewManager().Import("signer", testKey)
	assert.Error(t, err)
}

func TestListWalletsSorted(t *testing.T) {
	mgr := newManager(t)
	for _, name := range []string{"w3", "w1", "w2"} {
		_, err := mgr.AddWatchOnly(name, otherHex)
		require.NoError(t, err)
	}

	wallets, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, wallets, 3)
	assert.Equal(t, "w1", wallets[0].Name)
	assert.Equal(t, "w3", wallets[2].Name)
}

func TestRemoveWalletDeletesKey(t *testing.T) {
	mgr := newManager(t)
	w, err := mgr.Import("signer", testKey)
	require.NoError(t, err)

	require.NoError(t, mgr.Remove("signer"))

	_, err = mgr.Get("signer")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	_, err = mgr.Keys().Retrieve(w.KeyRef)
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)
}

func TestRemoveNonExistentWallet(t *testing.T) {
	assert.ErrorIs(t, newManager(t).Remove("ghost"), wallet.ErrWalletNotFound)
}

func TestDefaultWallet(t *testing.T) {
	mgr := newManager(t)

	_, err := mgr.Default()
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)

	_, err = mgr.AddWatchOnly("only", otherHex)
	require.NoError(t, err)
	w, err := mgr.Default()
	require.NoError(t, err)
	assert.Equal(t, "only", w.Name, "a single wallet is the default")

	_, err = mgr.Import("signer", testKey)
	require.NoError(t, err)
	_, err = mgr.Default()
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound, "ambiguous without an explicit default")

	require.NoError(t, mgr.SetDefault("signer"))
	w, err = mgr.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "signer", w.Name)

	w, err = mgr.Resolve("only")
	require.NoError(t, err)
	assert.Equal(t, "only", w.Name)

	assert.ErrorIs(t, mgr.SetDefault("ghost"), wallet.ErrWalletNotFound)
}

// ---------------------------------------------------------------------------
// JSONStore
// ---------------------------------------------------------------------------

func TestJSONStorePersistsAcrossManagers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wallets.json")
	keys := wallet.NewKeystore(keyring.NewArrayKeyring(nil))

	first := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)), wallet.WithKeys(keys))
	_, err := first.Import("signer", testKey)
	require.NoError(t, err)
	require.NoError(t, first.SetDefault("signer"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second := wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path)), wallet.WithKeys(keys))
	w, err := second.Default()
	require.NoError(t, err)
	assert.Equal(t, testAddr, w.Address)
	assert.Equal(t, wallet.TypeSigning, w.Type)
}

func TestJSONStoreLoadNoFile(t *testing.T) {
	wallets, err := wallet.NewJSONStore(filepath.Join(t.TempDir(), "none.json")).Load()
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestJSONStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := wallet.NewJSONStore(path).Load()
	assert.Error(t, err)

	_, err = wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(path))).List()
	assert.Error(t, err)
}
