// Package wallet stores a keypair as a JSON array of the 64 private key
// bytes, the layout Solana CLI keypair files use.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/solanafuns/ddmonitor/internal/identity"
)

var ErrExists = errors.New("wallet: file already exists")

// Load reads the keypair at path.
func Load(path string) (identity.Keypair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return identity.Keypair{}, err
	}
	// encoding/json treats []byte as base64, so decode the array as ints.
	var nums []int
	if err := json.Unmarshal(b, &nums); err != nil {
		return identity.Keypair{}, fmt.Errorf("wallet: %s: %w", path, err)
	}
	raw := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return identity.Keypair{}, fmt.Errorf("wallet: %s: byte %d out of range", path, i)
		}
		raw[i] = byte(n)
	}
	k, err := identity.FromPrivateKey(raw)
	if err != nil {
		return identity.Keypair{}, fmt.Errorf("wallet: %s: %w", path, err)
	}
	return k, nil
}

// Save writes k to path with owner-only permissions, creating parent
// directories. It refuses to overwrite unless force is set.
func Save(path string, k identity.Keypair, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	priv := k.PrivateKey()
	nums := make([]int, len(priv))
	for i, v := range priv {
		nums[i] = int(v)
	}
	b, err := json.Marshal(nums)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// LoadOrCreate loads path, generating and saving a new keypair when the
// file does not exist. It reports whether a keypair was created.
func LoadOrCreate(path string) (identity.Keypair, bool, error) {
	k, err := Load(path)
	if err == nil {
		return k, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return identity.Keypair{}, false, err
	}
	k, err = identity.Generate()
	if err != nil {
		return identity.Keypair{}, false, err
	}
	if err := Save(path, k, false); err != nil {
		return identity.Keypair{}, false, err
	}
	return k, true, nil
}
