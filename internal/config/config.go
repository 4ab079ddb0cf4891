package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// Networks a client can select.
const (
	NetworkLocal = "local"
	NetworkDev   = "dev"
	NetworkTest  = "test"
	NetworkMain  = "main"
)

// Config is the top-level configuration loaded from file and env.
type Config struct {
	// ProgramID is the base58 identity of the queue program. Required.
	ProgramID string `json:"programId" yaml:"programId"`
	Network   string `json:"network" yaml:"network"`
	// Endpoint overrides the gRPC endpoint the network maps to.
	Endpoint string            `json:"endpoint" yaml:"endpoint"`
	Networks map[string]string `json:"networks" yaml:"networks"`

	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	DataDir  string `json:"dataDir" yaml:"dataDir"`
	Fsync    string `json:"fsync" yaml:"fsync"`

	Rent      Rent      `json:"rent" yaml:"rent"`
	Faucet    Faucet    `json:"faucet" yaml:"faucet"`
	ChangeLog ChangeLog `json:"changeLog" yaml:"changeLog"`

	Wallet string     `json:"wallet" yaml:"wallet"`
	Log    log.Config `json:"log" yaml:"log"`
}

type Rent struct {
	LamportsPerByteYear uint64  `json:"lamportsPerByteYear" yaml:"lamportsPerByteYear"`
	ExemptionThreshold  float64 `json:"exemptionThreshold" yaml:"exemptionThreshold"`
}

type Faucet struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	MaxLamports uint64 `json:"maxLamports" yaml:"maxLamports"`
}

type ChangeLog struct {
	// RetainSnapshots keeps only the newest N snapshots per account; 0 keeps all.
	RetainSnapshots int `json:"retainSnapshots" yaml:"retainSnapshots"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Network:  NetworkLocal,
		Networks: map[string]string{NetworkLocal: "127.0.0.1:7600"},
		GRPCAddr: ":7600",
		HTTPAddr: ":7680",
		Fsync:    "interval",
		Rent: Rent{
			LamportsPerByteYear: 3480,
			ExemptionThreshold:  2.0,
		},
		Faucet: Faucet{
			Enabled:     true,
			MaxLamports: 5_000_000_000,
		},
		ChangeLog: ChangeLog{RetainSnapshots: 1024},
		Log:       log.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) over the
// defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	return cfg, nil
}

var ErrNoProgramID = errors.New("config: programId is required")

// Program parses ProgramID.
func (c Config) Program() (identity.Identity, error) {
	if c.ProgramID == "" {
		return identity.Zero, ErrNoProgramID
	}
	id, err := identity.Parse(c.ProgramID)
	if err != nil {
		return identity.Zero, fmt.Errorf("config: programId: %w", err)
	}
	if id.IsZero() {
		return identity.Zero, fmt.Errorf("config: programId cannot be the system program")
	}
	return id, nil
}

// ResolveEndpoint returns Endpoint, or the endpoint Network maps to.
func (c Config) ResolveEndpoint() (string, error) {
	if c.Endpoint != "" {
		return c.Endpoint, nil
	}
	switch c.Network {
	case NetworkLocal, NetworkDev, NetworkTest, NetworkMain:
	default:
		return "", fmt.Errorf("config: unknown network %q (want local, dev, test or main)", c.Network)
	}
	ep, ok := c.Networks[c.Network]
	if !ok || ep == "" {
		return "", fmt.Errorf("config: no endpoint configured for network %q", c.Network)
	}
	return ep, nil
}
