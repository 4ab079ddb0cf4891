package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/solanafuns/ddmonitor/internal/config"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/rpc"
	"github.com/solanafuns/ddmonitor/internal/sdk"
	"github.com/solanafuns/ddmonitor/internal/wallet"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// Load reads the config file, overlays DDM_* variables and applies flags.
func (g *Globals) Load() (cfgpkg.Config, error) {
	cfg, err := cfgpkg.Load(g.ConfigPath)
	if err != nil {
		return cfg, err
	}
	cfgpkg.FromEnv(&cfg)
	if g.ProgramID != "" {
		cfg.ProgramID = g.ProgramID
	}
	if g.Network != "" {
		cfg.Network = g.Network
	}
	if g.Endpoint != "" {
		cfg.Endpoint = g.Endpoint
	}
	if g.Wallet != "" {
		cfg.Wallet = g.Wallet
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	if cfg.Wallet == "" {
		cfg.Wallet = cfgpkg.DefaultWalletPath()
	}
	return cfg, nil
}

// newLogger writes to w so command output on stdout stays parseable.
func newLogger(cfg cfgpkg.Config, w io.Writer) log.Logger {
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		lvl = log.InfoLevel
	}
	var f log.Formatter = &log.TextFormatter{}
	if strings.EqualFold(cfg.Log.Format, "json") {
		f = &log.JSONFormatter{}
	}
	return log.NewLogger(log.WithLevel(lvl), log.WithFormatter(f), log.WithOutput(log.NewWriterOutput(w)))
}

// session is one connected client: config, logger, host connection and a
// signing sdk client.
type session struct {
	cfg    cfgpkg.Config
	logger log.Logger
	host   *rpc.Client
	sdk    *sdk.Client
}

func (g *Globals) open(cmd *cobra.Command) (*session, error) {
	cfg, err := g.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	programID, err := cfg.Program()
	if err != nil {
		return nil, err
	}
	endpoint, err := cfg.ResolveEndpoint()
	if err != nil {
		return nil, err
	}
	payer, created, err := wallet.LoadOrCreate(cfg.Wallet)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", cfg.Wallet, err)
	}
	if created {
		logger.Info("generated new wallet", log.Str("path", cfg.Wallet), log.Stringer("identity", payer.Identity()))
	}
	host, err := rpc.Dial(endpoint)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected",
		log.Str("endpoint", endpoint),
		log.Str("network", cfg.Network),
		log.Stringer("program", programID),
		log.Stringer("payer", payer.Identity()))
	return &session{
		cfg:    cfg,
		logger: logger,
		host:   host,
		sdk:    sdk.New(host, programID, payer, logger),
	}, nil
}

func (s *session) Close() { _ = s.host.Close() }

func parseIdentityArg(s string) (identity.Identity, error) {
	id, err := identity.Parse(strings.TrimSpace(s))
	if err != nil {
		return identity.Zero, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return id, nil
}
