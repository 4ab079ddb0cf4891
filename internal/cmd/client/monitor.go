package client

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/solanafuns/ddmonitor/internal/action"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/watch"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

const (
	monitorDataSize   = 64
	monitorAllowCount = 3
)

// newMonitorCommand constructs the `monitor` command: ensure a queue exists,
// then run the default handlers for every action pushed to it.
func newMonitorCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Ensure a queue exists and log every action pushed to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()

			if err := s.ensureFunds(cmd); err != nil {
				return err
			}
			addr, _, err := s.sdk.EnsureQueue(ctx, name, monitorDataSize, monitorAllowCount)
			if err != nil {
				return err
			}
			s.logger.Info("monitoring", log.Str("name", name), log.Stringer("address", addr))
			return watch.Watch(ctx, s.host, addr, action.NewDispatcher(s.logger).Dispatch)
		},
	}
	cmd.Flags().StringP("name", "n", "default", "Queue name")
	return cmd
}

// ensureFunds requests an airdrop when the payer has no account yet. Hosts
// without a faucet are left to fail at the first transaction.
func (s *session) ensureFunds(cmd *cobra.Command) error {
	payer := s.sdk.Payer()
	a, err := s.host.GetAccount(cmd.Context(), payer)
	if err == nil && a.Lamports > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}
	if _, err := s.host.Airdrop(cmd.Context(), payer, defaultAirdrop); err != nil {
		if errors.Is(err, ledger.ErrFaucetDisabled) {
			s.logger.Warn("payer has no balance and the faucet is disabled", log.Stringer("payer", payer))
			return nil
		}
		return err
	}
	s.logger.Info("airdrop received", log.Stringer("payer", payer), log.Uint64("lamports", defaultAirdrop))
	return nil
}
