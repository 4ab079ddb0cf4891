package client

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/solanafuns/ddmonitor/internal/address"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/wallet"
)

// defaultAirdrop is one SOL in lamports.
const defaultAirdrop = 1_000_000_000

// newAddressCommand constructs the `address` command. It needs only the
// program ID, not a host.
func newAddressCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "address <queue-name>",
		Short: "Print the derived address of a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Load()
			if err != nil {
				return err
			}
			programID, err := cfg.Program()
			if err != nil {
				return err
			}
			addr, bump, err := address.QueueAddress(programID, args[0])
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"name":    args[0],
				"program": programID.String(),
				"address": addr.String(),
				"bump":    bump,
			})
		},
	}
}

// newKeygenCommand constructs the `keygen` command.
func newKeygenCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a keypair file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("outfile")
			force, _ := cmd.Flags().GetBool("force")
			if out == "" {
				cfg, err := g.Load()
				if err != nil {
					return err
				}
				out = cfg.Wallet
			}
			k, err := identity.Generate()
			if err != nil {
				return err
			}
			if err := wallet.Save(out, k, force); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "identity:", k.Identity())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "path:", out)
			return nil
		},
	}
	cmd.Flags().StringP("outfile", "o", "", "Output path (defaults to the configured wallet)")
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

// newAirdropCommand constructs the `airdrop` command.
func newAirdropCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airdrop [lamports]",
		Short: "Request lamports from the host faucet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lamports := uint64(defaultAirdrop)
			if len(args) == 1 {
				v, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil || v == 0 {
					return fmt.Errorf("invalid lamports %q", args[0])
				}
				lamports = v
			}
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			to := s.sdk.Payer()
			if v, _ := cmd.Flags().GetString("to"); v != "" {
				if to, err = parseIdentityArg(v); err != nil {
					return err
				}
			}
			rcpt, err := s.host.Airdrop(cmd.Context(), to, lamports)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"to":       to.String(),
				"lamports": lamports,
				"slot":     rcpt.Slot,
				"id":       rcpt.ID,
			})
		},
	}
	cmd.Flags().String("to", "", "Recipient identity (defaults to the wallet)")
	return cmd
}
