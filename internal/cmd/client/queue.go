package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solanafuns/ddmonitor/internal/action"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/queue"
	"github.com/solanafuns/ddmonitor/internal/watch"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand(g *Globals) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Queue operations"}
	queueCmd.AddCommand(
		newQueueCreateCommand(g),
		newQueuePushCommand(g),
		newQueueAllowCommand(g, true),
		newQueueAllowCommand(g, false),
		newQueueShowCommand(g),
		newQueueWatchCommand(g),
	)
	return queueCmd
}

// newQueueCreateCommand constructs the `queue create` subcommand.
func newQueueCreateCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a queue unless a usable one already exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetUint64("size")
			allowCount, _ := cmd.Flags().GetUint8("allow-count")
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			addr, created, err := s.sdk.EnsureQueue(cmd.Context(), args[0], size, allowCount)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"name":    args[0],
				"address": addr.String(),
				"created": created,
			})
		},
	}
	cmd.Flags().Uint64("size", 64, "Data buffer size in bytes")
	cmd.Flags().Uint8("allow-count", 3, "Allow list slots")
	return cmd
}

// newQueuePushCommand constructs the `queue push` subcommand.
func newQueuePushCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push <name>",
		Short: "Push one action into a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			a, err := actionFromFlags(cmd, s.sdk.Payer())
			if err != nil {
				return err
			}
			rcpt, err := s.sdk.PushAction(cmd.Context(), args[0], a)
			if err != nil {
				return err
			}
			s.logger.Debug("pushed", log.Str("kind", a.Kind()), log.Str("id", rcpt.ID))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK", "slot:", rcpt.Slot)
			return nil
		},
	}
	cmd.Flags().String("message", "", "Push a user message signed by the wallet")
	cmd.Flags().String("raw", "", "Push free text")
	cmd.Flags().String("sample", "", "Push a sample action as x,y (each 0-255)")
	cmd.Flags().Bool("noop", false, "Push an empty action")
	cmd.MarkFlagsMutuallyExclusive("message", "raw", "sample", "noop")
	cmd.MarkFlagsOneRequired("message", "raw", "sample", "noop")
	return cmd
}

func actionFromFlags(cmd *cobra.Command, sender identity.Identity) (action.Action, error) {
	f := cmd.Flags()
	switch {
	case f.Changed("message"):
		text, _ := f.GetString("message")
		return action.UserMessage{Sender: sender, Text: text}, nil
	case f.Changed("raw"):
		text, _ := f.GetString("raw")
		return action.Raw{Text: text}, nil
	case f.Changed("sample"):
		v, _ := f.GetString("sample")
		return parseSample(v)
	default:
		return action.Noop{}, nil
	}
}

func parseSample(v string) (action.Sample, error) {
	xs, ys, ok := strings.Cut(v, ",")
	if !ok {
		return action.Sample{}, fmt.Errorf("invalid --sample %q; want x,y", v)
	}
	x, err := strconv.ParseUint(strings.TrimSpace(xs), 10, 8)
	if err != nil {
		return action.Sample{}, fmt.Errorf("invalid --sample x: %w", err)
	}
	y, err := strconv.ParseUint(strings.TrimSpace(ys), 10, 8)
	if err != nil {
		return action.Sample{}, fmt.Errorf("invalid --sample y: %w", err)
	}
	return action.Sample{X: uint8(x), Y: uint8(y)}, nil
}

// newQueueAllowCommand constructs `queue allow` or `queue revoke`.
func newQueueAllowCommand(g *Globals, allow bool) *cobra.Command {
	use, short := "allow <name> <identity>", "Grant an identity push rights"
	if !allow {
		use, short = "revoke <name> <identity>", "Remove an identity's push rights"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := parseIdentityArg(args[1])
			if err != nil {
				return err
			}
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if allow {
				_, err = s.sdk.Allow(cmd.Context(), args[0], who)
			} else {
				_, err = s.sdk.Revoke(cmd.Context(), args[0], who)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
}

type queueView struct {
	Name         string         `json:"name"`
	Address      string         `json:"address"`
	Creator      string         `json:"creator"`
	Allow        []string       `json:"allow"`
	AllowSlots   int            `json:"allow_slots"`
	NeedDataSize uint64         `json:"need_data_size"`
	CreatedAt    int64          `json:"created_at"`
	LastChange   int64          `json:"last_change"`
	Action       map[string]any `json:"action"`
}

func newQueueView(name string, addr identity.Identity, rec *queue.Record) queueView {
	allowed := rec.AllowList()
	ids := make([]string, len(allowed))
	for i, id := range allowed {
		ids[i] = id.String()
	}
	return queueView{
		Name:         name,
		Address:      addr.String(),
		Creator:      rec.Creator.String(),
		Allow:        ids,
		AllowSlots:   len(rec.Allow),
		NeedDataSize: rec.NeedDataSize,
		CreatedAt:    rec.CreatedAt,
		LastChange:   rec.LastChange,
		Action:       action.Fields(action.DecodeOrNoop(rec.Data)),
	}
}

// newQueueShowCommand constructs the `queue show` subcommand.
func newQueueShowCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a queue's record and current action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			rec, addr, err := s.sdk.FetchQueue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s.logger.Info("raw data",
				log.Str("name", args[0]),
				log.Str("utf8", rawText(rec.Data)))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(newQueueView(args[0], addr, rec))
		},
	}
}

// rawText renders a data buffer as lossy UTF-8 without its zero padding.
func rawText(b []byte) string {
	return strings.ToValidUTF8(strings.TrimRight(string(b), "\x00"), "�")
}

// newQueueWatchCommand constructs the `queue watch` subcommand.
func newQueueWatchCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <name>",
		Short: "Follow a queue and print every decoded action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, _ := cmd.Flags().GetString("filter")
			fromSeq, _ := cmd.Flags().GetUint64("from-seq")
			dedupe, _ := cmd.Flags().GetBool("dedupe")
			limit, _ := cmd.Flags().GetInt("limit")
			dispatch, _ := cmd.Flags().GetBool("dispatch")

			filter, err := watch.NewFilter(expr)
			if err != nil {
				return err
			}
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			addr, _, err := s.sdk.QueueAddress(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			d := action.NewDispatcher(s.logger)
			enc := json.NewEncoder(cmd.OutOrStdout())
			seen := 0
			s.logger.Info("watching", log.Str("name", args[0]), log.Stringer("address", addr))
			return watch.WatchEvents(ctx, s.host, addr, watch.Options{
				FromSeq: fromSeq,
				Filter:  filter,
				Dedupe:  dedupe,
				Logger:  s.logger,
			}, func(ev watch.Event) {
				out := action.Fields(ev.Action)
				out["seq"] = ev.Seq
				out["slot"] = ev.Slot
				out["last_change"] = ev.Record.LastChange
				_ = enc.Encode(out)
				if dispatch {
					d.Dispatch(ev.Action)
				}
				seen++
				if limit > 0 && seen >= limit {
					cancel()
				}
			})
		},
	}
	cmd.Flags().String("filter", "", "CEL filter over kind, text, sender, x, y, seq, slot, last_change")
	cmd.Flags().Uint64("from-seq", 0, "Replay from this change log sequence (0 = new updates only)")
	cmd.Flags().Bool("dedupe", false, "Skip snapshots identical to the previous one")
	cmd.Flags().Int("limit", 0, "Stop after N actions (0 = infinite)")
	cmd.Flags().Bool("dispatch", false, "Also run the default action handlers")
	return cmd
}
