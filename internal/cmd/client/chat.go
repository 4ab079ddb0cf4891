package client

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/solanafuns/ddmonitor/internal/action"
	"github.com/solanafuns/ddmonitor/internal/watch"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

const (
	chatDataSize   = 1024
	chatAllowCount = 5
	chatGreeting   = "I'm in!"
	chatExit       = "exit"
	chatDrain      = 2 * time.Second
)

// newChatCommand constructs the `chat` command: a room is a queue, every
// line is a UserMessage.
func newChatCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat through a queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			room, _ := cmd.Flags().GetString("room")
			addUser, _ := cmd.Flags().GetString("add-user")
			start, _ := cmd.Flags().GetBool("start")

			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()

			addr, _, err := s.sdk.EnsureQueue(ctx, room, chatDataSize, chatAllowCount)
			if err != nil {
				return err
			}
			s.logger.Info("room ready", log.Str("room", room), log.Stringer("address", addr))

			if addUser != "" {
				who, err := parseIdentityArg(addUser)
				if err != nil {
					return err
				}
				if _, err := s.sdk.Allow(ctx, room, who); err != nil {
					return fmt.Errorf("add user: %w", err)
				}
				s.logger.Info("user added", log.Str("room", room), log.Stringer("user", who))
			}
			if !start {
				return nil
			}

			// Pin the start before the greeting so our own messages are
			// delivered however late the subscription lands.
			last, err := s.host.AccountSeq(ctx, addr)
			if err != nil {
				return fmt.Errorf("room sequence: %w", err)
			}
			me := s.sdk.Payer()
			out := cmd.OutOrStdout()
			var (
				mu     sync.Mutex
				pushed int
				echoed int
			)
			tick := make(chan struct{}, 1)
			d := action.NewDispatcher(s.logger)
			d.OnUserMessage = func(m action.UserMessage) {
				mu.Lock()
				_, _ = fmt.Fprintf(out, "%s: %s\n", m.Sender, m.Text)
				if m.Sender == me {
					echoed++
				}
				mu.Unlock()
				select {
				case tick <- struct{}{}:
				default:
				}
			}

			wctx, cancel := context.WithCancel(ctx)
			defer cancel()
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				opts := watch.Options{FromSeq: last + 1, Logger: s.logger}
				if err := watch.WatchEvents(wctx, s.host, addr, opts, func(ev watch.Event) { d.Dispatch(ev.Action) }); err != nil {
					s.logger.Error("watch stopped", log.Err(err))
				}
			}()

			send := func(text string) error {
				if _, err := s.sdk.PushAction(ctx, room, action.UserMessage{Sender: me, Text: text}); err != nil {
					return err
				}
				mu.Lock()
				pushed++
				mu.Unlock()
				return nil
			}
			if err := send(chatGreeting); err != nil {
				cancel()
				wg.Wait()
				return err
			}
			s.logger.Info("type lines to send; exit quits", log.Str("room", room))
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				line := strings.TrimRight(sc.Text(), "\r")
				if strings.TrimSpace(line) == chatExit {
					break
				}
				if err := send(strings.ToValidUTF8(line, "\uFFFD")); err != nil {
					s.logger.Warn("send failed", log.Err(err))
				}
			}

			// Let our last lines come back through the room before leaving.
			drain := time.NewTimer(chatDrain)
			defer drain.Stop()
		wait:
			for {
				mu.Lock()
				done := echoed >= pushed
				mu.Unlock()
				if done {
					break
				}
				select {
				case <-tick:
				case <-drain.C:
					break wait
				}
			}
			cancel()
			wg.Wait()
			return sc.Err()
		},
	}
	cmd.Flags().StringP("room", "r", "lobby", "Room (queue) name")
	cmd.Flags().StringP("add-user", "a", "", "Identity to add to the room")
	cmd.Flags().BoolP("start", "c", false, "Start chatting with room members")
	return cmd
}
