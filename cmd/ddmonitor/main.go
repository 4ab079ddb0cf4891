package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/solanafuns/ddmonitor/internal/cmd/client"
	serverrun "github.com/solanafuns/ddmonitor/internal/cmd/server"
	cfgpkg "github.com/solanafuns/ddmonitor/internal/config"
)

func main() {
	g := &clientcmd.Globals{}
	rootCmd := clientcmd.NewRoot(g)
	rootCmd.Short = "ddmonitor host and client"
	rootCmd.Long = "ddmonitor runs a single-node ledger host for queue accounts and the clients that push to and watch them."

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the ledger host (gRPC and HTTP)",
		Aliases: []string{"run"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.Load()
			if err != nil {
				return err
			}
			applyServerFlags(cmd, &cfg)
			if err := serverrun.Run(cmd.Context(), serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("grpc", "", "gRPC listen address (default from config, :7600)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default from config, :7680)")
	serverStartCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Bool("faucet", true, "Enable the dev faucet")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}

func applyServerFlags(cmd *cobra.Command, cfg *cfgpkg.Config) {
	f := cmd.Flags()
	if v, _ := f.GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := f.GetString("grpc"); v != "" {
		cfg.GRPCAddr = v
	}
	if v, _ := f.GetString("http"); v != "" {
		cfg.HTTPAddr = v
	}
	if v, _ := f.GetString("fsync"); v != "" {
		cfg.Fsync = v
	}
	if f.Changed("faucet") {
		cfg.Faucet.Enabled, _ = f.GetBool("faucet")
	}
}
