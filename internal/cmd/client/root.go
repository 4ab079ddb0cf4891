package client

import (
	"github.com/spf13/cobra"
)

// Globals holds the connection flags shared by every client command.
type Globals struct {
	ConfigPath string
	ProgramID  string
	Network    string
	Endpoint   string
	Wallet     string
	LogLevel   string
	LogFormat  string
}

// Bind registers the shared flags as persistent flags on cmd.
func (g *Globals) Bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&g.ConfigPath, "config", "", "Config file (JSON or YAML)")
	f.StringVarP(&g.ProgramID, "program", "p", "", "Queue program ID (base58)")
	f.StringVar(&g.Network, "network", "", "Network: local|dev|test|main")
	f.StringVar(&g.Endpoint, "endpoint", "", "gRPC endpoint; overrides --network")
	f.StringVar(&g.Wallet, "wallet", "", "Keypair file (JSON byte array)")
	f.StringVar(&g.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	f.StringVar(&g.LogFormat, "log-format", "", "Log format: text|json")
}

// NewRoot constructs a root Cobra command carrying every client command,
// with the shared flags bound to g.
func NewRoot(g *Globals) *cobra.Command {
	root := &cobra.Command{
		Use:           "ddmonitor",
		Short:         "ddmonitor client commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.Bind(root)
	root.AddCommand(Commands(g)...)
	return root
}

// Commands returns the client command groups bound to g.
func Commands(g *Globals) []*cobra.Command {
	return []*cobra.Command{
		newAddressCommand(g),
		newKeygenCommand(g),
		newAirdropCommand(g),
		NewQueueCommand(g),
		newChatCommand(g),
		newMonitorCommand(g),
	}
}
