// Package config provides loading and environment overlay for ddmonitor
// configuration shared by the ledger server and the client CLI.
//
// Example:
//
//	cfg, err := config.Load("/etc/ddmonitor.yaml") // or .json; "" for defaults
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	programID, err := cfg.Program()
//	endpoint, err := cfg.ResolveEndpoint()
package config
