// Package client provides the `ddmonitor` command-line client.
//
// The commands talk to a ledger host over gRPC to create queues, push
// actions, manage allow lists and follow queue updates from a terminal.
//
// # Connection configuration
//
// Every command reads the config file named by --config (JSON or YAML),
// overlays DDM_* environment variables, then applies flags. The host is
// --endpoint when set, otherwise the endpoint mapped to --network. The
// signing keypair is read from --wallet and generated on first use.
//
// Usage
//
//	ddmonitor keygen --outfile ~/.config/ddmonitor/id.json
//	ddmonitor airdrop 2000000000
//	ddmonitor address demo
//
//	ddmonitor queue create demo --size 64 --allow-count 3
//	ddmonitor queue push demo --message "hello"
//	ddmonitor queue push demo --sample 4,2
//	ddmonitor queue allow demo 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
//	ddmonitor queue show demo
//	ddmonitor queue watch demo --filter 'kind == "user_message"' --dedupe
//
//	ddmonitor chat --room lobby --start
//	ddmonitor monitor --name default
package client
