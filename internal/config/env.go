package config

import (
	"os"
	"strconv"
)

// FromEnv overlays DDM_* environment variables onto cfg. Unparseable values
// are ignored.
func FromEnv(cfg *Config) {
	str := map[string]*string{
		"DDM_PROGRAM_ID": &cfg.ProgramID,
		"DDM_NETWORK":    &cfg.Network,
		"DDM_ENDPOINT":   &cfg.Endpoint,
		"DDM_GRPC_ADDR":  &cfg.GRPCAddr,
		"DDM_HTTP_ADDR":  &cfg.HTTPAddr,
		"DDM_DATA_DIR":   &cfg.DataDir,
		"DDM_FSYNC":      &cfg.Fsync,
		"DDM_WALLET":     &cfg.Wallet,
		"DDM_LOG_LEVEL":  &cfg.Log.Level,
		"DDM_LOG_FORMAT": &cfg.Log.Format,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("DDM_RENT_LAMPORTS_PER_BYTE_YEAR"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Rent.LamportsPerByteYear = n
		}
	}
	if v := os.Getenv("DDM_RENT_EXEMPTION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Rent.ExemptionThreshold = f
		}
	}
	if v := os.Getenv("DDM_FAUCET_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Faucet.Enabled = b
		}
	}
	if v := os.Getenv("DDM_FAUCET_MAX_LAMPORTS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Faucet.MaxLamports = n
		}
	}
	if v := os.Getenv("DDM_CHANGELOG_RETAIN_SNAPSHOTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChangeLog.RetainSnapshots = n
		}
	}
}
