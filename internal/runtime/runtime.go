package runtime

import (
	"context"
	"errors"
	"fmt"

	cfgpkg "github.com/solanafuns/ddmonitor/internal/config"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/metrics"
	"github.com/solanafuns/ddmonitor/internal/program"
	pebblestore "github.com/solanafuns/ddmonitor/internal/storage/pebble"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// ProgramName labels the queue program in logs and metrics.
const ProgramName = "queue"

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
	// Clock overrides host time; nil uses the wall clock.
	Clock   ledger.Clock
	Logger  log.Logger
	Metrics *metrics.Registry
}

// Runtime wires storage, the local ledger and the queue program for a
// single-node host.
type Runtime struct {
	db        *pebblestore.DB
	ledger    *ledger.Ledger
	config    cfgpkg.Config
	programID identity.Identity
	metrics   *metrics.Registry
	logger    log.Logger
}

// Open initializes storage, restores the ledger and registers the queue
// program under Config.ProgramID.
func Open(opts Options) (*Runtime, error) {
	programID, err := opts.Config.Program()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	reg := opts.Metrics
	if reg == nil {
		reg = metrics.New()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: opts.DataDir,
		Fsync:   opts.Fsync,
		Metrics: reg,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	l, err := ledger.Open(db, ledger.Options{
		Rent: ledger.Rent{
			LamportsPerByteYear: opts.Config.Rent.LamportsPerByteYear,
			ExemptionThreshold:  opts.Config.Rent.ExemptionThreshold,
		},
		Clock: opts.Clock,
		Faucet: ledger.FaucetOptions{
			Enabled:     opts.Config.Faucet.Enabled,
			MaxLamports: opts.Config.Faucet.MaxLamports,
		},
		RetainSnapshots: opts.Config.ChangeLog.RetainSnapshots,
		Metrics:         reg,
		Logger:          logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := l.Register(programID, ProgramName, program.NewProcessor(programID)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runtime: %w", err)
	}
	logger.Info("runtime ready",
		log.Component("runtime"),
		log.Stringer("program", programID),
		log.Uint64("slot", l.Slot()),
		log.Str("data_dir", opts.DataDir))
	return &Runtime{db: db, ledger: l, config: opts.Config, programID: programID, metrics: reg, logger: logger}, nil
}

// Close stops the ledger and closes storage.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	r.ledger.Close()
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	return r.ledger.CheckHealth(ctx)
}

// Ledger returns the local host ledger.
func (r *Runtime) Ledger() *ledger.Ledger { return r.ledger }

// ProgramID is the identity the queue program is registered under.
func (r *Runtime) ProgramID() identity.Identity { return r.programID }

// Metrics returns the registry every component reports to.
func (r *Runtime) Metrics() *metrics.Registry { return r.metrics }

// Logger returns the runtime's root logger.
func (r *Runtime) Logger() log.Logger { return r.logger }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
