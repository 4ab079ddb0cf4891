package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mr-tron/base58"

	"github.com/solanafuns/ddmonitor/internal/changelog"
	"github.com/solanafuns/ddmonitor/internal/identity"
	pebblestore "github.com/solanafuns/ddmonitor/internal/storage/pebble"
	"github.com/solanafuns/ddmonitor/pkg/id"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// recentCapacity bounds the replay-protection window.
const recentCapacity = 4096

// Metrics observes ledger activity.
type Metrics interface {
	ObserveTransaction(result string, elapsed time.Duration)
	ObserveInstruction(program string, elapsed time.Duration)
	AddAccountBytes(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTransaction(string, time.Duration) {}
func (noopMetrics) ObserveInstruction(string, time.Duration) {}
func (noopMetrics) AddAccountBytes(int)                      {}

// FaucetOptions gates Airdrop.
type FaucetOptions struct {
	Enabled     bool
	MaxLamports uint64
}

type Options struct {
	Rent   Rent
	Clock  Clock
	Faucet FaucetOptions
	// RetainSnapshots caps the change log per address; 0 keeps everything.
	RetainSnapshots int
	Metrics         Metrics
	Logger          log.Logger
}

// Receipt describes a committed transaction.
type Receipt struct {
	ID        string              `json:"id"`
	Slot      uint64              `json:"slot"`
	Signature string              `json:"signature,omitempty"`
	Accounts  []identity.Identity `json:"accounts"`
}

// Update is one committed snapshot of a subscribed account.
type Update struct {
	Address identity.Identity `json:"address"`
	Seq     uint64            `json:"seq"`
	Slot    uint64            `json:"slot"`
	Account *Account          `json:"account"`
}

// Ledger is a single-node host: it stores accounts in Pebble, runs
// registered programs against signed transactions, and publishes every
// account change to its change log.
type Ledger struct {
	db     *pebblestore.DB
	logs   *changelog.Store
	opts   Options
	logger log.Logger
	ids    *id.Generator

	mu       sync.Mutex
	closed   bool
	slot     uint64
	programs map[identity.Identity]Program
	names    map[identity.Identity]string
	// recent holds the IDs of the latest committed transactions
	recent   *lru.Cache[string, struct{}]
}

// Open builds a ledger over db and restores the last committed slot.
func Open(db *pebblestore.DB, opts Options) (*Ledger, error) {
	if opts.Rent == (Rent{}) {
		opts.Rent = DefaultRent()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	l := &Ledger{
		db:       db,
		logs:     changelog.NewStore(db, opts.RetainSnapshots),
		opts:     opts,
		logger:   opts.Logger.WithComponent("ledger"),
		ids:      id.NewGenerator(),
		programs: map[identity.Identity]Program{SystemProgramID: systemProgram{}},
		names:    map[identity.Identity]string{},
	}
	recent, err := lru.New[string, struct{}](recentCapacity)
	if err != nil {
		return nil, err
	}
	l.recent = recent
	raw, err := db.Get(keySlot)
	switch {
	case err == nil && len(raw) == 8:
		l.slot = binary.BigEndian.Uint64(raw)
	case err == nil:
		return nil, fmt.Errorf("ledger: corrupt slot record")
	case !errors.Is(err, pebblestore.ErrNotFound):
		return nil, err
	}
	swept, err := l.logs.Sweep(context.Background())
	if err != nil {
		return nil, fmt.Errorf("ledger: sweep change logs: %w", err)
	}
	if swept > 0 {
		l.logger.Info("change logs trimmed", log.Int("deleted", swept), log.Int("retain", opts.RetainSnapshots))
	}
	return l, nil
}

// Register installs prog under programID. name labels metrics and logs.
func (l *Ledger) Register(programID identity.Identity, name string, prog Program) error {
	if programID == SystemProgramID {
		return fmt.Errorf("ledger: %s is reserved for the system program", programID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.programs[programID]; ok {
		return fmt.Errorf("ledger: program %s already registered", programID)
	}
	l.programs[programID] = prog
	l.names[programID] = name
	return nil
}

func (l *Ledger) program(pid identity.Identity) (Program, bool) {
	p, ok := l.programs[pid]
	return p, ok
}

// Rent returns the configured rent parameters.
func (l *Ledger) Rent() Rent { return l.opts.Rent }

// MinimumBalance is the rent-exempt minimum for size bytes.
func (l *Ledger) MinimumBalance(size int) uint64 { return l.opts.Rent.MinimumBalance(size) }

// Slot is the last committed slot.
func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

func (l *Ledger) load(addr identity.Identity) (*Account, error) {
	raw, err := l.db.Get(keyAccount(addr))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return &Account{}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeAccount(raw)
}

// GetAccount returns the committed account at addr.
func (l *Ledger) GetAccount(_ context.Context, addr identity.Identity) (*Account, error) {
	a, err := l.load(addr)
	if err != nil {
		return nil, err
	}
	if !a.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return a, nil
}

// Submit verifies and executes tx. Either every account change commits in
// one batch or nothing does.
func (l *Ledger) Submit(ctx context.Context, tx *Transaction) (Receipt, error) {
	start := time.Now()
	rcpt, err := l.submit(ctx, tx)
	result := "ok"
	if err != nil {
		result = "error"
		l.logger.Debug("transaction rejected", log.Err(err))
	}
	l.opts.Metrics.ObserveTransaction(result, time.Since(start))
	return rcpt, err
}

func (l *Ledger) submit(ctx context.Context, tx *Transaction) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	signers, err := tx.Verify()
	if err != nil {
		return Receipt{}, err
	}
	sigKey := string(tx.ID())

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Receipt{}, ErrClosed
	}
	if l.recent.Contains(sigKey) {
		return Receipt{}, ErrDuplicateTransaction
	}

	st := &txState{
		l:        l,
		accounts: make(map[identity.Identity]*Account),
		now:      l.opts.Clock().Unix(),
		logger:   l.logger,
	}
	original := make(map[identity.Identity]*Account)
	addrs := append([]identity.Identity{tx.FeePayer}, accountsOf(tx)...)
	for _, addr := range addrs {
		if _, ok := st.accounts[addr]; ok {
			continue
		}
		a, err := l.load(addr)
		if err != nil {
			return Receipt{}, err
		}
		st.accounts[addr] = a
		original[addr] = a.Clone()
	}

	for i, ix := range tx.Instructions {
		if err := st.execute(ix, signers, nil, 1); err != nil {
			return Receipt{}, fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	changed := make([]identity.Identity, 0, len(st.accounts))
	for addr, a := range st.accounts {
		if a.equal(original[addr]) {
			continue
		}
		if len(a.Data) > 0 && !l.opts.Rent.IsExempt(a.Lamports, len(a.Data)) {
			return Receipt{}, fmt.Errorf("%w: %s below rent-exempt minimum %d", ErrInsufficientFunds, addr, l.opts.Rent.MinimumBalance(len(a.Data)))
		}
		changed = append(changed, addr)
	}
	sortIdentities(changed)

	rcpt, err := l.commit(ctx, st.accounts, changed)
	if err != nil {
		return Receipt{}, err
	}
	l.remember(sigKey)
	rcpt.Signature = base58.Encode(tx.ID())
	return rcpt, nil
}

// commit persists changed accounts and their snapshots. Callers hold l.mu.
func (l *Ledger) commit(ctx context.Context, accounts map[identity.Identity]*Account, changed []identity.Identity) (Receipt, error) {
	slot := l.slot + 1
	now := l.opts.Clock()
	b := l.db.NewBatch()
	defer b.Close()

	staged := make([]*changelog.Log, 0, len(changed))
	abort := func() {
		for _, lg := range staged {
			lg.Abort()
		}
	}
	written := 0
	for _, addr := range changed {
		a := accounts[addr]
		enc := EncodeAccount(a)
		var err error
		if a.Exists() {
			err = b.Set(keyAccount(addr), enc, nil)
			written += len(a.Data)
		} else {
			err = b.Delete(keyAccount(addr), nil)
		}
		if err != nil {
			abort()
			return Receipt{}, err
		}
		lg := l.logs.Open(addr)
		if _, err := lg.Stage(b, changelog.Header{Slot: slot, CommitMs: now.UnixMilli()}, enc); err != nil {
			abort()
			return Receipt{}, err
		}
		staged = append(staged, lg)
	}
	var sb [8]byte
	binary.BigEndian.PutUint64(sb[:], slot)
	if err := b.Set(keySlot, sb[:], nil); err != nil {
		abort()
		return Receipt{}, err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		abort()
		return Receipt{}, err
	}
	l.slot = slot
	for _, lg := range staged {
		lg.Publish()
	}
	l.opts.Metrics.AddAccountBytes(written)
	return Receipt{ID: l.ids.Next().String(), Slot: slot, Accounts: changed}, nil
}

func (l *Ledger) remember(key string) {
	if key == "" {
		return
	}
	l.recent.Add(key, struct{}{})
}

// Airdrop credits lamports to addr from the dev faucet.
func (l *Ledger) Airdrop(ctx context.Context, addr identity.Identity, lamports uint64) (Receipt, error) {
	if !l.opts.Faucet.Enabled {
		return Receipt{}, ErrFaucetDisabled
	}
	if l.opts.Faucet.MaxLamports > 0 && lamports > l.opts.Faucet.MaxLamports {
		return Receipt{}, fmt.Errorf("%w: request %d exceeds faucet limit %d", ErrInvalidInstructionData, lamports, l.opts.Faucet.MaxLamports)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Receipt{}, ErrClosed
	}
	a, err := l.load(addr)
	if err != nil {
		return Receipt{}, err
	}
	a.Lamports += lamports
	rcpt, err := l.commit(ctx, map[identity.Identity]*Account{addr: a}, []identity.Identity{addr})
	if err != nil {
		return Receipt{}, err
	}
	l.logger.Info("airdrop", log.Stringer("to", addr), log.Uint64("lamports", lamports))
	return rcpt, nil
}

// LastSeq is the newest change log sequence of addr, 0 if it never changed.
// Subscribing from LastSeq()+1 misses nothing committed after the call.
func (l *Ledger) LastSeq(addr identity.Identity) uint64 {
	return l.logs.Open(addr).LastSeq()
}

// Subscribe calls fn with every committed snapshot of addr. fromSeq 0
// delivers only changes after the call; otherwise delivery resumes at
// fromSeq. It returns when ctx is done or fn fails.
func (l *Ledger) Subscribe(ctx context.Context, addr identity.Identity, fromSeq uint64, fn func(Update) error) error {
	lg := l.logs.Open(addr)
	after := lg.LastSeq()
	if fromSeq > 0 {
		after = fromSeq - 1
	}
	return lg.Follow(ctx, after, func(it changelog.Item) error {
		a, err := DecodeAccount(it.Payload)
		if err != nil {
			l.logger.Warn("skipping corrupt snapshot", log.Stringer("address", addr), log.Uint64("seq", it.Seq), log.Err(err))
			return nil
		}
		return fn(Update{Address: addr, Seq: it.Seq, Slot: it.Header.Slot, Account: a})
	})
}

// CheckHealth verifies the store is readable.
func (l *Ledger) CheckHealth(context.Context) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	it, err := l.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Close stops accepting transactions. The store is owned by the caller.
func (l *Ledger) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func accountsOf(tx *Transaction) []identity.Identity {
	var out []identity.Identity
	for _, ix := range tx.Instructions {
		for _, m := range ix.Accounts {
			out = append(out, m.Address)
		}
	}
	return out
}

func sortIdentities(ids []identity.Identity) {
	sort.Slice(ids, func(i, j int) bool {
		return string(ids[i][:]) < string(ids[j][:])
	})
}
