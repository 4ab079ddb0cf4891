// Package sdk builds, signs and submits queue program transactions against
// any ledger host, and reads queue state back.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/solanafuns/ddmonitor/internal/action"
	"github.com/solanafuns/ddmonitor/internal/address"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/program"
	"github.com/solanafuns/ddmonitor/internal/queue"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// ErrQueueUnavailable reports a queue address held by something that is
// not a usable queue of this program.
var ErrQueueUnavailable = errors.New("sdk: queue address is not available")

// Submitter sends signed transactions.
type Submitter interface {
	SendTransaction(ctx context.Context, tx *ledger.Transaction) (ledger.Receipt, error)
}

// AccountFetcher reads committed accounts. Missing accounts report
// ledger.ErrAccountNotFound.
type AccountFetcher interface {
	GetAccount(ctx context.Context, addr identity.Identity) (*ledger.Account, error)
}

// RentOracle quotes the rent-exempt minimum for an account size.
type RentOracle interface {
	MinimumBalance(ctx context.Context, size int) (uint64, error)
}

// Host is everything the client needs from a ledger.
type Host interface {
	Submitter
	AccountFetcher
	RentOracle
}

// Client acts for one payer against one queue program.
type Client struct {
	host      Host
	programID identity.Identity
	payer     identity.Keypair
	nonce     atomic.Uint64
	logger    log.Logger
}

func New(host Host, programID identity.Identity, payer identity.Keypair, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	c := &Client{host: host, programID: programID, payer: payer, logger: logger.WithComponent("sdk")}
	c.nonce.Store(uint64(time.Now().UnixNano()))
	return c
}

func (c *Client) ProgramID() identity.Identity { return c.programID }
func (c *Client) Payer() identity.Identity     { return c.payer.Identity() }

// QueueAddress derives the storage address and bump for name.
func (c *Client) QueueAddress(name string) (identity.Identity, uint8, error) {
	return address.QueueAddress(c.programID, name)
}

// BuildInstruction wraps ix with the payer, the derived queue address and
// the system program.
func (c *Client) BuildInstruction(ix program.Instruction) (ledger.Instruction, error) {
	return program.NewInstruction(c.programID, c.payer.Identity(), ix)
}

// Send signs ixs as one transaction and submits it.
func (c *Client) Send(ctx context.Context, ixs ...program.Instruction) (ledger.Receipt, error) {
	built := make([]ledger.Instruction, 0, len(ixs))
	for _, ix := range ixs {
		lix, err := c.BuildInstruction(ix)
		if err != nil {
			return ledger.Receipt{}, err
		}
		built = append(built, lix)
	}
	tx := ledger.NewTransaction(c.payer.Identity(), c.nonce.Add(1), built...)
	tx.Sign(c.payer)
	rcpt, err := c.host.SendTransaction(ctx, tx)
	if err != nil {
		return ledger.Receipt{}, err
	}
	c.logger.Debug("transaction committed", log.Str("signature", rcpt.Signature), log.Uint64("slot", rcpt.Slot))
	return rcpt, nil
}

// Availability describes what currently lives at a queue's address.
type Availability int

const (
	// Vacant means nothing is stored at the address yet.
	Vacant Availability = iota
	// Ready means a funded, initialized queue of this program is there.
	Ready
	// Occupied means the address holds something that is not a usable queue.
	Occupied
)

func (a Availability) String() string {
	switch a {
	case Vacant:
		return "vacant"
	case Ready:
		return "ready"
	default:
		return "occupied"
	}
}

// CheckQueue reports the state of name's address. A queue is Ready when the
// program owns it, it holds lamports, it is not executable and its data is
// non-empty.
func (c *Client) CheckQueue(ctx context.Context, name string) (Availability, identity.Identity, error) {
	addr, _, err := c.QueueAddress(name)
	if err != nil {
		return Occupied, identity.Zero, err
	}
	a, err := c.host.GetAccount(ctx, addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return Vacant, addr, nil
	}
	if err != nil {
		return Occupied, addr, err
	}
	if a.Owner == c.programID && a.Lamports > 0 && !a.Executable && len(a.Data) > 0 {
		return Ready, addr, nil
	}
	if a.Owner == ledger.SystemProgramID && len(a.Data) == 0 && !a.Executable {
		// pre-funded but never initialized; registration tops it up
		return Vacant, addr, nil
	}
	return Occupied, addr, nil
}

// EnsureQueue registers name unless a usable queue already exists there. It
// reports whether this call created it.
func (c *Client) EnsureQueue(ctx context.Context, name string, dataSize uint64, allowCount uint8) (identity.Identity, bool, error) {
	state, addr, err := c.CheckQueue(ctx, name)
	if err != nil {
		return addr, false, err
	}
	switch state {
	case Ready:
		c.logger.Info("queue exists", log.Str("name", name), log.Stringer("address", addr))
		return addr, false, nil
	case Occupied:
		return addr, false, fmt.Errorf("%w: %s (%s)", ErrQueueUnavailable, name, addr)
	}
	if _, err := c.Register(ctx, name, dataSize, allowCount); err != nil {
		return addr, false, err
	}
	c.logger.Info("queue created",
		log.Str("name", name),
		log.Stringer("address", addr),
		log.Uint64("data_size", dataSize),
		log.Int("allow_count", int(allowCount)))
	return addr, true, nil
}

// Register creates the queue unconditionally. The payer must cover the
// rent-exempt deposit minus whatever already sits at the queue address;
// a short payer fails here with program.ErrInsufficientFunds before any
// transaction is signed.
func (c *Client) Register(ctx context.Context, name string, dataSize uint64, allowCount uint8) (ledger.Receipt, error) {
	addr, _, err := c.QueueAddress(name)
	if err != nil {
		return ledger.Receipt{}, err
	}
	deposit, err := c.host.MinimumBalance(ctx, queue.SerializedSize(dataSize, int(allowCount)))
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("sdk: rent quote for %s: %w", name, err)
	}
	held, err := c.lamports(ctx, addr)
	if err != nil {
		return ledger.Receipt{}, err
	}
	need := deposit - min(deposit, held)
	have, err := c.lamports(ctx, c.Payer())
	if err != nil {
		return ledger.Receipt{}, err
	}
	if have < need {
		return ledger.Receipt{}, fmt.Errorf("%w: payer %s has %d lamports, queue %s needs %d", program.ErrInsufficientFunds, c.Payer(), have, name, need)
	}
	c.logger.Debug("rent deposit", log.Str("name", name), log.Uint64("lamports", deposit), log.Uint64("payer_share", need))
	return c.Send(ctx, program.RegisterQueue{Name: name, DataSize: dataSize, AllowCount: allowCount})
}

// lamports is the balance at addr, 0 when nothing is stored there.
func (c *Client) lamports(ctx context.Context, addr identity.Identity) (uint64, error) {
	a, err := c.host.GetAccount(ctx, addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return a.Lamports, nil
}

// Push replaces the queue's data with payload.
func (c *Client) Push(ctx context.Context, name string, payload []byte) (ledger.Receipt, error) {
	return c.Send(ctx, program.PushMessage{Name: name, Data: payload})
}

// PushAction frames a and pushes it.
func (c *Client) PushAction(ctx context.Context, name string, a action.Action) (ledger.Receipt, error) {
	b, err := action.Encode(a)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return c.Push(ctx, name, b)
}

// Allow grants who push rights. Only the creator may call it.
func (c *Client) Allow(ctx context.Context, name string, who identity.Identity) (ledger.Receipt, error) {
	return c.Send(ctx, program.UserPubOperation{Name: name, UserPub: who.String(), Allow: true})
}

// Revoke removes who's push rights. Only the creator may call it.
func (c *Client) Revoke(ctx context.Context, name string, who identity.Identity) (ledger.Receipt, error) {
	return c.Send(ctx, program.UserPubOperation{Name: name, UserPub: who.String(), Allow: false})
}

// FetchQueue loads and decodes the queue record for name.
func (c *Client) FetchQueue(ctx context.Context, name string) (*queue.Record, identity.Identity, error) {
	addr, _, err := c.QueueAddress(name)
	if err != nil {
		return nil, identity.Zero, err
	}
	a, err := c.host.GetAccount(ctx, addr)
	if err != nil {
		return nil, addr, err
	}
	if a.Owner != c.programID {
		return nil, addr, fmt.Errorf("%w: %s owned by %s", ErrQueueUnavailable, addr, a.Owner)
	}
	rec, err := queue.Decode(a.Data)
	if err != nil {
		return nil, addr, err
	}
	return rec, addr, nil
}
