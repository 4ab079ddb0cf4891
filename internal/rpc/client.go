// Package rpc is the gRPC client for a ddmonitor ledger host. Client
// implements the collaborator interfaces the sdk and watch packages
// depend on.
package rpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	ddmv1 "github.com/solanafuns/ddmonitor/api/ddmonitor/v1"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
)

// Client talks to one ledger host over a shared connection.
type Client struct {
	conn *grpc.ClientConn
	api  ddmv1.LedgerClient
}

// Dial connects to endpoint with plaintext transport for local and dev
// hosts. Extra options are applied after the defaults.
func Dial(endpoint string, opts ...grpc.DialOption) (*Client, error) {
	base := append(ddmv1.DialOptions(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	conn, err := grpc.NewClient(endpoint, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, api: ddmv1.NewLedgerClient(conn)}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// SendTransaction submits a signed transaction and waits for its receipt.
func (c *Client) SendTransaction(ctx context.Context, tx *ledger.Transaction) (ledger.Receipt, error) {
	res, err := c.api.SendTransaction(ctx, &ddmv1.SendTransactionRequest{Transaction: tx})
	if err != nil {
		return ledger.Receipt{}, ddmv1.FromStatus(err)
	}
	return res.Receipt, nil
}

// GetAccount fetches the committed account at addr. A missing account
// reports ledger.ErrAccountNotFound.
func (c *Client) GetAccount(ctx context.Context, addr identity.Identity) (*ledger.Account, error) {
	res, err := c.api.GetAccount(ctx, &ddmv1.GetAccountRequest{Address: addr})
	if err != nil {
		return nil, ddmv1.FromStatus(err)
	}
	if res.Account == nil {
		return nil, ledger.ErrAccountNotFound
	}
	return res.Account, nil
}

// AccountSeq returns the newest change log sequence of the account at addr.
func (c *Client) AccountSeq(ctx context.Context, addr identity.Identity) (uint64, error) {
	res, err := c.api.GetAccount(ctx, &ddmv1.GetAccountRequest{Address: addr})
	if err != nil {
		return 0, ddmv1.FromStatus(err)
	}
	return res.Seq, nil
}

// MinimumBalance asks the host for the rent-exempt minimum of size bytes.
func (c *Client) MinimumBalance(ctx context.Context, size int) (uint64, error) {
	res, err := c.api.GetMinimumBalance(ctx, &ddmv1.GetMinimumBalanceRequest{Size: uint64(size)})
	if err != nil {
		return 0, ddmv1.FromStatus(err)
	}
	return res.Lamports, nil
}

// Airdrop requests lamports from the host's dev faucet.
func (c *Client) Airdrop(ctx context.Context, addr identity.Identity, lamports uint64) (ledger.Receipt, error) {
	res, err := c.api.RequestAirdrop(ctx, &ddmv1.RequestAirdropRequest{Address: addr, Lamports: lamports})
	if err != nil {
		return ledger.Receipt{}, ddmv1.FromStatus(err)
	}
	return res.Receipt, nil
}

// Health returns the host status string and its last committed slot.
func (c *Client) Health(ctx context.Context) (string, uint64, error) {
	res, err := c.api.GetHealth(ctx, &ddmv1.HealthRequest{})
	if err != nil {
		return "", 0, err
	}
	return res.Status, res.Slot, nil
}

// Subscribe streams snapshots of addr into fn until ctx is done, the
// stream fails or fn returns an error. Cancellation returns ctx.Err().
func (c *Client) Subscribe(ctx context.Context, addr identity.Identity, fromSeq uint64, fn func(ledger.Update) error) error {
	stream, err := c.api.SubscribeAccount(ctx, &ddmv1.SubscribeAccountRequest{Address: addr, FromSeq: fromSeq})
	if err != nil {
		return ddmv1.FromStatus(err)
	}
	for {
		u, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			if status.Code(err) == codes.Canceled {
				return context.Canceled
			}
			return ddmv1.FromStatus(err)
		}
		if err := fn(*u); err != nil {
			return err
		}
	}
}
