package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc"

	ddmv1 "github.com/solanafuns/ddmonitor/api/ddmonitor/v1"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/runtime"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

type ledgerSvc struct {
	ddmv1.UnimplementedLedgerServer
	rt     *runtime.Runtime
	logger log.Logger
}

func (s *ledgerSvc) SendTransaction(ctx context.Context, req *ddmv1.SendTransactionRequest) (*ddmv1.SendTransactionResponse, error) {
	if req.Transaction == nil {
		return nil, ddmv1.Errorf("transaction is required")
	}
	rcpt, err := s.rt.Ledger().Submit(ctx, req.Transaction)
	if err != nil {
		return nil, ddmv1.ToStatus(err)
	}
	return &ddmv1.SendTransactionResponse{Receipt: rcpt}, nil
}

func (s *ledgerSvc) GetAccount(ctx context.Context, req *ddmv1.GetAccountRequest) (*ddmv1.GetAccountResponse, error) {
	l := s.rt.Ledger()
	a, err := l.GetAccount(ctx, req.Address)
	if err != nil {
		return nil, ddmv1.ToStatus(err)
	}
	return &ddmv1.GetAccountResponse{Account: a, Slot: l.Slot(), Seq: l.LastSeq(req.Address)}, nil
}

func (s *ledgerSvc) GetMinimumBalance(_ context.Context, req *ddmv1.GetMinimumBalanceRequest) (*ddmv1.GetMinimumBalanceResponse, error) {
	if req.Size > ledger.MaxAccountDataSize {
		return nil, ddmv1.Errorf("size %d exceeds the account limit %d", req.Size, ledger.MaxAccountDataSize)
	}
	return &ddmv1.GetMinimumBalanceResponse{Lamports: s.rt.Ledger().MinimumBalance(int(req.Size))}, nil
}

func (s *ledgerSvc) RequestAirdrop(ctx context.Context, req *ddmv1.RequestAirdropRequest) (*ddmv1.RequestAirdropResponse, error) {
	if req.Lamports == 0 {
		return nil, ddmv1.Errorf("lamports must be positive")
	}
	rcpt, err := s.rt.Ledger().Airdrop(ctx, req.Address, req.Lamports)
	if err != nil {
		return nil, ddmv1.ToStatus(err)
	}
	return &ddmv1.RequestAirdropResponse{Receipt: rcpt}, nil
}

func (s *ledgerSvc) GetHealth(ctx context.Context, _ *ddmv1.HealthRequest) (*ddmv1.HealthResponse, error) {
	if err := s.rt.CheckHealth(ctx); err != nil {
		return &ddmv1.HealthResponse{Status: "not_serving"}, nil
	}
	return &ddmv1.HealthResponse{Status: "ok", Slot: s.rt.Ledger().Slot()}, nil
}

func (s *ledgerSvc) SubscribeAccount(req *ddmv1.SubscribeAccountRequest, stream grpc.ServerStreamingServer[ddmv1.AccountUpdate]) error {
	ctx := stream.Context()
	s.logger.Debug("subscribe", log.Stringer("address", req.Address), log.Uint64("from_seq", req.FromSeq))
	err := s.rt.Ledger().Subscribe(ctx, req.Address, req.FromSeq, func(u ledger.Update) error {
		return stream.Send(&u)
	})
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return ddmv1.ToStatus(err)
}
