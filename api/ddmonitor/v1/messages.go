package ddmv1

import (
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
)

type SendTransactionRequest struct {
	Transaction *ledger.Transaction `json:"transaction"`
}

type SendTransactionResponse struct {
	Receipt ledger.Receipt `json:"receipt"`
}

type GetAccountRequest struct {
	Address identity.Identity `json:"address"`
}

type GetAccountResponse struct {
	Account *ledger.Account `json:"account"`
	Slot    uint64          `json:"slot"`
	// Seq is the newest change log sequence of the address.
	Seq     uint64          `json:"seq"`
}

type GetMinimumBalanceRequest struct {
	Size uint64 `json:"size"`
}

type GetMinimumBalanceResponse struct {
	Lamports uint64 `json:"lamports"`
}

type RequestAirdropRequest struct {
	Address  identity.Identity `json:"address"`
	Lamports uint64            `json:"lamports"`
}

type RequestAirdropResponse struct {
	Receipt ledger.Receipt `json:"receipt"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Status string `json:"status"`
	Slot   uint64 `json:"slot"`
}

// SubscribeAccountRequest opens an account stream. FromSeq 0 streams only
// snapshots committed after the call; otherwise delivery resumes at FromSeq.
type SubscribeAccountRequest struct {
	Address identity.Identity `json:"address"`
	FromSeq uint64            `json:"from_seq,omitempty"`
}

// AccountUpdate is one committed snapshot of a subscribed account.
type AccountUpdate = ledger.Update
