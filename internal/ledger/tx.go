package ledger

import (
	"fmt"

	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/wire"
)

// AccountMeta names an account an instruction touches and the privileges it
// needs.
type AccountMeta struct {
	Address    identity.Identity `json:"address"`
	IsSigner   bool              `json:"is_signer"`
	IsWritable bool              `json:"is_writable"`
}

func NewAccountMeta(addr identity.Identity, signer bool) AccountMeta {
	return AccountMeta{Address: addr, IsSigner: signer, IsWritable: true}
}

func NewReadonlyAccountMeta(addr identity.Identity, signer bool) AccountMeta {
	return AccountMeta{Address: addr, IsSigner: signer}
}

// Instruction is one program call.
type Instruction struct {
	ProgramID identity.Identity `json:"program_id"`
	Accounts  []AccountMeta     `json:"accounts"`
	Data      []byte            `json:"data"`
}

// Signature binds a signer to its ed25519 signature over the message.
type Signature struct {
	Signer    identity.Identity `json:"signer"`
	Signature []byte            `json:"signature"`
}

// Transaction is an ordered list of instructions applied atomically.
type Transaction struct {
	FeePayer     identity.Identity `json:"fee_payer"`
	Nonce        uint64            `json:"nonce"`
	Instructions []Instruction     `json:"instructions"`
	Signatures   []Signature       `json:"signatures"`
}

// NewTransaction builds an unsigned transaction.
func NewTransaction(feePayer identity.Identity, nonce uint64, ixs ...Instruction) *Transaction {
	return &Transaction{FeePayer: feePayer, Nonce: nonce, Instructions: ixs}
}

// Message is the byte string signers sign: everything but the signatures.
func (tx *Transaction) Message() []byte {
	w := wire.NewWriter(256)
	w.Identity(tx.FeePayer)
	w.U64(tx.Nonce)
	w.U32(uint32(len(tx.Instructions)))
	for _, ix := range tx.Instructions {
		w.Identity(ix.ProgramID)
		w.U32(uint32(len(ix.Accounts)))
		for _, m := range ix.Accounts {
			w.Identity(m.Address)
			w.Bool(m.IsSigner)
			w.Bool(m.IsWritable)
		}
		w.ByteSeq(ix.Data)
	}
	return w.Bytes()
}

// Sign appends a signature from each keypair, replacing an earlier one by
// the same signer.
func (tx *Transaction) Sign(keys ...identity.Keypair) {
	msg := tx.Message()
	for _, k := range keys {
		sig := Signature{Signer: k.Identity(), Signature: k.Sign(msg)}
		replaced := false
		for i := range tx.Signatures {
			if tx.Signatures[i].Signer == sig.Signer {
				tx.Signatures[i] = sig
				replaced = true
			}
		}
		if !replaced {
			tx.Signatures = append(tx.Signatures, sig)
		}
	}
}

// RequiredSigners lists the fee payer and every account marked signer, once each.
func (tx *Transaction) RequiredSigners() []identity.Identity {
	seen := map[identity.Identity]bool{tx.FeePayer: true}
	out := []identity.Identity{tx.FeePayer}
	for _, ix := range tx.Instructions {
		for _, m := range ix.Accounts {
			if m.IsSigner && !seen[m.Address] {
				seen[m.Address] = true
				out = append(out, m.Address)
			}
		}
	}
	return out
}

// Verify checks every signature and that each required signer has signed.
// It returns the set of verified signers.
func (tx *Transaction) Verify() (map[identity.Identity]bool, error) {
	if len(tx.Instructions) == 0 {
		return nil, fmt.Errorf("%w: no instructions", ErrMalformedTransaction)
	}
	msg := tx.Message()
	signed := make(map[identity.Identity]bool, len(tx.Signatures))
	for _, s := range tx.Signatures {
		if !s.Signer.Verify(msg, s.Signature) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, s.Signer)
		}
		signed[s.Signer] = true
	}
	for _, req := range tx.RequiredSigners() {
		if !signed[req] {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequiredSignature, req)
		}
	}
	return signed, nil
}

// ID is the first signature, which identifies the transaction.
func (tx *Transaction) ID() []byte {
	if len(tx.Signatures) == 0 {
		return nil
	}
	return tx.Signatures[0].Signature
}
