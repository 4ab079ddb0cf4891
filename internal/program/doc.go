// Package program is the on-ledger queue program. It registers queues at
// addresses derived from their names, accepts pushes from allow-listed
// identities, and lets each queue's creator grant or revoke push rights.
//
// Every instruction takes the accounts [payer (signer, writable), queue
// (writable), system program] and re-derives the queue address from the name
// rather than trusting the supplied account.
package program
