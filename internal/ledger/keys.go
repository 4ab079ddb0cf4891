package ledger

import "github.com/solanafuns/ddmonitor/internal/identity"

// Keyspace:
//   - acct/{addr}/a   account state
//   - ledger/slot     last committed slot (8B BE)
// The change log for an address lives under acct/{addr}/log/.

var (
	keySlot       = []byte("ledger/slot")
	acctPrefix    = []byte("acct/")
	accountSuffix = []byte("/a")
)

func keyAccount(addr identity.Identity) []byte {
	k := make([]byte, 0, len(acctPrefix)+identity.Size+len(accountSuffix))
	k = append(k, acctPrefix...)
	k = append(k, addr[:]...)
	return append(k, accountSuffix...)
}
