package address

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solanafuns/ddmonitor/internal/identity"
)

func TestPropertyDerivationIsPure(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	properties := gopter.NewProperties(params)

	properties.Property("same inputs give same address and bump", prop.ForAll(
		func(prog []byte, name string) bool {
			var pid identity.Identity
			copy(pid[:], prog)
			a1, b1, err1 := QueueAddress(pid, name)
			a2, b2, err2 := QueueAddress(pid, name)
			if err1 != nil || err2 != nil {
				return false
			}
			return a1 == a2 && b1 == b2 && !OnCurve(a1)
		},
		gen.SliceOfN(32, gen.UInt8()),
		gen.AlphaString().Map(func(s string) string {
			if len(s) > MaxSeedLength {
				return s[:MaxSeedLength]
			}
			return s
		}),
	))

	properties.TestingRun(t)
}
