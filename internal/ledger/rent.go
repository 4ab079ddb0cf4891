package ledger

// AccountStorageOverhead is charged on top of data length when sizing rent.
const AccountStorageOverhead = 128

// Rent sizes the balance an account needs to be exempt from rent.
type Rent struct {
	LamportsPerByteYear uint64  `json:"lamports_per_byte_year" yaml:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `json:"exemption_threshold" yaml:"exemption_threshold"`
}

// DefaultRent mirrors mainnet parameters.
func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: 3480, ExemptionThreshold: 2.0}
}

// MinimumBalance is the rent-exempt minimum for size bytes of data.
func (r Rent) MinimumBalance(size int) uint64 {
	bytes := uint64(size) + AccountStorageOverhead
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// IsExempt reports whether lamports cover size bytes.
func (r Rent) IsExempt(lamports uint64, size int) bool {
	return lamports >= r.MinimumBalance(size)
}
