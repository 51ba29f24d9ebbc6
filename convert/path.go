package convert

import "github.com/ethereum/go-ethereum/common"

// Conversion paths are a degenerate hop encoding: exactly two 20-byte token
// addresses with no fee tier between them. That shape is what distinguishes a
// bridge conversion from a router swap at dispatch time.
const conversionPathLength = 2 * common.AddressLength

// EncodeConversionPath packs a two-token conversion path.
func EncodeConversionPath(from, to common.Address) []byte {
	path := make([]byte, 0, conversionPathLength)
	path = append(path, from.Bytes()...)
	path = append(path, to.Bytes()...)
	return path
}

// ParseConversionPath splits a candidate conversion path into its endpoints.
// It reports false for any payload that is not exactly two addresses.
func ParseConversionPath(path []byte) (common.Address, common.Address, bool) {
	if len(path) != conversionPathLength {
		return common.Address{}, common.Address{}, false
	}
	from := common.BytesToAddress(path[:common.AddressLength])
	to := common.BytesToAddress(path[common.AddressLength:])
	return from, to, true
}

// IsConversionPath reports whether path is a bridge conversion for the
// module's configured pair: two hops, no fee tier, endpoints matching the
// pair in either order.
func (m *Module) IsConversionPath(path []byte) bool {
	if !m.Enabled() {
		return false
	}
	from, to, ok := ParseConversionPath(path)
	if !ok {
		return false
	}
	return (from == m.tokenA && to == m.tokenB) || (from == m.tokenB && to == m.tokenA)
}

// PathAToB returns the encoded conversion path from token A to token B,
// exposed on the read surface so callers can build positions without
// re-deriving the layout.
func (m *Module) PathAToB() []byte {
	if !m.Enabled() {
		return nil
	}
	return EncodeConversionPath(m.tokenA, m.tokenB)
}

// PathBToA returns the encoded conversion path from token B to token A.
func (m *Module) PathBToA() []byte {
	if !m.Enabled() {
		return nil
	}
	return EncodeConversionPath(m.tokenB, m.tokenA)
}
