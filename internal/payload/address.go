package payload

import (
	"bytes"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// ParseAddress accepts both user-friendly (EQ.../UQ...) and raw
// (workchain:hex) address forms.
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		return address.ParseRawAddr(s)
	}
	return address.ParseAddr(s)
}

// SameAddress compares workchain and account id, ignoring the bounce and
// testnet flags of the friendly form.
func SameAddress(address1, address2 *address.Address) bool {
	if address1 == nil || address2 == nil {
		return address1 == address2
	}
	return address1.Workchain() == address2.Workchain() &&
		bytes.Equal(address1.Data(), address2.Data())
}
