// Package access holds the authorization decision: a byte-exact comparison
// of a read credential against the single compiled-in identity.
package access

// IdentityLength is the fixed credential identity size in bytes.
const IdentityLength = 4

// Identity is the byte sequence read from an access token.
type Identity [IdentityLength]byte

// DefaultAuthorized is the compiled-in authorized identity. It is fixed at
// build time and never mutated at runtime.
var DefaultAuthorized = Identity{0x63, 0xB4, 0x9A, 0x2B}

// Controller decides whether a read identity is authorized.
type Controller struct {
	authorized Identity
}

// NewController returns a Controller that grants exactly one identity.
func NewController(authorized Identity) *Controller {
	return &Controller{authorized: authorized}
}

// Authorize reports whether raw matches the authorized identity
// byte-for-byte. A single mismatched byte yields full denial; there is no
// partial-match semantics. Input of unexpected length is handled here as a
// plain denial rather than being passed along.
func (c *Controller) Authorize(raw []byte) bool {
	if len(raw) != IdentityLength {
		return false
	}
	for i := range c.authorized {
		if raw[i] != c.authorized[i] {
			return false
		}
	}
	return true
}
