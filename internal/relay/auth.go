package relay

import "crypto/subtle"

// checkToken compares the supplied token against the configured one in
// constant time, so response timing doesn't leak how many leading bytes
// matched.
func checkToken(supplied, want string) bool {
	if len(supplied) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(want)) == 1
}
