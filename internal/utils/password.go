package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash of the account secret using the
// given cost. Hash failure must abort the calling operation (signup or
// password change); callers never fall back to storing the plaintext.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash and a plain password. bcrypt's
// comparison is constant-time, so the result leaks no timing signal.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
