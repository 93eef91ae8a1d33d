package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a password with a per-call random salt, so that
// hashing the same password twice yields distinct output.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. It is constant
// time relative to the hash's cost parameter.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
