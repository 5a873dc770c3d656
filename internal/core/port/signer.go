package port

// Signer creates and verifies request tokens over canonical paths.
// Implementations are stateless given their configuration.
type Signer interface {
	// CreateToken derives the token for a path.
	CreateToken(path string) string
	// VerifyToken checks a presented token against the path in constant time.
	VerifyToken(token, path string) bool
}
