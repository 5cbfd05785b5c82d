package domain

// KDFConfig describes the parameters of the key-derivation function.
//
// It is handed out by value, so every caller gets an independent copy and
// cannot alter the parameters used by the deriver that produced it.
type KDFConfig struct {
	Algorithm    string // Key-derivation algorithm name ("pbkdf2")
	HashFunction string // Underlying hash ("sha256")
	Iterations   int    // Iteration count, at least MinIterations in production
	SaltLength   int    // Always SaltLength
	KeyLength    int    // Always KeyLength
}
