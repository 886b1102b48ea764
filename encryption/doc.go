// Package encryption seals tokens at rest for the file-backed token store.
//
// Keys are passphrases hashed with SHA-256 into 256-bit keys. Two AEAD
// algorithms are supported: AES-256-GCM (default) and ChaCha20-Poly1305.
//
//	enc, err := encryption.New("passphrase", encryption.WithAlgorithm(encryption.AlgorithmChaCha20))
//	sealed, err := enc.Encrypt(token)
package encryption
