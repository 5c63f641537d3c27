package mycipher

//go:generate mockgen -source=api.go -package mycipher -destination cipher_mock.go Cipher

// Cipher protects secrets at rest. Stores never see plaintext tokens:
// everything that is persisted goes through Encrypt first.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
