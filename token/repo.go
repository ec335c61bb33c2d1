package token

// DefaultStorageKey is the durable storage key holding the raw access token.
const DefaultStorageKey = "gsor.access_token"

// Persister mirrors the access token to durable storage. A missing key is not an error:
// Load returns an empty string for it.
type Persister interface {
	Load(key string) (string, error)
	Save(key, token string) error
	Delete(key string) error
}
