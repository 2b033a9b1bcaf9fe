package convert

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credentials is the conversion provider key pair persisted alongside the
// service. Only the public key is used for authentication; the secret key is
// stored for completeness.
type Credentials struct {
	PublicKey string `json:"publicKey"`
	SecretKey string `json:"secretKey,omitempty"`
}

// LoadCredentials reads the key pair from path. A missing file is not an
// error: the service starts unconfigured and keys arrive via the admin API.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	return c, nil
}

// SaveCredentials writes the key pair to path with owner-only permissions.
func SaveCredentials(path string, c Credentials) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
