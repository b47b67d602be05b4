package commands

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/foundation/keystore"
)

// GenKey creates an x509 private key for signing auth tokens. The file is
// named after a new key id and written into folder.
func GenKey(folder string) (string, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}

	if err := os.MkdirAll(folder, 0o700); err != nil {
		return "", fmt.Errorf("creating key folder: %w", err)
	}

	kid := uuid.NewString()
	path := filepath.Join(folder, kid+".pem")

	if err := os.WriteFile(path, []byte(keystore.EncodePrivateKey(privateKey)), 0o600); err != nil {
		return "", fmt.Errorf("writing private key: %w", err)
	}

	fmt.Println("private key file generated:", path)
	fmt.Println("set AUTH_ACTIVE_KID to", kid)

	return kid, nil
}
