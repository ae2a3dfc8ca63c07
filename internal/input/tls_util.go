package input

import (
	"crypto/x509"
	"fmt"
	"os"
)

func loadCAPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("input: read CA file %q: %w", path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("input: no certificates found in %q", path)
	}
	return pool, nil
}
