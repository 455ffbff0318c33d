package config

import (
	"log"
	"os"
	"strings"
	"sync"
)

var (
	secretKey     string
	secretKeyOnce sync.Once
)

// SecretKey returns the application secret. It is read from SECRET_KEY exactly
// once at first use; in production mode a missing value is fatal.
func SecretKey() string {
	secretKeyOnce.Do(func() {
		secretKey = strings.TrimSpace(os.Getenv("SECRET_KEY"))
		if secretKey == "" {
			if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
				log.Fatal("SECRET_KEY must be set in production")
			}
			secretKey = "dev-secret"
		}
	})
	return secretKey
}
