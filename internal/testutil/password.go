package testutil

import (
	"sync"

	"github.com/sinar-app/sinar-api/internal/utils"
)

const Password = "password123"

var (
	hashOnce sync.Once
	hashed   string
	hashErr  error
)

// passwordHash computes the bcrypt hash of Password once per test binary.
func passwordHash() (string, error) {
	hashOnce.Do(func() {
		hashed, hashErr = utils.HashPassword(Password)
	})
	return hashed, hashErr
}
