package banktest

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const idCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateID returns prefix followed by eight random alphanumerics, e.g.
// usr-Ab12CdEf.
func generateID(prefix string) string {
	result := make([]byte, 8)
	for i := range result {
		result[i] = idCharset[randInt(len(idCharset))]
	}
	return prefix + string(result)
}

// generateAccountNumber returns an 8-digit number starting with 01.
func generateAccountNumber() string {
	return fmt.Sprintf("01%06d", randInt(1000000))
}

func generateSortCode() string {
	return fmt.Sprintf("%02d-%02d-%02d", randInt(100), randInt(100), randInt(100))
}

func randInt(n int) int {
	num, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(num.Int64())
}

func hashPassword(password string) (string, error) {
	// Test fixtures only, so the minimum cost is enough.
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
