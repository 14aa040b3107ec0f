package httpapi

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var chars = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
var max = big.NewInt(int64(len(chars)))

//randString returns a random string of given length using crypto/rand
func randString(length int) (string, error) {
	str := make([]byte, length)
	for i := range str {
		k, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("could not read random number: %w", err)
		}
		str[i] = chars[k.Int64()]
	}
	return string(str), nil
}
