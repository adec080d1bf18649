package service

import (
	"crypto/rand"
	"fmt"
)

const digits = "0123456789"

// randomDigits 生成 n 位随机数字串。
func randomDigits(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range b {
		b[i] = digits[int(b[i])%len(digits)]
	}
	return string(b), nil
}

// randomCode 生成 n 位随机数字串，首位不为 0。
func randomCode(n int) (string, error) {
	code, err := randomDigits(n)
	if err != nil {
		return "", err
	}
	for code[0] == '0' {
		head, err := randomDigits(1)
		if err != nil {
			return "", err
		}
		code = head + code[1:]
	}
	return code, nil
}
