package utils

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const specialChars = "!@#$%^&*.,"

// GenerateRandomPassword returns a 12 character password that satisfies
// ValidatePassword.
func GenerateRandomPassword() (string, error) {
	password := make([]byte, 0, 12)
	for _, set := range []string{"ABCDEFGHIJKLMNOPQRSTUVWXYZ", "0123456789", specialChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}
	for len(password) < cap(password) {
		c, err := randomChar(passwordCharset)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}
	for i := len(password) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		password[i], password[j.Int64()] = password[j.Int64()], password[i]
	}
	return string(password), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}

// ValidatePassword enforces the password policy. blackList may be nil.
func ValidatePassword(password string, blackList map[string]bool) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		return fmt.Errorf("password must contain at least one number")
	}
	if !strings.ContainsAny(password, specialChars) {
		return fmt.Errorf("password must contain at least one special character")
	}
	if blackList[password] {
		return fmt.Errorf("password is too common. Please choose a stronger one")
	}
	return nil
}

// LoadBlackList reads one password per line.
func LoadBlackList(filePath string) (map[string]bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blackList := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			blackList[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blackList, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateVerificationCode returns a zero-padded six digit code.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
