package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// generateToken emite un bearer token opaco: timestamp + sufijo aleatorio.
// El sufijo es un UUID v4, suficiente para este contexto de baja concurrencia.
func generateToken() string {
	return fmt.Sprintf("auth_token_%d_%s", time.Now().UnixMilli(), uuid.NewString())
}

func hashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func checkPassword(hash, password string) bool {
	if strings.TrimSpace(hash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
