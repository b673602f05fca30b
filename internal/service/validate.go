package service

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 6

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// isValidDate acepta exactamente 8 dígitos DDMMYYYY con rangos por campo.
// No hay chequeo de calendario: 30/02 pasa. Ese es el contrato.
func isValidDate(date string) bool {
	if len(date) != 8 {
		return false
	}
	for _, r := range date {
		if r < '0' || r > '9' {
			return false
		}
	}
	day := int(date[0]-'0')*10 + int(date[1]-'0')
	month := int(date[2]-'0')*10 + int(date[3]-'0')
	year := 0
	for i := 4; i < 8; i++ {
		year = year*10 + int(date[i]-'0')
	}
	return day >= 1 && day <= 31 && month >= 1 && month <= 12 && year >= 1900 && year <= 2025
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
