package lib

import (
	"strings"

	"github.com/google/uuid"
)

// ResolveCustomerIdentifier builds a stable identity key for preference
// tracking. Precedence: registered customer id, then email, then phone.
// Returns ErrUnidentifiableCustomer when no field yields an identity.
func ResolveCustomerIdentifier(customerID *uuid.UUID, email, phone string) (string, error) {
	if customerID != nil && *customerID != uuid.Nil {
		return "customer:" + customerID.String(), nil
	}

	if normalized := NormalizeEmail(email); normalized != "" {
		return "email:" + normalized, nil
	}

	if digits := NormalizePhone(phone); digits != "" {
		return "phone:" + digits, nil
	}

	return "", ErrUnidentifiableCustomer
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything except digits so that formatting
// variants of the same number collapse to one identity.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
