package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// AccountType selects which side of the marketplace a new account joins.
type AccountType string

const (
	AccountEmployer   AccountType = "employer"
	AccountFreelancer AccountType = "freelancer"
)

// AccountProfile is the input to the signup orchestrators. Profiles are built
// fresh per scenario and never mutated once constructed.
type AccountProfile struct {
	AccountType     AccountType `json:"account_type" yaml:"account_type"`
	PrimaryRole     string      `json:"primary_role" yaml:"primary_role"`
	Industries      []string    `json:"industries" yaml:"industries"`
	FirstName       string      `json:"first_name" yaml:"first_name"`
	LastName        string      `json:"last_name" yaml:"last_name"`
	Email           string      `json:"email" yaml:"email"`
	Password        string      `json:"password,omitempty" yaml:"-"`
	ConfirmPassword string      `json:"-" yaml:"-"`
}

// HasPassword reports whether the profile carries credentials for the
// password step. OAuth profiles do not.
func (p AccountProfile) HasPassword() bool {
	return p.Password != "" && p.ConfirmPassword != ""
}

// RoleKey returns the lookup key for the profile's primary role.
func (p AccountProfile) RoleKey() string {
	return RoleKey(p.PrimaryRole)
}

// IndustryKeys returns the lookup keys for the requested industries, in order.
func (p AccountProfile) IndustryKeys() []string {
	keys := make([]string, 0, len(p.Industries))
	for _, industry := range p.Industries {
		keys = append(keys, IndustryKey(industry))
	}
	return keys
}

// FullName joins first and last name.
func (p AccountProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// RoleKey lowercases a role label and strips every whitespace rune, so
// "Business Owner" becomes "businessowner".
func RoleKey(label string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, label)
}

// IndustryKey lowercases an industry label.
func IndustryKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// GenerateTestEmail returns an address that is unique per call: a nanosecond
// timestamp plus a random suffix taken from a v4 UUID.
func GenerateTestEmail() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("test-user-%d-%s@example.com", time.Now().UnixNano(), suffix)
}
