package model

import (
	"time"

	"golang.org/x/text/cases"
)

// Supplier is a directory entry mapping a manufacturer to its contact emails.
type Supplier struct {
	ID           string    `json:"id" yaml:"id"`
	Manufacturer string    `json:"manufacturer" yaml:"manufacturer"`
	Emails       []string  `json:"emails" yaml:"emails"`
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"updated_at"`
}

// HasEmail reports whether email is already listed (exact match).
func (s *Supplier) HasEmail(email string) bool {
	return indexOf(s.Emails, email) >= 0
}

// RemoveEmail deletes the first exact match of email and reports whether one
// was found.
func (s *Supplier) RemoveEmail(email string) bool {
	i := indexOf(s.Emails, email)
	if i < 0 {
		return false
	}
	s.Emails = append(s.Emails[:i:i], s.Emails[i+1:]...)
	return true
}

// SameManufacturer reports whether name identifies this supplier. Matching
// uses Unicode case folding.
func (s *Supplier) SameManufacturer(name string) bool {
	return ManufacturerKey(s.Manufacturer) == ManufacturerKey(name)
}

// ManufacturerKey returns the case-folded identity of a manufacturer name.
func ManufacturerKey(name string) string {
	return cases.Fold().String(name)
}

// NormalizeEmails reconciles the current list with the legacy single-email
// field. Records written before the list existed carry only the scalar, so
// legacy applies only when emails is absent (nil); an empty list stays
// empty. The result is never nil.
func NormalizeEmails(emails []string, legacy string) []string {
	if emails == nil {
		if legacy != "" {
			return []string{legacy}
		}
		return []string{}
	}
	return emails
}

// FlattenEmails concatenates every supplier's emails in directory order.
// Duplicates across suppliers are kept.
func FlattenEmails(suppliers []Supplier) []string {
	out := make([]string, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, s.Emails...)
	}
	return out
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
