package orders

import (
	"strings"
	"unicode/utf8"
)

// Status is a free-form label. Any label may follow any other; only existence of the
// order is enforced structurally.
type Status string

const (
	StatusUnpaid    Status = "unpaid"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
)

const DefaultStatus = StatusUnpaid

const maxStatusLen = 64

func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalidf("status cannot be empty")
	}
	if utf8.RuneCountInString(s) > maxStatusLen {
		return "", invalidf("status longer than %d characters", maxStatusLen)
	}
	return Status(s), nil
}

// Known reports whether s is one of the predefined labels.
func (s Status) Known() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusShipped, StatusCompleted:
		return true
	}
	return false
}
