package enums

import "fmt"

// CartStatus tracks a cart through its payment lifecycle. A user has at most
// one pending cart at a time; checkout confirmation moves it to wait, and the
// admin decision settles it as paid or canceled.
type CartStatus string

const (
	CartStatusPending  CartStatus = "pending"
	CartStatusWait     CartStatus = "wait"
	CartStatusPaid     CartStatus = "paid"
	CartStatusCanceled CartStatus = "canceled"
)

var validCartStatuses = []CartStatus{
	CartStatusPending,
	CartStatusWait,
	CartStatusPaid,
	CartStatusCanceled,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
