package billing

import (
	"strings"

	"github.com/go-faster/errors"
)

// ErrUnknownPaymentType is returned when a payment type name is not one of
// Card, Cash or UPI.
var ErrUnknownPaymentType = errors.New("unknown payment type")

// PaymentType enumerates the ways a bill can be settled. The zero value means
// no payment type has been chosen.
type PaymentType string

const (
	PaymentCard PaymentType = "Card"
	PaymentCash PaymentType = "Cash"
	PaymentUPI  PaymentType = "UPI"
)

// PaymentTypes lists the accepted payment types in display order.
func PaymentTypes() []PaymentType {
	return []PaymentType{PaymentCard, PaymentCash, PaymentUPI}
}

// ParsePaymentType maps a case-insensitive name to a PaymentType. An empty
// name yields the unset payment type.
func ParsePaymentType(s string) (PaymentType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, pt := range PaymentTypes() {
		if strings.EqualFold(s, string(pt)) {
			return pt, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownPaymentType, "%q", s)
}

// IsSet reports whether a payment type has been chosen.
func (p PaymentType) IsSet() bool {
	return p != ""
}

func (p PaymentType) String() string {
	return string(p)
}
