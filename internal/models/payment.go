package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Payment type codes as published in the yellow taxi data dictionary
const (
	PaymentVoidUnknown int64 = 0
	PaymentCreditCard  int64 = 1
	PaymentCash        int64 = 2
	PaymentNoCharge    int64 = 3
	PaymentDispute     int64 = 4
)

var paymentLabels = map[int64]string{
	PaymentVoidUnknown: "Void/Unknown",
	PaymentCreditCard:  "Credit Card",
	PaymentCash:        "Cash",
	PaymentNoCharge:    "No Charge",
	PaymentDispute:     "Dispute",
}

const unknownPaymentPrefix = "ID "

// PaymentLabel maps a payment code to its display label.
// Codes outside the published dictionary render as "ID <code>".
func PaymentLabel(code int64) string {
	if label, ok := paymentLabels[code]; ok {
		return label
	}
	return unknownPaymentPrefix + strconv.FormatInt(code, 10)
}

// IsPublishedPayment reports whether code is in the published dictionary
func IsPublishedPayment(code int64) bool {
	_, ok := paymentLabels[code]
	return ok
}

// PaymentCode resolves a display label (or a bare numeric code) back to its code
func PaymentCode(label string) (int64, error) {
	label = strings.TrimSpace(label)
	for code, l := range paymentLabels {
		if strings.EqualFold(l, label) {
			return code, nil
		}
	}

	raw := strings.TrimPrefix(label, unknownPaymentPrefix)
	code, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown payment type %q", label)
	}
	return code, nil
}

// PaymentOptions returns the labels for the given codes sorted alphabetically
func PaymentOptions(codes []int64) []string {
	options := make([]string, 0, len(codes))
	for _, code := range codes {
		options = append(options, PaymentLabel(code))
	}
	sort.Strings(options)
	return options
}
