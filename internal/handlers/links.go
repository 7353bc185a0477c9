package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// qrEndpoint is the third-party QR image service. The browser loads the
// returned URL directly as an <img>; there is no local fallback when
// the service is down.
const qrEndpoint = "https://api.qrserver.com/v1/create-qr-code/"

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// PayPalLink builds a paypal.me payment link for the given handle and
// amount. Full URLs pass through untouched.
func PayPalLink(handle string, amount float64) string {
	if strings.HasPrefix(handle, "http") {
		return handle
	}
	return fmt.Sprintf("https://www.paypal.com/paypalme/%s/%s",
		strings.TrimPrefix(handle, "@"), formatAmount(amount))
}

// VenmoLink builds a venmo payment link carrying the amount and the
// participant's alias as the memo. Full URLs pass through untouched.
func VenmoLink(handle string, amount float64, alias string) string {
	if strings.HasPrefix(handle, "http") {
		return handle
	}
	q := url.Values{}
	q.Set("txn", "pay")
	q.Set("amount", formatAmount(amount))
	q.Set("note", "SuperBowlSquares_"+alias)
	return fmt.Sprintf("https://venmo.com/%s?%s", strings.TrimPrefix(handle, "@"), q.Encode())
}

// QRImageURL builds the QR service URL for arbitrary payload text.
func QRImageURL(data string, size int) string {
	q := url.Values{}
	q.Set("size", fmt.Sprintf("%dx%d", size, size))
	q.Set("data", data)
	q.Set("margin", "10")
	return qrEndpoint + "?" + q.Encode()
}
