package services

import "errors"

// Sentinel errors for the checkout and activation flows. Handlers map these
// to HTTP status codes with errors.Is.
var (
	// ErrPriceMismatch: a client-claimed variant price disagrees with the
	// partner catalog. A trust-boundary rejection, always fatal.
	ErrPriceMismatch = errors.New("cart price does not match catalog price")
	// ErrUnknownVariant: a cart line references a variant the catalog
	// doesn't carry.
	ErrUnknownVariant = errors.New("unknown variant")
	// ErrInvalidShipping: the partner could not quote the requested method.
	ErrInvalidShipping = errors.New("invalid shipping data")
	// ErrOrderNotFound: no local order matches the lookup.
	ErrOrderNotFound = errors.New("order not found")
	// ErrPartnerUnavailable: a third-party API call failed.
	ErrPartnerUnavailable = errors.New("partner unavailable")
	// ErrActivationNotFound: no purchased, unactivated QR code matches the
	// submitted activation code and shirt id.
	ErrActivationNotFound = errors.New("activation code not found")
	// ErrQRCodeNotFound: a scanned URL code matches no printed QR code.
	ErrQRCodeNotFound = errors.New("QR code not found")
)
