package services

import (
	"context"
	"fmt"
	"strings"

	"qrific/internal/fulfillment"
	"qrific/internal/models"
)

// Flat sales-tax rates in basis points, keyed by two-letter region code.
// Regions not listed are taxed at zero.
var taxRatesBP = map[string]int64{
	"TX": 625,
	"CA": 725,
	"NY": 400,
	"FL": 600,
	"WA": 650,
	"PA": 600,
	"IL": 625,
	"CO": 290,
}

// TaxPolicy controls which base the flat rate applies to. Jurisdictions
// differ on whether shipping is taxable, so this is configuration, not law.
type TaxPolicy struct {
	TaxOnShipping bool
}

// OrderPricing is the server-side verified money breakdown, all in cents.
type OrderPricing struct {
	Subtotal  int64
	Shipping  int64
	Tax       int64
	TaxRateBP int64
	Total     int64
	Region    string
}

// verifyPricing recomputes every monetary figure of the cart from
// authoritative sources. Client-claimed prices are only ever compared,
// never trusted. Any unknown variant, price disagreement, or partner
// failure aborts the whole verification.
func (s *CheckoutService) verifyPricing(ctx context.Context, req *models.CheckoutRequest) (*OrderPricing, []models.OrderItem, error) {
	if len(req.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: cart has no items", ErrInvalidShipping)
	}

	variants, err := s.partner.Variants(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to fetch catalog: %v", ErrPartnerUnavailable, err)
	}
	catalog := make(map[string]fulfillment.Variant, len(variants))
	for _, v := range variants {
		catalog[v.ID] = v
	}

	var subtotal int64
	items := make([]models.OrderItem, 0, len(req.Items))
	lines := make([]fulfillment.LineItem, 0, len(req.Items))
	for _, line := range req.Items {
		variant, ok := catalog[line.VariantID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownVariant, line.VariantID)
		}
		if variant.Price != line.Price {
			return nil, nil, fmt.Errorf("%w: variant %s claimed %d, catalog says %d",
				ErrPriceMismatch, line.VariantID, line.Price, variant.Price)
		}

		subtotal += variant.Price * int64(line.Quantity)
		items = append(items, models.OrderItem{
			ProductID:    variant.ProductID,
			ProductTitle: variant.ProductTitle,
			VariantID:    variant.ID,
			VariantTitle: variant.Title,
			Price:        variant.Price,
			Quantity:     line.Quantity,
		})
		lines = append(lines, fulfillment.LineItem{VariantID: variant.ID, Quantity: line.Quantity})
	}

	rates, err := s.partner.ShippingRates(ctx, recipientFromAddress(req.Address), lines)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to quote shipping: %v", ErrPartnerUnavailable, err)
	}

	var shipping int64
	switch req.ShippingMethod {
	case "standard":
		shipping = rates.Standard
	case "express":
		shipping = rates.Express
	default:
		return nil, nil, fmt.Errorf("%w: unsupported shipping method %q", ErrInvalidShipping, req.ShippingMethod)
	}
	if shipping < 0 {
		return nil, nil, fmt.Errorf("%w: negative shipping quote", ErrInvalidShipping)
	}

	region := strings.ToUpper(req.Address.State)
	rateBP := taxRatesBP[region] // zero for unrecognized regions

	base := subtotal
	if s.taxPolicy.TaxOnShipping {
		base += shipping
	}
	tax := roundedTax(base, rateBP)

	pricing := &OrderPricing{
		Subtotal:  subtotal,
		Shipping:  shipping,
		Tax:       tax,
		TaxRateBP: rateBP,
		Total:     subtotal + shipping + tax,
		Region:    region,
	}
	return pricing, items, nil
}

// roundedTax applies a basis-point rate to a cent amount, rounding half up.
func roundedTax(base, rateBP int64) int64 {
	return (base*rateBP + 5000) / 10000
}

func recipientFromAddress(a models.ShippingAddress) fulfillment.Recipient {
	return fulfillment.Recipient{
		Name:        a.FirstName + " " + a.LastName,
		Address1:    a.Address,
		City:        a.City,
		StateCode:   a.State,
		CountryCode: a.Country,
		Zip:         a.ZipCode,
		Phone:       a.Phone,
		Email:       a.Email,
	}
}
