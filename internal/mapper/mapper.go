// Package mapper converts loaded Shopify orders into Everstox create-order
// payloads. Mapping is pure: no I/O and no state beyond the configured shop
// instance.
package mapper

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/shopspring/decimal"
)

// Placeholder values used when Shopify data is missing. Operators are
// expected to spot and correct them in Everstox.
const (
	PlaceholderText        = "TODO"
	PlaceholderZip         = "00000"
	PlaceholderCountryCode = "DE"
	PlaceholderEmail       = "unknown@example.com"
	PlaceholderSKU         = "TODO"

	// ShopifyOrderIDAttribute links an Everstox order back to its source.
	ShopifyOrderIDAttribute = "shopify_order_id"
)

type Mapper struct {
	shopInstanceID uuid.UUID
}

func New(shopInstanceID uuid.UUID) *Mapper {
	return &Mapper{shopInstanceID: shopInstanceID}
}

// Map builds the Everstox payload for order.
func (m *Mapper) Map(order models.Order) models.EverstoxOrder {
	shipmentOptions := []models.ShipmentOption{}
	// untitled shipping lines carry no shipment option
	if sl := order.ShippingLine; sl != nil && strings.TrimSpace(sl.Title) != "" {
		shipmentOptions = append(shipmentOptions, models.ShipmentOption{Name: sl.Title})
	}

	items := mapOrderItems(order.LineItems, shipmentOptions)
	if len(items) == 0 {
		items = []models.OrderItem{placeholderItem()}
	}

	email := PlaceholderEmail
	if order.Email != nil && *order.Email != "" {
		email = *order.Email
	}

	return models.EverstoxOrder{
		ShopInstanceID:  m.shopInstanceID,
		OrderNumber:     order.Name,
		OrderDate:       order.CreatedAt,
		CustomerEmail:   email,
		FinancialStatus: order.FinancialStatus,
		ShippingAddress: mapShippingAddress(order.ShippingAddress),
		BillingAddress:  mapBillingAddress(order.BillingAddress),
		ShippingPrice:   mapShippingPrice(order.ShippingLine, order.Currency),
		OrderItems:      items,
		CustomAttributes: []models.EverstoxAttribute{
			{AttributeKey: ShopifyOrderIDAttribute, AttributeValue: order.ID},
		},
	}
}

func mapShippingAddress(addr *models.OrderShippingAddress) models.ShippingAddress {
	if addr == nil {
		return models.ShippingAddress{
			FirstName:   PlaceholderText,
			LastName:    PlaceholderText,
			CountryCode: PlaceholderCountryCode,
			City:        PlaceholderText,
			Zip:         PlaceholderZip,
			Address1:    PlaceholderText,
		}
	}
	return models.ShippingAddress{
		FirstName:    addr.FirstName,
		LastName:     addr.LastName,
		CountryCode:  addr.CountryCode,
		City:         addr.City,
		Zip:          addr.Zip,
		Address1:     addr.Address1,
		Address2:     addr.Address2,
		Company:      addr.Company,
		Phone:        addr.Phone,
		Country:      addr.Country,
		ProvinceCode: addr.ProvinceCode,
		Province:     addr.Province,
	}
}

func mapBillingAddress(addr *models.OrderBillingAddress) models.BillingAddress {
	if addr == nil {
		return models.BillingAddress{
			FirstName:   PlaceholderText,
			LastName:    PlaceholderText,
			CountryCode: PlaceholderCountryCode,
			City:        PlaceholderText,
			Zip:         PlaceholderZip,
			Address1:    PlaceholderText,
		}
	}
	return models.BillingAddress{
		FirstName:    addr.FirstName,
		LastName:     addr.LastName,
		CountryCode:  addr.CountryCode,
		City:         addr.City,
		Zip:          addr.Zip,
		Address1:     addr.Address1,
		Address2:     addr.Address2,
		Company:      addr.Company,
		Phone:        addr.Phone,
		Country:      addr.Country,
		ProvinceCode: addr.ProvinceCode,
		Province:     addr.Province,
		VATNumber:    addr.VATNumber,
	}
}

func mapShippingPrice(sl *models.OrderShippingLine, orderCurrency string) models.ShippingPrice {
	if sl == nil {
		return models.ShippingPrice{Currency: orderCurrency}
	}

	taxAmount := sumTax(sl.TaxLines)
	discount := sl.OriginalPrice.Sub(sl.DiscountedPrice)

	return models.ShippingPrice{
		Currency:              sl.Currency,
		Price:                 sl.DiscountedPrice.InexactFloat64(),
		PriceNetAfterDiscount: sl.DiscountedPrice.Sub(taxAmount).InexactFloat64(),
		TaxAmount:             taxAmount.InexactFloat64(),
		TaxRate:               firstRate(sl.TaxLines),
		Tax:                   taxAmount.InexactFloat64(),
		Discount:              discount.InexactFloat64(),
		DiscountGross:         discount.InexactFloat64(),
	}
}

func mapOrderItems(lineItems []models.OrderLineItem, shipmentOptions []models.ShipmentOption) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lineItems))
	for _, item := range lineItems {
		taxAmount := sumTax(item.TaxLines)
		discount := item.DiscountTotal.InexactFloat64()

		attributes := make([]models.EverstoxAttribute, 0, len(item.CustomAttributes))
		for _, attr := range item.CustomAttributes {
			attributes = append(attributes, models.EverstoxAttribute{
				AttributeKey:   attr.Key,
				AttributeValue: attr.Value,
			})
		}

		// items must not share a backing array
		options := make([]models.ShipmentOption, len(shipmentOptions))
		copy(options, shipmentOptions)

		items = append(items, models.OrderItem{
			Quantity:        item.Quantity,
			Product:         models.Product{SKU: item.SKU},
			ShipmentOptions: options,
			PriceSet: []models.PriceSet{{
				Quantity:              item.Quantity,
				Currency:              item.Currency,
				Price:                 item.Price.InexactFloat64(),
				PriceNetAfterDiscount: item.Price.Sub(item.DiscountTotal).InexactFloat64(),
				TaxAmount:             taxAmount.InexactFloat64(),
				TaxRate:               firstRate(item.TaxLines),
				Tax:                   taxAmount.InexactFloat64(),
				Discount:              discount,
				DiscountGross:         discount,
			}},
			CustomAttributes: attributes,
		})
	}
	return items
}

func placeholderItem() models.OrderItem {
	return models.OrderItem{
		Quantity:         1,
		Product:          models.Product{SKU: PlaceholderSKU},
		ShipmentOptions:  []models.ShipmentOption{},
		PriceSet:         []models.PriceSet{},
		CustomAttributes: []models.EverstoxAttribute{},
	}
}

func sumTax(lines []models.OrderTaxLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}

// firstRate reports the first tax line's rate as the representative rate.
// Multiple jurisdictions are not averaged.
func firstRate(lines []models.OrderTaxLine) float64 {
	if len(lines) == 0 {
		return 0
	}
	return lines[0].Rate
}
