package shopify

import (
	"fmt"

	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/shopspring/decimal"
)

// nodeDecoder turns raw GraphQL nodes into domain values and keeps the first
// structural problem it runs into.
type nodeDecoder struct {
	orderID string
	err     error
}

func (d *nodeDecoder) fail(field, reason string) {
	if d.err == nil {
		d.err = &MappingError{OrderID: d.orderID, Field: field, Reason: reason}
	}
}

func (d *nodeDecoder) require(field string, v *string) string {
	if v == nil {
		d.fail(field, "")
		return ""
	}
	return *v
}

func (d *nodeDecoder) amount(field string, bag *moneyBag) (decimal.Decimal, string) {
	if bag == nil || bag.ShopMoney == nil {
		d.fail(field, "")
		return decimal.Zero, ""
	}
	raw := d.require(field+".amount", bag.ShopMoney.Amount)
	currency := d.require(field+".currencyCode", bag.ShopMoney.CurrencyCode)
	if raw == "" {
		return decimal.Zero, currency
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		d.fail(field+".amount", fmt.Sprintf("invalid decimal %q", raw))
		return decimal.Zero, currency
	}
	return value, currency
}

func (d *nodeDecoder) taxLines(field string, nodes []taxLineNode) []models.OrderTaxLine {
	lines := make([]models.OrderTaxLine, 0, len(nodes))
	for i, node := range nodes {
		path := fmt.Sprintf("%s[%d]", field, i)
		amount, currency := d.amount(path+".priceSet", node.PriceSet)
		var rate float64
		if node.Rate != nil {
			rate = *node.Rate
		}
		lines = append(lines, models.OrderTaxLine{
			Rate:     rate,
			Amount:   amount,
			Currency: currency,
		})
	}
	return lines
}

func (d *nodeDecoder) shippingAddress(raw *mailingAddress) *models.OrderShippingAddress {
	if raw == nil {
		return nil
	}
	return &models.OrderShippingAddress{
		FirstName:    d.require("shippingAddress.firstName", raw.FirstName),
		LastName:     d.require("shippingAddress.lastName", raw.LastName),
		CountryCode:  d.require("shippingAddress.countryCode", raw.CountryCode),
		City:         d.require("shippingAddress.city", raw.City),
		Zip:          d.require("shippingAddress.zip", raw.Zip),
		Address1:     d.require("shippingAddress.address1", raw.Address1),
		Address2:     raw.Address2,
		Company:      raw.Company,
		Phone:        raw.Phone,
		Province:     raw.Province,
		ProvinceCode: raw.ProvinceCode,
		Country:      raw.Country,
	}
}

func (d *nodeDecoder) billingAddress(raw *mailingAddress) *models.OrderBillingAddress {
	if raw == nil {
		return nil
	}
	return &models.OrderBillingAddress{
		FirstName:    d.require("billingAddress.firstName", raw.FirstName),
		LastName:     d.require("billingAddress.lastName", raw.LastName),
		CountryCode:  d.require("billingAddress.countryCode", raw.CountryCode),
		City:         d.require("billingAddress.city", raw.City),
		Zip:          d.require("billingAddress.zip", raw.Zip),
		Address1:     d.require("billingAddress.address1", raw.Address1),
		Address2:     raw.Address2,
		Company:      raw.Company,
		Phone:        raw.Phone,
		Province:     raw.Province,
		ProvinceCode: raw.ProvinceCode,
		Country:      raw.Country,
	}
}

func (d *nodeDecoder) shippingLine(raw *shippingLineNode) *models.OrderShippingLine {
	if raw == nil {
		return nil
	}

	original, currency := d.amount("shippingLine.originalPriceSet", raw.OriginalPriceSet)
	discounted, _ := d.amount("shippingLine.discountedPriceSet", raw.DiscountedPriceSet)

	var title string
	if raw.Title != nil {
		title = *raw.Title
	}

	return &models.OrderShippingLine{
		Title:           title,
		Code:            raw.Code,
		OriginalPrice:   original,
		DiscountedPrice: discounted,
		Currency:        currency,
		TaxLines:        d.taxLines("shippingLine.taxLines", raw.TaxLines),
	}
}

// lineItems keeps only items with something left to ship and records the
// unfulfilled quantity as the item quantity.
func (d *nodeDecoder) lineItems(node *orderNode) []models.OrderLineItem {
	items := make([]models.OrderLineItem, 0, len(node.LineItems.Edges))
	for i, edge := range node.LineItems.Edges {
		raw := edge.Node
		if raw.UnfulfilledQuantity <= 0 {
			continue
		}

		path := fmt.Sprintf("lineItems[%d]", i)
		price, currency := d.amount(path+".originalUnitPriceSet", raw.OriginalUnitPriceSet)

		discount := decimal.Zero
		for j, allocation := range raw.DiscountAllocations {
			value, _ := d.amount(fmt.Sprintf("%s.discountAllocations[%d].allocatedAmountSet", path, j), allocation.AllocatedAmountSet)
			discount = discount.Add(value)
		}

		attributes := make([]models.CustomAttribute, 0, len(raw.CustomAttributes))
		for _, attr := range raw.CustomAttributes {
			var value string
			if attr.Value != nil {
				value = *attr.Value
			}
			attributes = append(attributes, models.CustomAttribute{Key: attr.Key, Value: value})
		}

		var title string
		if raw.Title != nil {
			title = *raw.Title
		}

		items = append(items, models.OrderLineItem{
			ID:               d.require(path+".id", raw.ID),
			Title:            title,
			Quantity:         raw.UnfulfilledQuantity,
			SKU:              d.require(path+".sku", raw.SKU),
			Price:            price,
			Currency:         currency,
			TaxLines:         d.taxLines(path+".taxLines", raw.TaxLines),
			DiscountTotal:    discount,
			CustomAttributes: attributes,
		})
	}
	return items
}

// mapNode converts one orders edge node into a models.Order.
func mapNode(node *orderNode) (models.Order, error) {
	d := &nodeDecoder{orderID: "<unknown>"}
	if node.ID != nil && *node.ID != "" {
		d.orderID = *node.ID
	}

	order := models.Order{
		ID:                d.require("id", node.ID),
		Name:              d.require("name", node.Name),
		FinancialStatus:   d.require("displayFinancialStatus", node.DisplayFinancialStatus),
		FulfillmentStatus: node.DisplayFulfillmentStatus,
		Tags:              normalizeTags(node.Tags),
		Email:             node.Email,
	}

	if node.CreatedAt == nil {
		d.fail("createdAt", "")
	} else {
		order.CreatedAt = node.CreatedAt.UTC()
	}

	order.TotalPrice, order.Currency = d.amount("totalPriceSet", node.TotalPriceSet)
	order.ShippingAddress = d.shippingAddress(node.ShippingAddress)
	order.BillingAddress = d.billingAddress(node.BillingAddress)
	order.ShippingLine = d.shippingLine(node.ShippingLine)
	order.LineItems = d.lineItems(node)

	if d.err != nil {
		return models.Order{}, d.err
	}
	return order, nil
}
