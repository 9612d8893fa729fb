package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a paid, not fully fulfilled Shopify order as loaded by the
// forwarder. Values are built once per fetched page and never mutated.
type Order struct {
	ID                string                `json:"id"`
	Name              string                `json:"name"`
	CreatedAt         time.Time             `json:"created_at"`
	FinancialStatus   string                `json:"financial_status"`
	FulfillmentStatus *string               `json:"fulfillment_status,omitempty"`
	TotalPrice        decimal.Decimal       `json:"total_price"`
	Currency          string                `json:"currency"`
	Tags              []string              `json:"tags"`
	Email             *string               `json:"email,omitempty"`
	ShippingAddress   *OrderShippingAddress `json:"shipping_address,omitempty"`
	BillingAddress    *OrderBillingAddress  `json:"billing_address,omitempty"`
	ShippingLine      *OrderShippingLine    `json:"shipping_line,omitempty"`
	LineItems         []OrderLineItem       `json:"line_items"`
}

// OrderLineItem carries the unfulfilled quantity only; fully fulfilled
// items never reach this type.
type OrderLineItem struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Quantity         int               `json:"quantity"`
	SKU              string            `json:"sku"`
	Price            decimal.Decimal   `json:"price"`
	Currency         string            `json:"currency"`
	TaxLines         []OrderTaxLine    `json:"tax_lines"`
	DiscountTotal    decimal.Decimal   `json:"discount_total"`
	CustomAttributes []CustomAttribute `json:"custom_attributes"`
}

type OrderTaxLine struct {
	Rate     float64         `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type OrderShippingLine struct {
	Title           string          `json:"title"`
	Code            *string         `json:"code,omitempty"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Currency        string          `json:"currency"`
	TaxLines        []OrderTaxLine  `json:"tax_lines"`
}

type OrderShippingAddress struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	CountryCode  string  `json:"country_code"`
	City         string  `json:"city"`
	Zip          string  `json:"zip"`
	Address1     string  `json:"address_1"`
	Address2     *string `json:"address_2,omitempty"`
	Company      *string `json:"company,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Province     *string `json:"province,omitempty"`
	ProvinceCode *string `json:"province_code,omitempty"`
	Country      *string `json:"country,omitempty"`
}

type OrderBillingAddress struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	CountryCode  string  `json:"country_code"`
	City         string  `json:"city"`
	Zip          string  `json:"zip"`
	Address1     string  `json:"address_1"`
	Address2     *string `json:"address_2,omitempty"`
	Company      *string `json:"company,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Province     *string `json:"province,omitempty"`
	ProvinceCode *string `json:"province_code,omitempty"`
	Country      *string `json:"country,omitempty"`
	VATNumber    *string `json:"vat_number,omitempty"`
}

// CustomAttribute is a free-form key/value pair attached to a line item.
type CustomAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
