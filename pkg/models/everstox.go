package models

import (
	"time"

	"github.com/google/uuid"
)

type AddressType string

const (
	AddressTypePrivate  AddressType = "private"
	AddressTypeBusiness AddressType = "business"
)

// EverstoxOrder is the create-order payload accepted by the Everstox
// fulfillment API.
type EverstoxOrder struct {
	ShopInstanceID        uuid.UUID           `json:"shop_instance_id"`
	OrderNumber           string              `json:"order_number"`
	OrderDate             time.Time           `json:"order_date"`
	CustomerEmail         string              `json:"customer_email"`
	FinancialStatus       string              `json:"financial_status"`
	ShippingAddress       ShippingAddress     `json:"shipping_address"`
	BillingAddress        BillingAddress      `json:"billing_address"`
	ShippingPrice         ShippingPrice       `json:"shipping_price"`
	OrderItems            []OrderItem         `json:"order_items"`
	PaymentMethodID       *uuid.UUID          `json:"payment_method_id,omitempty"`
	PaymentMethodName     *string             `json:"payment_method_name,omitempty"`
	RequestedWarehouseID  *uuid.UUID          `json:"requested_warehouse_id,omitempty"`
	RequestedDeliveryDate *time.Time          `json:"requested_delivery_date,omitempty"`
	OrderPriority         *int                `json:"order_priority,omitempty"`
	PrintReturnLabel      bool                `json:"print_return_label"`
	PickingHint           *string             `json:"picking_hint,omitempty"`
	PackingHint           *string             `json:"packing_hint,omitempty"`
	OrderType             *string             `json:"order_type,omitempty"`
	CustomAttributes      []EverstoxAttribute `json:"custom_attributes"`
	Attachments           []Attachment        `json:"attachments,omitempty"`
}

type ShippingAddress struct {
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	CountryCode  string       `json:"country_code"`
	City         string       `json:"city"`
	Zip          string       `json:"zip"`
	Address1     string       `json:"address_1"`
	Address2     *string      `json:"address_2,omitempty"`
	Company      *string      `json:"company,omitempty"`
	Phone        *string      `json:"phone,omitempty"`
	Title        *string      `json:"title,omitempty"`
	Country      *string      `json:"country,omitempty"`
	ProvinceCode *string      `json:"province_code,omitempty"`
	Province     *string      `json:"province,omitempty"`
	AddressType  *AddressType `json:"address_type,omitempty"`
}

type BillingAddress struct {
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	CountryCode  string       `json:"country_code"`
	City         string       `json:"city"`
	Zip          string       `json:"zip"`
	Address1     string       `json:"address_1"`
	Address2     *string      `json:"address_2,omitempty"`
	Company      *string      `json:"company,omitempty"`
	Phone        *string      `json:"phone,omitempty"`
	Title        *string      `json:"title,omitempty"`
	Country      *string      `json:"country,omitempty"`
	ProvinceCode *string      `json:"province_code,omitempty"`
	Province     *string      `json:"province,omitempty"`
	VATNumber    *string      `json:"VAT_number,omitempty"`
	AddressType  *AddressType `json:"address_type,omitempty"`
}

// ShippingPrice and PriceSet share the Everstox price breakdown fields.
type ShippingPrice struct {
	Currency              string  `json:"currency"`
	PriceNetAfterDiscount float64 `json:"price_net_after_discount"`
	TaxAmount             float64 `json:"tax_amount"`
	TaxRate               float64 `json:"tax_rate"`
	Price                 float64 `json:"price"`
	Tax                   float64 `json:"tax"`
	Discount              float64 `json:"discount"`
	DiscountGross         float64 `json:"discount_gross"`
}

type PriceSet struct {
	Quantity              int     `json:"quantity"`
	Currency              string  `json:"currency"`
	PriceNetAfterDiscount float64 `json:"price_net_after_discount"`
	TaxAmount             float64 `json:"tax_amount"`
	TaxRate               float64 `json:"tax_rate"`
	Price                 float64 `json:"price"`
	Tax                   float64 `json:"tax"`
	Discount              float64 `json:"discount"`
	DiscountGross         float64 `json:"discount_gross"`
}

type EverstoxAttribute struct {
	AttributeKey   string `json:"attribute_key"`
	AttributeValue string `json:"attribute_value"`
}

type ShipmentOption struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name,omitempty"`
}

type Product struct {
	SKU string `json:"sku"`
}

type OrderItem struct {
	Quantity         int                 `json:"quantity"`
	Product          Product             `json:"product"`
	ShipmentOptions  []ShipmentOption    `json:"shipment_options"`
	PriceSet         []PriceSet          `json:"price_set"`
	CustomAttributes []EverstoxAttribute `json:"custom_attributes"`
	PickingHint      *string             `json:"picking_hint,omitempty"`
	PackingHint      *string             `json:"packing_hint,omitempty"`
}

type Attachment struct {
	AttachmentType string  `json:"attachment_type"`
	URL            *string `json:"url,omitempty"`
	Content        *string `json:"content,omitempty"`
	FileName       *string `json:"file_name,omitempty"`
}
