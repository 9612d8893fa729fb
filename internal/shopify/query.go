package shopify

import "time"

const ordersQuery = `
query FetchOrders($query: String!, $first: Int!, $after: String) {
  orders(query: $query, first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        name
        createdAt
        displayFinancialStatus
        displayFulfillmentStatus
        email
        tags
        totalPriceSet { shopMoney { amount currencyCode } }
        shippingAddress {
          firstName
          lastName
          company
          address1
          address2
          city
          province
          provinceCode
          country
          countryCode
          zip
          phone
        }
        billingAddress {
          firstName
          lastName
          company
          address1
          address2
          city
          province
          provinceCode
          country
          countryCode
          zip
          phone
        }
        shippingLine {
          title
          code
          originalPriceSet { shopMoney { amount currencyCode } }
          discountedPriceSet { shopMoney { amount currencyCode } }
          taxLines {
            rate
            priceSet { shopMoney { amount currencyCode } }
          }
        }
        lineItems(first: 250) {
          edges {
            node {
              id
              title
              quantity
              unfulfilledQuantity
              sku
              originalUnitPriceSet { shopMoney { amount currencyCode } }
              taxLines {
                rate
                priceSet { shopMoney { amount currencyCode } }
              }
              discountAllocations {
                allocatedAmountSet { shopMoney { amount currencyCode } }
              }
              customAttributes { key value }
            }
          }
        }
      }
    }
  }
}
`

type ordersData struct {
	Orders *ordersConnection `json:"orders"`
}

type ordersConnection struct {
	PageInfo pageInfo    `json:"pageInfo"`
	Edges    []orderEdge `json:"edges"`
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type orderEdge struct {
	Node orderNode `json:"node"`
}

type orderNode struct {
	ID                       *string           `json:"id"`
	Name                     *string           `json:"name"`
	CreatedAt                *time.Time        `json:"createdAt"`
	DisplayFinancialStatus   *string           `json:"displayFinancialStatus"`
	DisplayFulfillmentStatus *string           `json:"displayFulfillmentStatus"`
	Email                    *string           `json:"email"`
	Tags                     []string          `json:"tags"`
	TotalPriceSet            *moneyBag         `json:"totalPriceSet"`
	ShippingAddress          *mailingAddress   `json:"shippingAddress"`
	BillingAddress           *mailingAddress   `json:"billingAddress"`
	ShippingLine             *shippingLineNode `json:"shippingLine"`
	LineItems                struct {
		Edges []struct {
			Node lineItemNode `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
}

type moneyBag struct {
	ShopMoney *money `json:"shopMoney"`
}

type money struct {
	Amount       *string `json:"amount"`
	CurrencyCode *string `json:"currencyCode"`
}

type mailingAddress struct {
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Company      *string `json:"company"`
	Address1     *string `json:"address1"`
	Address2     *string `json:"address2"`
	City         *string `json:"city"`
	Province     *string `json:"province"`
	ProvinceCode *string `json:"provinceCode"`
	Country      *string `json:"country"`
	CountryCode  *string `json:"countryCode"`
	Zip          *string `json:"zip"`
	Phone        *string `json:"phone"`
}

type shippingLineNode struct {
	Title              *string       `json:"title"`
	Code               *string       `json:"code"`
	OriginalPriceSet   *moneyBag     `json:"originalPriceSet"`
	DiscountedPriceSet *moneyBag     `json:"discountedPriceSet"`
	TaxLines           []taxLineNode `json:"taxLines"`
}

type taxLineNode struct {
	Rate     *float64  `json:"rate"`
	PriceSet *moneyBag `json:"priceSet"`
}

type lineItemNode struct {
	ID                   *string       `json:"id"`
	Title                *string       `json:"title"`
	Quantity             int           `json:"quantity"`
	UnfulfilledQuantity  int           `json:"unfulfilledQuantity"`
	SKU                  *string       `json:"sku"`
	OriginalUnitPriceSet *moneyBag     `json:"originalUnitPriceSet"`
	TaxLines             []taxLineNode `json:"taxLines"`
	DiscountAllocations  []struct {
		AllocatedAmountSet *moneyBag `json:"allocatedAmountSet"`
	} `json:"discountAllocations"`
	CustomAttributes []struct {
		Key   string  `json:"key"`
		Value *string `json:"value"`
	} `json:"customAttributes"`
}
