package orders

import (
	"bytes"
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/scent-admin/internal/notes"
	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/shopspring/decimal"
)

type Payment struct {
	Method    string        `json:"method"`
	Reference string        `json:"reference,omitempty"`
	Status    PaymentStatus `json:"status"`
}

type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type TimelineEvent struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID              string          `json:"id"`
	Number          string          `json:"orderNumber"`
	Status          Status          `json:"status"`
	Customer        Customer        `json:"customer"`
	Payment         Payment         `json:"payment"`
	Items           []LineItem      `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	Timeline        []TimelineEvent `json:"timeline"`
	Notes           []notes.Note    `json:"notes"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ItemCount sums quantities across line items.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

type OrderPage struct {
	Items      []Order             `json:"items"`
	Pagination resource.Pagination `json:"pagination"`
}

func (p OrderPage) Clone() OrderPage {
	p.Items = slices.Clone(p.Items)
	return p
}

// ---- raw shapes ----

type rawPayment struct {
	Method        string `json:"method"`
	Reference     string `json:"reference"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

type rawLineItem struct {
	Product   resource.Ref     `json:"product"`
	ProductID resource.ID      `json:"productId"`
	Name      string           `json:"name"`
	SKU       string           `json:"sku"`
	Price     decimal.Decimal  `json:"price"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	Quantity  resource.Int     `json:"quantity"`
	Qty       resource.Int     `json:"qty"`
	Subtotal  *decimal.Decimal `json:"subtotal"`
}

type RawAddress struct {
	Name       string `json:"name"`
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	Address    string `json:"address"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	ZipCode    string `json:"zipCode"`
	Zip        string `json:"zip"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (r RawAddress) Normalize() Address {
	return Address{
		Name:       first(r.Name, r.FullName),
		Line1:      first(r.Line1, r.Street, r.Address),
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: first(r.PostalCode, r.ZipCode, r.Zip),
		Country:    r.Country,
		Phone:      r.Phone,
	}
}

type rawTimelineEvent struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	Note      string    `json:"note"`
	Comment   string    `json:"comment"`
}

type rawCustomer struct {
	ID        resource.ID `json:"id"`
	MongoID   resource.ID `json:"_id"`
	Name      string      `json:"name"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
}

// UnmarshalJSON also accepts an unpopulated customer id.
func (c *rawCustomer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		*c = rawCustomer{}
		return json.Unmarshal(b, &c.ID)
	}
	type plain rawCustomer
	return json.Unmarshal(b, (*plain)(c))
}

type rawOrder struct {
	ID              resource.ID        `json:"id"`
	MongoID         resource.ID        `json:"_id"`
	OrderNumber     string             `json:"orderNumber"`
	Number          string             `json:"number"`
	Status          string             `json:"status"`
	Customer        *rawCustomer       `json:"customer"`
	User            *rawCustomer       `json:"user"`
	Payment         rawPayment         `json:"payment"`
	PaymentMethod   string             `json:"paymentMethod"`
	PaymentStatus   string             `json:"paymentStatus"`
	Items           []rawLineItem      `json:"items"`
	OrderItems      []rawLineItem      `json:"orderItems"`
	ShippingAddress RawAddress         `json:"shippingAddress"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	ShippingFee     decimal.Decimal    `json:"shippingFee"`
	ShippingCost    decimal.Decimal    `json:"shippingCost"`
	Tax             decimal.Decimal    `json:"tax"`
	Total           decimal.Decimal    `json:"total"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	Timeline        []rawTimelineEvent `json:"timeline"`
	StatusHistory   []rawTimelineEvent `json:"statusHistory"`
	Notes           []notes.Raw        `json:"notes"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func normalizeOrder(r rawOrder) Order {
	o := Order{
		ID:              resource.FirstID(r.ID, r.MongoID),
		Number:          first(r.OrderNumber, r.Number),
		Status:          ParseStatus(r.Status),
		ShippingAddress: r.ShippingAddress.Normalize(),
		Subtotal:        r.Subtotal,
		ShippingFee:     r.ShippingFee,
		Tax:             r.Tax,
		Total:           r.Total,
		Notes:           notes.NormalizeAll(r.Notes),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if o.Number == "" {
		o.Number = o.ID
	}

	cust := r.Customer
	if cust == nil {
		cust = r.User
	}
	if cust != nil {
		o.Customer = Customer{
			ID:    resource.FirstID(cust.ID, cust.MongoID),
			Name:  first(cust.Name, strings.TrimSpace(cust.FirstName+" "+cust.LastName)),
			Email: cust.Email,
		}
	}

	o.Payment = Payment{
		Method:    first(r.Payment.Method, r.PaymentMethod),
		Reference: first(r.Payment.Reference, r.Payment.TransactionID),
		Status:    ParsePaymentStatus(first(r.Payment.Status, r.PaymentStatus)),
	}

	items := r.Items
	if len(items) == 0 {
		items = r.OrderItems
	}
	o.Items = make([]LineItem, 0, len(items))
	itemsTotal := decimal.Zero
	for _, it := range items {
		li := normalizeLineItem(it)
		itemsTotal = itemsTotal.Add(li.Subtotal)
		o.Items = append(o.Items, li)
	}
	if o.Subtotal.IsZero() {
		o.Subtotal = itemsTotal
	}
	if o.ShippingFee.IsZero() {
		o.ShippingFee = r.ShippingCost
	}
	if o.Total.IsZero() {
		o.Total = r.TotalAmount
	}

	events := r.Timeline
	if len(events) == 0 {
		events = r.StatusHistory
	}
	o.Timeline = make([]TimelineEvent, 0, len(events))
	for _, e := range events {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = e.Date
		}
		if ts.IsZero() {
			ts = e.CreatedAt
		}
		o.Timeline = append(o.Timeline, TimelineEvent{Status: ParseStatus(e.Status), Timestamp: ts, Note: first(e.Note, e.Comment)})
	}
	sort.SliceStable(o.Timeline, func(i, j int) bool {
		return o.Timeline[i].Timestamp.Before(o.Timeline[j].Timestamp)
	})
	return o
}

func normalizeLineItem(r rawLineItem) LineItem {
	li := LineItem{
		ProductID: r.Product.ID,
		Name:      first(r.Name, r.Product.Name),
		SKU:       r.SKU,
		UnitPrice: r.UnitPrice,
		Quantity:  int(r.Quantity),
	}
	if li.ProductID == "" {
		li.ProductID = string(r.ProductID)
	}
	if li.UnitPrice.IsZero() {
		li.UnitPrice = r.Price
	}
	if li.Quantity == 0 {
		li.Quantity = int(r.Qty)
	}
	if r.Subtotal != nil {
		li.Subtotal = *r.Subtotal
	} else {
		li.Subtotal = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
	}
	return li
}

func first(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
