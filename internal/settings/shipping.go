package settings

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/shopspring/decimal"
)

var ErrNegativePrice = errors.New("shipping rate price must not be negative")

type ShippingRate struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Description string           `json:"description,omitempty"`
	FreeAbove   *decimal.Decimal `json:"freeShippingThreshold,omitempty"`
	Active      bool             `json:"isActive"`
}

// Quote is the rate's price for an order of the given subtotal.
func (r ShippingRate) Quote(subtotal decimal.Decimal) decimal.Decimal {
	if r.FreeAbove != nil && r.FreeAbove.IsPositive() && subtotal.GreaterThanOrEqual(*r.FreeAbove) {
		return decimal.Zero
	}
	return r.Price
}

type ShippingZone struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Regions []string       `json:"regions"`
	Active  bool           `json:"isActive"`
	Rates   []ShippingRate `json:"rates"`
}

type ZoneInput struct {
	Name    string   `json:"name"`
	Regions []string `json:"regions"`
	Active  bool     `json:"isActive"`
}

type RateInput struct {
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Description string           `json:"description,omitempty"`
	FreeAbove   *decimal.Decimal `json:"freeShippingThreshold,omitempty"`
	Active      bool             `json:"isActive"`
}

type rawRate struct {
	ID                    resource.ID      `json:"id"`
	MongoID               resource.ID      `json:"_id"`
	Name                  string           `json:"name"`
	Price                 decimal.Decimal  `json:"price"`
	Description           string           `json:"description"`
	FreeShippingThreshold *decimal.Decimal `json:"freeShippingThreshold"`
	IsActive              *bool            `json:"isActive"`
}

type rawZone struct {
	ID        resource.ID `json:"id"`
	MongoID   resource.ID `json:"_id"`
	Name      string      `json:"name"`
	Regions   []string    `json:"regions"`
	Countries []string    `json:"countries"`
	IsActive  *bool       `json:"isActive"`
	Rates     []rawRate   `json:"rates"`
}

func normalizeRate(r rawRate) ShippingRate {
	return ShippingRate{
		ID:          resource.FirstID(r.ID, r.MongoID),
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		FreeAbove:   r.FreeShippingThreshold,
		Active:      r.IsActive == nil || *r.IsActive,
	}
}

func normalizeZone(r rawZone) ShippingZone {
	z := ShippingZone{
		ID:      resource.FirstID(r.ID, r.MongoID),
		Name:    r.Name,
		Regions: r.Regions,
		Active:  r.IsActive == nil || *r.IsActive,
		Rates:   make([]ShippingRate, 0, len(r.Rates)),
	}
	if len(z.Regions) == 0 {
		z.Regions = r.Countries
	}
	if z.Regions == nil {
		z.Regions = []string{}
	}
	for _, rate := range r.Rates {
		z.Rates = append(z.Rates, normalizeRate(rate))
	}
	return z
}

const zonesPath = "/admin/settings/shipping-zones"

func zonePath(id string) string { return zonesPath + "/" + url.PathEscape(id) }

func (s *Service) ShippingZones(ctx context.Context) ([]ShippingZone, error) {
	return resource.Read(ctx, s.Service, "shipping-zones", zonesPath, nil, func(r resource.ListBody[rawZone]) []ShippingZone {
		out := make([]ShippingZone, 0, len(r.Items))
		for _, z := range r.Items {
			out = append(out, normalizeZone(z))
		}
		return out
	})
}

func (s *Service) CreateZone(ctx context.Context, in ZoneInput) (ShippingZone, error) {
	return s.writeZone(ctx, http.MethodPost, zonesPath, in)
}

func (s *Service) UpdateZone(ctx context.Context, id string, in ZoneInput) (ShippingZone, error) {
	if id == "" {
		return ShippingZone{}, resource.ErrMissingID
	}
	return s.writeZone(ctx, http.MethodPut, zonePath(id), in)
}

func (s *Service) DeleteZone(ctx context.Context, id string) error {
	if id == "" {
		return resource.ErrMissingID
	}
	return s.Mutate(ctx, http.MethodDelete, zonePath(id), nil, nil)
}

// AddRate returns the zone with its rates as the server now has them.
func (s *Service) AddRate(ctx context.Context, zoneID string, in RateInput) (ShippingZone, error) {
	if zoneID == "" {
		return ShippingZone{}, resource.ErrMissingID
	}
	if in.Price.IsNegative() {
		return ShippingZone{}, ErrNegativePrice
	}
	return s.writeZone(ctx, http.MethodPost, zonePath(zoneID)+"/rates", in)
}

func (s *Service) UpdateRate(ctx context.Context, zoneID, rateID string, in RateInput) (ShippingZone, error) {
	if zoneID == "" || rateID == "" {
		return ShippingZone{}, resource.ErrMissingID
	}
	if in.Price.IsNegative() {
		return ShippingZone{}, ErrNegativePrice
	}
	return s.writeZone(ctx, http.MethodPut, zonePath(zoneID)+"/rates/"+url.PathEscape(rateID), in)
}

func (s *Service) DeleteRate(ctx context.Context, zoneID, rateID string) error {
	if zoneID == "" || rateID == "" {
		return resource.ErrMissingID
	}
	return s.Mutate(ctx, http.MethodDelete, zonePath(zoneID)+"/rates/"+url.PathEscape(rateID), nil, nil)
}

func (s *Service) writeZone(ctx context.Context, method, p string, body any) (ShippingZone, error) {
	var out resource.Data[rawZone]
	if err := s.Mutate(ctx, method, p, body, &out); err != nil {
		return ShippingZone{}, err
	}
	return normalizeZone(out.Value), nil
}
