// Package settings covers the store profile, staff users, shipping zones
// and payment methods.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ariefcatur/scent-admin/internal/resource"
)

const (
	DefaultCurrencyCode   = "USD"
	DefaultCurrencySymbol = "$"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"IDR": "Rp",
	"AUD": "A$",
	"CAD": "C$",
}

type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// UnmarshalJSON accepts "EUR" as well as {"code":"EUR","symbol":"€"}.
func (c *Currency) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &c.Code)
	}
	type plain Currency
	return json.Unmarshal(b, (*plain)(c))
}

func (c Currency) normalize() Currency {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		c.Code = DefaultCurrencyCode
	}
	if c.Symbol == "" {
		c.Symbol = symbols[c.Code]
	}
	if c.Symbol == "" {
		c.Symbol = c.Code
	}
	return c
}

type Settings struct {
	StoreName         string          `json:"storeName"`
	ContactEmail      string          `json:"contactEmail"`
	ContactPhone      string          `json:"contactPhone"`
	Currency          Currency        `json:"currency"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Notifications     map[string]bool `json:"notifications"`
}

type rawSettings struct {
	StoreName         string          `json:"storeName"`
	Name              string          `json:"name"`
	ContactEmail      string          `json:"contactEmail"`
	Email             string          `json:"email"`
	ContactPhone      string          `json:"contactPhone"`
	Phone             string          `json:"phone"`
	Currency          Currency        `json:"currency"`
	CurrencySymbol    string          `json:"currencySymbol"`
	LowStockThreshold resource.Int    `json:"lowStockThreshold"`
	Inventory         rawInventory    `json:"inventory"`
	Notifications     map[string]bool `json:"notifications"`
}

type rawInventory struct {
	LowStockThreshold resource.Int `json:"lowStockThreshold"`
}

type Service struct {
	resource.Service
	// DefaultThreshold fills in a missing low-stock threshold.
	DefaultThreshold int
}

func NewService(svc resource.Service, defaultThreshold int) *Service {
	return &Service{Service: svc, DefaultThreshold: defaultThreshold}
}

func (s *Service) normalize(r rawSettings) Settings {
	cur := r.Currency
	if cur.Symbol == "" {
		cur.Symbol = r.CurrencySymbol
	}
	out := Settings{
		StoreName:         first(r.StoreName, r.Name),
		ContactEmail:      first(r.ContactEmail, r.Email),
		ContactPhone:      first(r.ContactPhone, r.Phone),
		Currency:          cur.normalize(),
		LowStockThreshold: int(r.LowStockThreshold),
		Notifications:     r.Notifications,
	}
	if out.LowStockThreshold <= 0 {
		out.LowStockThreshold = int(r.Inventory.LowStockThreshold)
	}
	if out.LowStockThreshold <= 0 {
		out.LowStockThreshold = s.DefaultThreshold
	}
	if out.Notifications == nil {
		out.Notifications = map[string]bool{}
	}
	return out
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	return resource.Read(ctx, s.Service, "settings", "/admin/settings", nil, func(r resource.Data[rawSettings]) Settings {
		return s.normalize(r.Value)
	})
}

// LowStockThreshold is the threshold inventory views classify against: the
// store setting, else inventory.lowStockThreshold, else DefaultThreshold.
// On error DefaultThreshold is returned alongside it.
func (s *Service) LowStockThreshold(ctx context.Context) (int, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return s.DefaultThreshold, err
	}
	return st.LowStockThreshold, nil
}

func (s *Service) Update(ctx context.Context, in Settings) (Settings, error) {
	in.Currency = in.Currency.normalize()
	var out resource.Data[rawSettings]
	if err := s.Mutate(ctx, http.MethodPut, "/admin/settings", in, &out); err != nil {
		return Settings{}, err
	}
	return s.normalize(out.Value), nil
}

func first(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
