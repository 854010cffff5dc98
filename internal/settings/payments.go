package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/ariefcatur/scent-admin/internal/resource"
)

type PaymentMethod struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"isActive"`
	// Config is provider specific and passed through untouched.
	Config json.RawMessage `json:"config,omitempty"`
}

type PaymentMethodInput struct {
	DisplayName string          `json:"displayName,omitempty"`
	Description string          `json:"description,omitempty"`
	Active      *bool           `json:"isActive,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

type rawPaymentMethod struct {
	ID          resource.ID     `json:"id"`
	MongoID     resource.ID     `json:"_id"`
	Provider    string          `json:"provider"`
	Name        string          `json:"name"`
	DisplayName string          `json:"displayName"`
	Description string          `json:"description"`
	IsActive    bool            `json:"isActive"`
	Enabled     bool            `json:"enabled"`
	Config      json.RawMessage `json:"config"`
	Settings    json.RawMessage `json:"settings"`
}

func normalizePaymentMethod(r rawPaymentMethod) PaymentMethod {
	pm := PaymentMethod{
		ID:          resource.FirstID(r.ID, r.MongoID),
		Provider:    first(r.Provider, r.Name),
		DisplayName: first(r.DisplayName, r.Name, r.Provider),
		Description: r.Description,
		Active:      r.IsActive || r.Enabled,
		Config:      r.Config,
	}
	if len(pm.Config) == 0 {
		pm.Config = r.Settings
	}
	return pm
}

const paymentsPath = "/admin/settings/payment-methods"

func (s *Service) PaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	return resource.Read(ctx, s.Service, "payment-methods", paymentsPath, nil, func(r resource.ListBody[rawPaymentMethod]) []PaymentMethod {
		out := make([]PaymentMethod, 0, len(r.Items))
		for _, pm := range r.Items {
			out = append(out, normalizePaymentMethod(pm))
		}
		return out
	})
}

func (s *Service) UpdatePaymentMethod(ctx context.Context, id string, in PaymentMethodInput) (PaymentMethod, error) {
	if id == "" {
		return PaymentMethod{}, resource.ErrMissingID
	}
	return s.writePayment(ctx, http.MethodPut, paymentsPath+"/"+url.PathEscape(id), in)
}

// TogglePaymentMethod flips the method's active flag server-side.
func (s *Service) TogglePaymentMethod(ctx context.Context, id string) (PaymentMethod, error) {
	if id == "" {
		return PaymentMethod{}, resource.ErrMissingID
	}
	return s.writePayment(ctx, http.MethodPatch, paymentsPath+"/"+url.PathEscape(id)+"/toggle", nil)
}

func (s *Service) writePayment(ctx context.Context, method, p string, body any) (PaymentMethod, error) {
	var out resource.Data[rawPaymentMethod]
	if err := s.Mutate(ctx, method, p, body, &out); err != nil {
		return PaymentMethod{}, err
	}
	return normalizePaymentMethod(out.Value), nil
}
