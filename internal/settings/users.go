package settings

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/scent-admin/internal/resource"
)

var ErrMissingEmail = errors.New("user email is required")

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	LastLogin time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	Active   *bool  `json:"isActive,omitempty"`
}

type rawUser struct {
	ID        resource.ID `json:"id"`
	MongoID   resource.ID `json:"_id"`
	Name      string      `json:"name"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      string      `json:"role"`
	IsActive  *bool       `json:"isActive"`
	Status    string      `json:"status"`
	LastLogin time.Time   `json:"lastLogin"`
	CreatedAt time.Time   `json:"createdAt"`
}

func normalizeUser(r rawUser) User {
	u := User{
		ID:        resource.FirstID(r.ID, r.MongoID),
		Name:      first(r.Name, strings.TrimSpace(r.FirstName+" "+r.LastName), r.Email),
		Email:     r.Email,
		Role:      strings.ToLower(first(r.Role, "staff")),
		Active:    true,
		LastLogin: r.LastLogin,
		CreatedAt: r.CreatedAt,
	}
	if r.IsActive != nil {
		u.Active = *r.IsActive
	} else if strings.EqualFold(r.Status, "inactive") {
		u.Active = false
	}
	return u
}

func (s *Service) Users(ctx context.Context, q resource.PageQuery) ([]User, error) {
	return resource.Read(ctx, s.Service, "users", "/admin/users", q.Values(), func(r resource.ListBody[rawUser]) []User {
		out := make([]User, 0, len(r.Items))
		for _, u := range r.Items {
			out = append(out, normalizeUser(u))
		}
		return out
	})
}

func (s *Service) CreateUser(ctx context.Context, in UserInput) (User, error) {
	if strings.TrimSpace(in.Email) == "" {
		return User{}, ErrMissingEmail
	}
	return s.writeUser(ctx, http.MethodPost, "/admin/users", in)
}

func (s *Service) UpdateUser(ctx context.Context, id string, in UserInput) (User, error) {
	if id == "" {
		return User{}, resource.ErrMissingID
	}
	return s.writeUser(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), in)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return resource.ErrMissingID
	}
	return s.Mutate(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
}

func (s *Service) writeUser(ctx context.Context, method, p string, in UserInput) (User, error) {
	var out resource.Data[rawUser]
	if err := s.Mutate(ctx, method, p, in, &out); err != nil {
		return User{}, err
	}
	return normalizeUser(out.Value), nil
}
