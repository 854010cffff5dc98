package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ariefcatur/scent-admin/internal/resource"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductStatus string

const (
	StatusPublished ProductStatus = "published"
	StatusDraft     ProductStatus = "draft"
)

type Image struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

type Variant struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    string          `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	Status        ProductStatus   `json:"status"`
	Images        []Image         `json:"images"`
	MainImage     string          `json:"mainImage"`
	Variants      []Variant       `json:"variants"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type ProductPage struct {
	Items      []Product           `json:"items"`
	Pagination resource.Pagination `json:"pagination"`
}

func (p ProductPage) Clone() ProductPage {
	p.Items = slices.Clone(p.Items)
	return p
}

type ProductQuery struct {
	resource.PageQuery
	Status   string
	Category string
}

func (q ProductQuery) Values() url.Values {
	v := q.PageQuery.Values()
	resource.Set(v, "status", q.Status)
	resource.Set(v, "category", q.Category)
	return v
}

type ProductInput struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    string          `json:"category,omitempty"`
	Status        ProductStatus   `json:"status,omitempty"`
	Variants      []Variant       `json:"variants,omitempty"`
}

type ImageInput struct {
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

var (
	ErrMissingID          = resource.ErrMissingID
	ErrMissingProductName = errors.New("product name is required")
)

type rawImage struct {
	ID          resource.ID `json:"id"`
	MongoID     resource.ID `json:"_id"`
	URL         string      `json:"url"`
	IsMain      bool        `json:"isMain"`
	IsMainSnake bool        `json:"is_main"`
}

type rawVariant struct {
	ID            resource.ID     `json:"id"`
	MongoID       resource.ID     `json:"_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	Stock         resource.Int    `json:"stock"`
	StockQuantity resource.Int    `json:"stockQuantity"`
}

type rawProduct struct {
	ID            resource.ID     `json:"id"`
	MongoID       resource.ID     `json:"_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Stock         resource.Int    `json:"stock"`
	StockQuantity resource.Int    `json:"stockQuantity"`
	Category      resource.Ref    `json:"category"`
	CategoryID    resource.ID     `json:"categoryId"`
	Status        string          `json:"status"`
	Images        []rawImage      `json:"images"`
	Variants      []rawVariant    `json:"variants"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func normalizeProduct(r rawProduct) Product {
	p := Product{
		ID:            resource.FirstID(r.ID, r.MongoID),
		Name:          r.Name,
		SKU:           r.SKU,
		Description:   r.Description,
		Price:         r.Price,
		StockQuantity: int(r.StockQuantity),
		CategoryID:    r.Category.ID,
		CategoryName:  r.Category.Name,
		Status:        normalizeProductStatus(r.Status),
		Images:        make([]Image, 0, len(r.Images)),
		Variants:      make([]Variant, 0, len(r.Variants)),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.StockQuantity == 0 {
		p.StockQuantity = int(r.Stock)
	}
	if p.CategoryID == "" {
		p.CategoryID = string(r.CategoryID)
	}

	// at most one image keeps the main flag
	mainSeen := false
	for _, img := range r.Images {
		isMain := (img.IsMain || img.IsMainSnake) && !mainSeen
		if isMain {
			mainSeen = true
			p.MainImage = img.URL
		}
		p.Images = append(p.Images, Image{ID: resource.FirstID(img.ID, img.MongoID), URL: img.URL, IsMain: isMain})
	}
	if p.MainImage == "" && len(p.Images) > 0 {
		p.MainImage = p.Images[0].URL
	}

	for _, v := range r.Variants {
		qty := int(v.StockQuantity)
		if qty == 0 {
			qty = int(v.Stock)
		}
		p.Variants = append(p.Variants, Variant{
			ID:            resource.FirstID(v.ID, v.MongoID),
			Name:          v.Name,
			SKU:           v.SKU,
			Price:         v.Price,
			StockQuantity: qty,
		})
	}
	return p
}

func normalizeProductStatus(s string) ProductStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "published", "active", "live":
		return StatusPublished
	default:
		return StatusDraft
	}
}

type Products struct {
	resource.Service
}

func NewProducts(svc resource.Service) *Products {
	return &Products{Service: svc}
}

// List never fails: a failed fetch is logged and yields an empty page.
func (s *Products) List(ctx context.Context, q ProductQuery) ProductPage {
	page, err := resource.Read(ctx, s.Service, "products", "/admin/products", q.Values(), func(r resource.ListBody[rawProduct]) ProductPage {
		items := make([]Product, 0, len(r.Items))
		for _, raw := range r.Items {
			items = append(items, normalizeProduct(raw))
		}
		return ProductPage{Items: items, Pagination: r.Pagination.Normalize(len(items), q.PageQuery)}
	})
	if err != nil {
		s.Log.WithError(err).WithField("resource", "products").Warn("list failed, showing empty result")
		return ProductPage{Items: []Product{}, Pagination: resource.Pagination{}.Normalize(0, q.PageQuery)}
	}
	return page
}

func (s *Products) Get(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, ErrMissingID
	}
	return resource.Read(ctx, s.Service, "products/"+id, "/admin/products/"+url.PathEscape(id), nil, func(r resource.Data[rawProduct]) Product {
		return normalizeProduct(r.Value)
	})
}

func (s *Products) Create(ctx context.Context, in ProductInput) (Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Product{}, ErrMissingProductName
	}
	return s.write(ctx, http.MethodPost, "/admin/products", in)
}

func (s *Products) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	if id == "" {
		return Product{}, ErrMissingID
	}
	return s.write(ctx, http.MethodPut, "/admin/products/"+url.PathEscape(id), in)
}

func (s *Products) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.Mutate(ctx, http.MethodDelete, "/admin/products/"+url.PathEscape(id), nil, nil)
}

func (s *Products) AddImage(ctx context.Context, id string, in ImageInput) (Product, error) {
	if id == "" {
		return Product{}, ErrMissingID
	}
	return s.write(ctx, http.MethodPost, "/admin/products/"+url.PathEscape(id)+"/images", in)
}

func (s *Products) DeleteImage(ctx context.Context, id, imageID string) error {
	if id == "" || imageID == "" {
		return ErrMissingID
	}
	return s.Mutate(ctx, http.MethodDelete, fmt.Sprintf("/admin/products/%s/images/%s", url.PathEscape(id), url.PathEscape(imageID)), nil, nil)
}

func (s *Products) SetMainImage(ctx context.Context, id, imageID string) (Product, error) {
	if id == "" || imageID == "" {
		return Product{}, ErrMissingID
	}
	return s.write(ctx, http.MethodPut, fmt.Sprintf("/admin/products/%s/images/%s/main", url.PathEscape(id), url.PathEscape(imageID)), nil)
}

// GenerateSKU asks the server for a fresh SKU. Never cached.
func (s *Products) GenerateSKU(ctx context.Context, name, categoryID string) (string, error) {
	q := url.Values{}
	resource.Set(q, "name", name)
	resource.Set(q, "category", categoryID)
	var out resource.Data[struct {
		SKU string `json:"sku"`
	}]
	if err := s.Fetch(ctx, "/admin/products/generate-sku", q, &out); err != nil {
		return "", err
	}
	if out.Value.SKU == "" {
		return "", errors.New("server returned an empty sku")
	}
	return out.Value.SKU, nil
}

func (s *Products) write(ctx context.Context, method, path string, body any) (Product, error) {
	var out resource.Data[rawProduct]
	if err := s.Mutate(ctx, method, path, body, &out); err != nil {
		return Product{}, err
	}
	s.Log.WithFields(logrus.Fields{"resource": "products", "method": method, "path": path}).Debug("product written")
	return normalizeProduct(out.Value), nil
}
