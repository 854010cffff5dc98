package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ariefcatur/scent-admin/internal/resource"
)

type Category struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Description      string     `json:"description,omitempty"`
	ParentID         string     `json:"parentId,omitempty"`
	ParentName       string     `json:"parentName,omitempty"`
	Featured         bool       `json:"featured"`
	ProductCount     int        `json:"productCount"`
	SubcategoryCount int        `json:"subcategoryCount"`
	Children         []Category `json:"children,omitempty"`
}

// CanDelete is the client-side pre-check behind the delete action. The
// server stays authoritative and may still refuse.
func (c Category) CanDelete() bool {
	return c.ProductCount == 0 && c.SubcategoryCount == 0
}

type CategoryPage struct {
	Items      []Category          `json:"items"`
	Pagination resource.Pagination `json:"pagination"`
}

func (p CategoryPage) Clone() CategoryPage {
	p.Items = slices.Clone(p.Items)
	return p
}

type CategoryQuery struct {
	resource.PageQuery
	Parent   string
	Featured *bool
	Tree     bool
}

func (q CategoryQuery) Values() url.Values {
	v := q.PageQuery.Values()
	resource.Set(v, "parent", q.Parent)
	if q.Featured != nil {
		v.Set("featured", strconv.FormatBool(*q.Featured))
	}
	if q.Tree {
		v.Set("tree", "true")
	}
	return v
}

type CategoryInput struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description,omitempty"`
	ParentID    *string `json:"parent"`
	Featured    bool    `json:"featured"`
}

var (
	ErrOwnParent   = errors.New("a category cannot be its own parent")
	ErrMissingName = errors.New("category name is required")
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
)

type rawCategory struct {
	ID               resource.ID   `json:"id"`
	MongoID          resource.ID   `json:"_id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Description      string        `json:"description"`
	Parent           resource.Ref  `json:"parent"`
	ParentID         resource.ID   `json:"parentId"`
	Featured         bool          `json:"featured"`
	IsFeatured       bool          `json:"isFeatured"`
	ProductCount     resource.Int  `json:"productCount"`
	ProductsCount    resource.Int  `json:"productsCount"`
	SubcategoryCount resource.Int  `json:"subcategoryCount"`
	Children         []rawCategory `json:"children"`
	Subcategories    []rawCategory `json:"subcategories"`
}

func normalizeCategory(r rawCategory) Category {
	c := Category{
		ID:               resource.FirstID(r.ID, r.MongoID),
		Name:             r.Name,
		Slug:             r.Slug,
		Description:      r.Description,
		ParentID:         r.Parent.ID,
		ParentName:       r.Parent.Name,
		Featured:         r.Featured || r.IsFeatured,
		ProductCount:     int(r.ProductCount),
		SubcategoryCount: int(r.SubcategoryCount),
	}
	if c.ParentID == "" {
		c.ParentID = string(r.ParentID)
	}
	if c.ProductCount == 0 {
		c.ProductCount = int(r.ProductsCount)
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	children := r.Children
	if len(children) == 0 {
		children = r.Subcategories
	}
	for _, ch := range children {
		child := normalizeCategory(ch)
		if child.ParentID == "" {
			child.ParentID = c.ID
			child.ParentName = c.Name
		}
		c.Children = append(c.Children, child)
	}
	if c.SubcategoryCount == 0 {
		c.SubcategoryCount = len(c.Children)
	}
	return c
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

type Categories struct {
	resource.Service
}

func NewCategories(svc resource.Service) *Categories {
	return &Categories{Service: svc}
}

// List never fails: a failed fetch is logged and yields an empty page.
// With q.Tree set, top-level categories come back with their children.
func (s *Categories) List(ctx context.Context, q CategoryQuery) CategoryPage {
	page, err := resource.Read(ctx, s.Service, "categories", "/admin/categories", q.Values(), func(r resource.ListBody[rawCategory]) CategoryPage {
		items := make([]Category, 0, len(r.Items))
		for _, raw := range r.Items {
			items = append(items, normalizeCategory(raw))
		}
		return CategoryPage{Items: items, Pagination: r.Pagination.Normalize(len(items), q.PageQuery)}
	})
	if err != nil {
		s.Log.WithError(err).WithField("resource", "categories").Warn("list failed, showing empty result")
		return CategoryPage{Items: []Category{}, Pagination: resource.Pagination{}.Normalize(0, q.PageQuery)}
	}
	return page
}

func (s *Categories) Get(ctx context.Context, id string) (Category, error) {
	if id == "" {
		return Category{}, ErrMissingID
	}
	return resource.Read(ctx, s.Service, "categories/"+id, "/admin/categories/"+url.PathEscape(id), nil, func(r resource.Data[rawCategory]) Category {
		return normalizeCategory(r.Value)
	})
}

func (s *Categories) Create(ctx context.Context, in CategoryInput) (Category, error) {
	in, err := prepareCategory(in)
	if err != nil {
		return Category{}, err
	}
	return s.write(ctx, http.MethodPost, "/admin/categories", in)
}

func (s *Categories) Update(ctx context.Context, id string, in CategoryInput) (Category, error) {
	if id == "" {
		return Category{}, ErrMissingID
	}
	if in.ParentID != nil && *in.ParentID == id {
		return Category{}, ErrOwnParent
	}
	in, err := prepareCategory(in)
	if err != nil {
		return Category{}, err
	}
	return s.write(ctx, http.MethodPut, "/admin/categories/"+url.PathEscape(id), in)
}

// Delete does not consult CanDelete; a refusal comes back as the server's
// own message.
func (s *Categories) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.Mutate(ctx, http.MethodDelete, "/admin/categories/"+url.PathEscape(id), nil, nil)
}

func (s *Categories) write(ctx context.Context, method, path string, in CategoryInput) (Category, error) {
	var out resource.Data[rawCategory]
	if err := s.Mutate(ctx, method, path, in, &out); err != nil {
		return Category{}, err
	}
	return normalizeCategory(out.Value), nil
}

func prepareCategory(in CategoryInput) (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, ErrMissingName
	}
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
	}
	if in.ParentID != nil && *in.ParentID == "" {
		in.ParentID = nil
	}
	return in, nil
}
