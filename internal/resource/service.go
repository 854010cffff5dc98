// Package resource holds the plumbing every per-resource service shares:
// cached reads, invalidating writes and lenient decoding of the API's
// response shapes.
package resource

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ariefcatur/scent-admin/internal/apiclient"
	"github.com/ariefcatur/scent-admin/internal/cache"
	"github.com/sirupsen/logrus"
)

var ErrMissingID = errors.New("id is required")

// Requester is the subset of *apiclient.Client the services use.
type Requester interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
	Download(ctx context.Context, path string, query url.Values) (apiclient.Blob, error)
}

type Service struct {
	API   Requester
	Cache *cache.Cache
	TTL   time.Duration
	Log   logrus.FieldLogger
}

func NewService(api Requester, c *cache.Cache, ttl time.Duration, log logrus.FieldLogger) Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return Service{API: api, Cache: c, TTL: ttl, Log: log}
}

// Read GETs path through the cache. The raw response R is decoded, passed
// through normalize, and the normalized value is what gets cached.
func Read[R, T any](ctx context.Context, s Service, endpoint, path string, query url.Values, normalize func(R) T) (T, error) {
	return cache.Fetch(ctx, s.Cache, cache.Key(endpoint, query), s.TTL, func(ctx context.Context) (T, error) {
		var raw R
		if err := s.API.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: query}, &raw); err != nil {
			var zero T
			return zero, err
		}
		return normalize(raw), nil
	})
}

// Mutate sends a write and clears the whole cache whether or not the write
// succeeded.
func (s Service) Mutate(ctx context.Context, method, path string, body, out any) error {
	defer s.Cache.Invalidate(method + " " + path)
	return s.API.Do(ctx, apiclient.Request{Method: method, Path: path, Body: body}, out)
}

// Fetch is an uncached GET.
func (s Service) Fetch(ctx context.Context, path string, query url.Values, out any) error {
	return s.API.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

type PageQuery struct {
	Page   int
	Limit  int
	Search string
}

func (p PageQuery) Values() url.Values {
	q := url.Values{}
	SetInt(q, "page", p.Page)
	SetInt(q, "limit", p.Limit)
	Set(q, "search", p.Search)
	return q
}

func Set(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func SetInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}
