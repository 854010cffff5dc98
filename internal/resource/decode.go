package resource

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// ID accepts string or numeric identifiers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	*id = ID(string(b))
	return nil
}

// FirstID returns the first non-empty id, for payloads that send either
// "id" or "_id".
func FirstID(ids ...ID) string {
	for _, id := range ids {
		if id != "" {
			return string(id)
		}
	}
	return ""
}

// Int decodes numbers, numeric strings and null; anything else is zero.
type Int int

func (n *Int) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		*n = Int(i)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = Int(int(f))
		return nil
	}
	*n = 0
	return nil
}

type Pagination struct {
	Page       Int `json:"page"`
	Limit      Int `json:"limit"`
	Total      Int `json:"total"`
	TotalPages Int `json:"totalPages"`
}

type rawPagination struct {
	Page        Int `json:"page"`
	CurrentPage Int `json:"currentPage"`
	Limit       Int `json:"limit"`
	PerPage     Int `json:"perPage"`
	Total       Int `json:"total"`
	TotalItems  Int `json:"totalItems"`
	Count       Int `json:"count"`
	TotalPages  Int `json:"totalPages"`
	Pages       Int `json:"pages"`
}

func (p *Pagination) UnmarshalJSON(b []byte) error {
	var r rawPagination
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*p = Pagination{
		Page:       firstInt(r.Page, r.CurrentPage),
		Limit:      firstInt(r.Limit, r.PerPage),
		Total:      firstInt(r.Total, r.TotalItems, r.Count),
		TotalPages: firstInt(r.TotalPages, r.Pages),
	}
	return nil
}

func (p Pagination) empty() bool { return p == Pagination{} }

func firstInt(vs ...Int) Int {
	for _, v := range vs {
		if v != 0 {
			return v
		}
	}
	return 0
}

// Normalize fills what the server left out, given the item count on this
// page and the query that produced it.
func (p Pagination) Normalize(n int, q PageQuery) Pagination {
	if p.Page <= 0 {
		p.Page = Int(max(q.Page, 1))
	}
	if p.Limit <= 0 {
		p.Limit = Int(q.Limit)
		if p.Limit <= 0 {
			p.Limit = Int(n)
		}
	}
	if p.Total <= 0 {
		p.Total = Int(n)
		if p.Page > 1 && p.Limit > 0 {
			p.Total += (p.Page - 1) * p.Limit
		}
	}
	if p.TotalPages <= 0 && p.Limit > 0 {
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}
	if p.TotalPages <= 0 {
		p.TotalPages = 1
	}
	return p
}

// ListBody decodes the list shapes the API returns: a bare array,
// {"data": [...]} and {"data": {"products": [...], "pagination": {...}}},
// with pagination under "pagination", "meta" or at the top level.
type ListBody[T any] struct {
	Items      []T
	Pagination Pagination
}

func (l *ListBody[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, &l.Items)
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}

	for _, k := range []string{"pagination", "meta"} {
		if raw, ok := m[k]; ok {
			var p Pagination
			if json.Unmarshal(raw, &p) == nil && !p.empty() {
				l.Pagination = p
				break
			}
		}
	}
	if l.Pagination.empty() {
		var p Pagination
		if json.Unmarshal(b, &p) == nil {
			l.Pagination = p
		}
	}

	if raw, ok := m["data"]; ok {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			var inner ListBody[T]
			if err := json.Unmarshal(raw, &inner); err != nil {
				return err
			}
			l.Items = inner.Items
			if l.Pagination.empty() {
				l.Pagination = inner.Pagination
			}
			return nil
		}
		if len(raw) > 0 && raw[0] == '[' {
			return json.Unmarshal(raw, &l.Items)
		}
	}

	for _, k := range []string{"items", "results"} {
		if raw, ok := m[k]; ok && isArray(raw) {
			return json.Unmarshal(raw, &l.Items)
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if isArray(m[k]) {
			return json.Unmarshal(m[k], &l.Items)
		}
	}
	return nil
}

// Data decodes either {"data": X} or a bare X.
type Data[T any] struct {
	Value T
}

func (d *Data[T]) UnmarshalJSON(b []byte) error {
	var envelope map[string]json.RawMessage
	if json.Unmarshal(b, &envelope) == nil {
		if raw, ok := envelope["data"]; ok && string(bytes.TrimSpace(raw)) != "null" {
			return json.Unmarshal(raw, &d.Value)
		}
	}
	return json.Unmarshal(b, &d.Value)
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
