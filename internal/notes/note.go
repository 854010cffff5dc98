// Package notes models the append-only annotations on orders and customers
// and the optimistic list the console keeps while a note is being saved.
package notes

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ariefcatur/scent-admin/internal/resource"
)

var ErrEmpty = errors.New("note text is required")

type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// Raw decodes the note shapes the API sends: {"text"}, {"note"} or
// {"content"}, with the author as a name or a populated user object.
type Raw struct {
	ID        resource.ID `json:"id"`
	MongoID   resource.ID `json:"_id"`
	Text      string      `json:"text"`
	Note      string      `json:"note"`
	Content   string      `json:"content"`
	Author    Author      `json:"author"`
	CreatedBy Author      `json:"createdBy"`
	CreatedAt time.Time   `json:"createdAt"`
	Date      time.Time   `json:"date"`
}

// Author decodes a user given as a plain name or as a user object.
type Author string

func (a *Author) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Author(s)
		return nil
	}
	var u struct {
		Name      string `json:"name"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	}
	if err := json.Unmarshal(b, &u); err != nil {
		return err
	}
	name := u.Name
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if name == "" {
		name = u.Email
	}
	*a = Author(name)
	return nil
}

func (r Raw) Normalize() Note {
	n := Note{
		ID:        resource.FirstID(r.ID, r.MongoID),
		Text:      firstNonEmpty(r.Text, r.Note, r.Content),
		Author:    firstNonEmpty(string(r.Author), string(r.CreatedBy)),
		CreatedAt: r.CreatedAt,
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.Date
	}
	return n
}

func NormalizeAll(raws []Raw) []Note {
	out := make([]Note, 0, len(raws))
	for _, r := range raws {
		out = append(out, r.Normalize())
	}
	return out
}

// AddResponse covers an add-note reply that returns either the new note or
// the whole parent record with its notes.
type AddResponse struct {
	Note Note
}

func (a *AddResponse) UnmarshalJSON(b []byte) error {
	var d resource.Data[json.RawMessage]
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	var parent struct {
		Notes []Raw `json:"notes"`
	}
	if json.Unmarshal(d.Value, &parent) == nil && len(parent.Notes) > 0 {
		a.Note = parent.Notes[len(parent.Notes)-1].Normalize()
		return nil
	}
	var r Raw
	if err := json.Unmarshal(d.Value, &r); err != nil {
		return err
	}
	a.Note = r.Normalize()
	return nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
