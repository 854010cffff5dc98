package resource

import (
	"bytes"
	"encoding/json"
)

// Ref is a reference the API sends either as a bare id or as a populated
// object with a name.
type Ref struct {
	ID   string
	Name string
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*r = Ref{}
		return nil
	}
	if b[0] != '{' {
		var id ID
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Ref{ID: string(id)}
		return nil
	}
	var obj struct {
		ID      ID     `json:"id"`
		MongoID ID     `json:"_id"`
		Name    string `json:"name"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.ID = FirstID(obj.ID, obj.MongoID)
	r.Name = obj.Name
	if r.Name == "" {
		r.Name = obj.Title
	}
	return nil
}
