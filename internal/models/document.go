package models

import (
	"encoding/json"
	"fmt"
)

// User is an account document. Email is the lookup key; any other fields a
// client sent on creation are kept in Profile.
type User struct {
	ID      string                 `bson:"_id"`
	Email   string                 `bson:"email"`
	Profile map[string]interface{} `bson:",inline"`
}

// NewUser builds a user document from a free-form body.
func NewUser(id string, body map[string]interface{}) User {
	u := User{ID: id, Profile: make(map[string]interface{}, len(body))}
	for k, v := range body {
		switch k {
		case "_id":
		case "email":
			u.Email, _ = v.(string)
		default:
			u.Profile[k] = v
		}
	}
	return u
}

// Clone returns a copy of u that shares no profile data with it.
func (u User) Clone() User {
	u.Profile = copyMap(u.Profile)
	return u
}

func (u User) MarshalJSON() ([]byte, error) {
	return marshalDocument(map[string]interface{}{"_id": u.ID, "email": u.Email}, u.Profile)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var out User
	profile, err := unmarshalDocument(data, func(key string, raw json.RawMessage) (bool, error) {
		switch key {
		case "_id":
			return true, json.Unmarshal(raw, &out.ID)
		case "email":
			return true, json.Unmarshal(raw, &out.Email)
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	out.Profile = profile
	*u = out
	return nil
}

// marshalDocument encodes extra and known as one flat object; known wins on
// key collisions.
func marshalDocument(known, extra map[string]interface{}) ([]byte, error) {
	doc := make(map[string]interface{}, len(known)+len(extra))
	for k, v := range extra {
		doc[k] = v
	}
	for k, v := range known {
		doc[k] = v
	}
	return json.Marshal(doc)
}

// unmarshalDocument hands every top-level key to field and collects the keys
// it does not claim into the returned map.
func unmarshalDocument(data []byte, field func(key string, raw json.RawMessage) (bool, error)) (map[string]interface{}, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	extra := make(map[string]interface{})
	for key, val := range raw {
		claimed, err := field(key, val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		if claimed {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(val, &v); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		extra[key] = v
	}
	return extra, nil
}
