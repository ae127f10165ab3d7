package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an upstream identifier. The services emit both JSON strings and numbers; two IDs
// are equal when their textual forms are, and an ID marshals back to exactly what was read.
type ID struct {
	raw json.RawMessage
	key string
}

// NewID returns a string-valued ID.
func NewID(s string) ID {
	raw, _ := json.Marshal(s)
	return ID{raw: raw, key: s}
}

// Key is the textual form used for lookups.
func (id ID) Key() string { return id.key }

func (id ID) String() string { return id.key }

// IsZero reports whether the ID was never set.
func (id ID) IsZero() bool { return len(id.raw) == 0 }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty id")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id.key = s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		id.key = canonicalNumber(n)
	default:
		return fmt.Errorf("id must be a string or number, got %s", data)
	}

	id.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// canonicalNumber renders integral numbers without exponent or fraction so that 7, 7.0 and
// 7e0 share a key.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// User is a record from the user service. Absent fields stay nil.
type User struct {
	ID          *ID     `json:"id"`
	Name        *string `json:"name"`
	Role        *string `json:"role"`
	IsAvailable *bool   `json:"isAvailable"`
}

// UnmarshalJSON accepts any field type. Scalars of the wrong kind are read as text, and
// isAvailable follows JSON truthiness ("yes" and 1 are available, "" and 0 are not).
func (u *User) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	*u = User{
		ID:          looseID(fields["id"]),
		Name:        looseText(fields["name"]),
		Role:        looseText(fields["role"]),
		IsAvailable: looseBool(fields["isAvailable"]),
	}
	return nil
}

// Problem is a record from the problem service. CreatedAt is kept raw because the service
// sends ISO strings, epoch numbers or Firestore timestamp objects.
type Problem struct {
	ID                 *ID             `json:"id"`
	Description        *string         `json:"description"`
	Type               *string         `json:"type"`
	Status             *string         `json:"status"`
	CreatedAt          json.RawMessage `json:"createdAt"`
	AssignedTechnician *ID             `json:"assignedTechnician"`
	Priority           *string         `json:"priority"`
	ChefID             *ID             `json:"chefId"`
}

// UnmarshalJSON accepts any field type. A field that cannot be read as its kind is left nil
// and takes its default downstream.
func (p *Problem) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	*p = Problem{
		ID:                 looseID(fields["id"]),
		Description:        looseText(fields["description"]),
		Type:               looseText(fields["type"]),
		Status:             looseText(fields["status"]),
		AssignedTechnician: looseID(fields["assignedTechnician"]),
		Priority:           looseText(fields["priority"]),
		ChefID:             looseID(fields["chefId"]),
		CreatedAt:          fields["createdAt"],
	}
	return nil
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	if !isObject(data) {
		return nil, fmt.Errorf("record must be a JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// looseID reads a string or number id. Anything else counts as absent.
func looseID(raw json.RawMessage) *ID {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var id ID
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil
	}
	return &id
}

// looseText reads a string, or the literal text of a number or boolean. Objects and arrays
// count as absent.
func looseText(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return &s
	case '{', '[':
		return nil
	default:
		s := string(raw)
		return &s
	}
}

// looseBool applies JSON truthiness: false, 0, "", [] and {} are false.
func looseBool(raw json.RawMessage) *bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	var b bool
	switch x := v.(type) {
	case bool:
		b = x
	case float64:
		b = x != 0
	case string:
		b = x != ""
	case []any:
		b = len(x) > 0
	case map[string]any:
		b = len(x) > 0
	}
	return &b
}

// AssignRequest is forwarded to PUT /problems/{id}/assign.
type AssignRequest struct {
	TechnicianID *ID `json:"technicianId,omitempty"`
}

// StatusRequest is forwarded to PUT /problems/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// Relay carries an upstream mutation response back to the caller untouched.
type Relay struct {
	StatusCode int
	Body       json.RawMessage
}
