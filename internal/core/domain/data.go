package domain

import (
	"encoding/json"
	"time"
)

// Keys that belong to the fixed record schema and can never be set through Fields.
var reservedFieldKeys = map[string]struct{}{
	"tenant_id":  {},
	"data_id":    {},
	"created_at": {},
	"updated_at": {},
}

func IsReservedField(key string) bool {
	_, ok := reservedFieldKeys[key]
	return ok
}

// Fields is the schemaless part of a record. Numbers are kept as json.Number
// so they round-trip without float conversion.
type Fields map[string]any

// Clean returns a copy of f without reserved keys.
func (f Fields) Clean() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if IsReservedField(k) {
			continue
		}
		out[k] = v
	}
	return out
}

type DataRecord struct {
	TenantID  string
	DataID    string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PageKey is the store's continuation marker: the primary key of the last
// record of a page.
type PageKey struct {
	TenantID string `json:"tenant_id"`
	DataID   string `json:"data_id"`
}

type Page struct {
	TenantID   string
	Items      []DataRecord
	NextCursor string
}

func (p Page) Count() int {
	return len(p.Items)
}

// DefaultNumber is the zero value written for the value field when a caller
// omits it.
var DefaultNumber = json.Number("0")
