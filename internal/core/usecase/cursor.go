package usecase

import (
	"encoding/base64"
	"encoding/json"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

// EncodeCursor turns a store continuation key into the opaque token handed to
// clients.
func EncodeCursor(key domain.PageKey) string {
	raw, err := json.Marshal(key)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor. Anything that does not decode to a
// complete key reports false.
func DecodeCursor(cursor string) (domain.PageKey, bool) {
	if cursor == "" {
		return domain.PageKey{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return domain.PageKey{}, false
	}
	var key domain.PageKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return domain.PageKey{}, false
	}
	if key.TenantID == "" || key.DataID == "" {
		return domain.PageKey{}, false
	}
	return key, true
}
