package secrets

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

// splitRef splits a secret reference of the form "name#field". field is empty
// when the whole secret value is wanted.
func splitRef(ref string) (name, field string) {
	name, field, _ = strings.Cut(strings.TrimSpace(ref), "#")
	return name, field
}

// extractField reads field out of a JSON object secret.
func extractField(raw, name, field string) (string, error) {
	var obj map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object: %w", name, err)
	}
	v, ok := obj[field]
	if !ok || v == nil {
		return "", domain.NotFoundError("field %s of secret %s", field, name)
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	default:
		return "", fmt.Errorf("field %s of secret %s is not a scalar", field, name)
	}
}
