package usecase

import (
	"errors"
	"fmt"
	"strings"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

// createRecordSchema describes the body of a tenant record create.
const createRecordSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"data_id": {"type": "string", "minLength": 1}
	}
}`

func mustCompileSchema(name, schemaJSON string) *santhosh.Schema {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource(name, strings.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return sch
}

// validateFields checks fields against sch and returns a *domain.ValidationError
// listing every violation.
func validateFields(sch *santhosh.Schema, fields domain.Fields) error {
	if fields == nil {
		fields = domain.Fields{}
	}
	err := sch.Validate(map[string]any(fields))
	if err == nil {
		return nil
	}
	var ve *santhosh.ValidationError
	if errors.As(err, &ve) {
		return domain.NewValidationError(collectValidationErrors(ve)...)
	}
	return domain.NewValidationError(err.Error())
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		if ve.InstanceLocation == "" {
			msgs = append(msgs, ve.Message)
		} else {
			msgs = append(msgs, strings.TrimPrefix(ve.InstanceLocation, "/")+": "+ve.Message)
		}
	}
	return msgs
}
