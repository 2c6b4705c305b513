package config

import "github.com/invopop/jsonschema"

// GenerateJSONSchema generates a JSON schema for editor support of *.agentx.yaml files
func GenerateJSONSchema() (*jsonschema.Schema, error) {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  false,
	}

	schema := r.Reflect(&ConfigSchema{})
	schema.Title = "agentx configuration"
	schema.Description = "Configuration schema for the agentx crypto chat assistant"

	return schema, nil
}
