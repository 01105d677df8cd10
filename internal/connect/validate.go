package connect

import (
	"net/url"
	"regexp"
)

const maxKeyLen = 255

var integrationKeyRe = regexp.MustCompile(`^[a-zA-Z0-9~:.@ _-]+$`)

// Validate revisa el formato de las claves de integración y de los
// docs_connect. Los tipos ya los garantizó el decoder.
func Validate(req *Request) []FieldError {
	var errs []FieldError
	for i, k := range req.AllowedIntegrations {
		errs = append(errs, CheckIntegrationKey(k, []any{"allowed_integrations", i})...)
	}
	for _, kv := range req.IntegrationsConfigDefaults {
		errs = append(errs, CheckIntegrationKey(kv.Key, []any{"integrations_config_defaults", kv.Key})...)
	}
	for _, kv := range req.Overrides {
		errs = append(errs, CheckIntegrationKey(kv.Key, []any{"overrides", kv.Key})...)
		if kv.Value.DocsConnect != nil {
			errs = append(errs, CheckDocsConnect(*kv.Value.DocsConnect, []any{"overrides", kv.Key, "docs_connect"})...)
		}
	}
	return errs
}

// CheckIntegrationKey valida el formato de una clave de integración.
func CheckIntegrationKey(k string, path []any) []FieldError {
	switch {
	case len(k) > maxKeyLen:
		return []FieldError{{Code: CodeTooBig, Message: "String must contain at most 255 character(s)", Path: path}}
	case !integrationKeyRe.MatchString(k):
		return []FieldError{{Code: CodeInvalidString, Message: "Invalid", Path: path}}
	}
	return nil
}

// CheckDocsConnect exige una URL absoluta.
func CheckDocsConnect(s string, path []any) []FieldError {
	u, err := url.Parse(s)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return nil
	}
	return []FieldError{{Code: CodeInvalidString, Message: "Invalid url", Path: path}}
}
