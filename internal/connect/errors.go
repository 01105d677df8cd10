package connect

// Códigos internos de FieldError. Los de esquema y los de referencia
// comparten el código externo invalid_body.
const (
	CodeInvalidType         = "invalid_type"
	CodeInvalidString       = "invalid_string"
	CodeTooSmall            = "too_small"
	CodeTooBig              = "too_big"
	CodeUnrecognizedKeys    = "unrecognized_keys"
	CodeIntegrationNotFound = "integration_not_found"
)

// MsgIntegrationNotFound es el mensaje de una referencia desconocida.
const MsgIntegrationNotFound = "integration does not exist"

// FieldError es un hallazgo de validación con su ruta en el body.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    []any  `json:"path"`
}

// Kind clasifica los fallos del flujo.
type Kind string

const (
	KindSchemaValidation  Kind = "schema_validation"
	KindReferenceNotFound Kind = "reference_not_found"
	KindPermissionDenied  Kind = "permission_denied"
	KindPersistence       Kind = "persistence"
	KindIssuance          Kind = "issuance"
)

func joinPath(prefix []any, seg any) []any {
	p := make([]any, 0, len(prefix)+1)
	p = append(p, prefix...)
	return append(p, seg)
}
