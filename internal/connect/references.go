package connect

// Ref es una referencia a integración y el segmento de ruta que la ubica
// en el body (índice para listas, clave para objetos).
type Ref struct {
	Key     string
	Segment any
}

// ListRefs arma refs de una lista; el segmento es la posición.
func ListRefs(keys []string) []Ref {
	if keys == nil {
		return nil
	}
	out := make([]Ref, len(keys))
	for i, k := range keys {
		out[i] = Ref{Key: k, Segment: i}
	}
	return out
}

// EntryRefs arma refs de un objeto; el segmento es la clave.
func EntryRefs[T any](e Entries[T]) []Ref {
	if e == nil {
		return nil
	}
	out := make([]Ref, len(e))
	for i, kv := range e {
		out[i] = Ref{Key: kv.Key, Segment: kv.Key}
	}
	return out
}

// CheckReferences retorna un error por cada ref cuya clave no está en
// known, en el orden de refs. nil si no hay hallazgos.
func CheckReferences(refs []Ref, known map[string]struct{}, prefix ...any) []FieldError {
	var errs []FieldError
	for _, r := range refs {
		if _, ok := known[r.Key]; ok {
			continue
		}
		errs = append(errs, FieldError{
			Code:    CodeIntegrationNotFound,
			Message: MsgIntegrationNotFound,
			Path:    joinPath(prefix, r.Segment),
		})
	}
	return errs
}
