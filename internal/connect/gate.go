package connect

import "github.com/dbMundada/nango/internal/domain/repository"

// Decision es el resultado del gate de permisos.
type Decision int

const (
	Allowed Decision = iota
	Denied
)

func (d Decision) String() string {
	if d == Denied {
		return "denied"
	}
	return "allowed"
}

// GateOverrides niega si algún override setea docs_connect y el plan no
// tiene la capacidad. No mira si las claves existen.
func GateOverrides(overrides Entries[repository.IntegrationOverride], canOverrideDocLink bool) Decision {
	if canOverrideDocLink {
		return Allowed
	}
	for _, kv := range overrides {
		if kv.Value.DocsConnect != nil {
			return Denied
		}
	}
	return Allowed
}
