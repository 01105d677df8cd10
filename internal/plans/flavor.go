package plans

import (
	"fmt"
	"strings"
)

// Flavor es el tipo de despliegue. Se compara por igualdad, nunca por
// substring.
type Flavor string

const (
	FlavorCloud      Flavor = "cloud"
	FlavorEnterprise Flavor = "enterprise"
	FlavorSelfHosted Flavor = "self-hosted"
)

// ParseFlavor acepta solo los valores conocidos (case-insensitive).
func ParseFlavor(s string) (Flavor, error) {
	switch f := Flavor(strings.ToLower(strings.TrimSpace(s))); f {
	case FlavorCloud, FlavorEnterprise, FlavorSelfHosted:
		return f, nil
	case "":
		return FlavorSelfHosted, nil
	default:
		return "", fmt.Errorf("plans: unknown flavor %q (want cloud|enterprise|self-hosted)", s)
	}
}

// UsesPlans indica si las capacidades salen del plan de la cuenta.
// Fuera de cloud no hay planes y todo está habilitado.
func (f Flavor) UsesPlans() bool { return f == FlavorCloud }
