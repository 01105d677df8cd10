// Package enduser arma el snapshot del end user que se guarda con la sesión.
package enduser

import "strings"

// Input son los campos de end user tal como llegan en el request.
type Input struct {
	ID          string
	Email       *string
	DisplayName *string
	Tags        map[string]string
}

// OrganizationInput es la organización opcional del end user.
type OrganizationInput struct {
	ID          string
	DisplayName *string
}

// Organization es la organización del end user.
type Organization struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name,omitempty"`
}

// EndUser es un value object opaco para el core; se persiste tal cual.
type EndUser struct {
	ID           string            `json:"id,omitempty"`
	Email        *string           `json:"email,omitempty"`
	DisplayName  *string           `json:"display_name,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	Organization *Organization     `json:"organization,omitempty"`
}

// ToEndUser construye el EndUser. Sin end user ni organización retorna nil;
// con solo organización retorna un EndUser que la lleva. No tiene efectos.
func ToEndUser(in *Input, org *OrganizationInput) *EndUser {
	if in == nil && org == nil {
		return nil
	}
	eu := &EndUser{}
	if in != nil {
		eu.ID = strings.TrimSpace(in.ID)
		eu.Email = trimmed(in.Email)
		eu.DisplayName = trimmed(in.DisplayName)
		if len(in.Tags) > 0 {
			eu.Tags = make(map[string]string, len(in.Tags))
			for k, v := range in.Tags {
				eu.Tags[k] = v
			}
		}
	}
	if org != nil {
		eu.Organization = &Organization{
			ID:          strings.TrimSpace(org.ID),
			DisplayName: trimmed(org.DisplayName),
		}
	}
	return eu
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
