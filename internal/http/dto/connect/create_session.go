package connect

import (
	"fmt"
	"io"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"

	cs "github.com/dbMundada/nango/internal/connect"
	"github.com/dbMundada/nango/internal/domain/repository"
	"github.com/dbMundada/nango/internal/enduser"
)

const maxStringLen = 255

// CreateSessionRequest es el body de POST /connect/sessions ya chequeado
// en forma. Los objetos por integración conservan el orden del body.
type CreateSessionRequest struct {
	EndUser                    *enduser.Input
	Organization               *enduser.OrganizationInput
	AllowedIntegrations        []string
	IntegrationsConfigDefaults cs.Entries[repository.IntegrationConfigDefaults]
	Overrides                  cs.Entries[repository.IntegrationOverride]
}

// ToRequest arma el input del coordinador.
func (r *CreateSessionRequest) ToRequest(meta map[string]any) cs.Request {
	return cs.Request{
		EndUser:                    enduser.ToEndUser(r.EndUser, r.Organization),
		AllowedIntegrations:        r.AllowedIntegrations,
		IntegrationsConfigDefaults: r.IntegrationsConfigDefaults,
		Overrides:                  r.Overrides,
		Meta:                       meta,
	}
}

// DecodeCreateSession parsea y chequea el body completo, incluido el formato
// de claves y de docs_connect. Junta todos los hallazgos en vez de cortar en
// el primero; si hay alguno el request es nil.
func DecodeCreateSession(r io.Reader) (*CreateSessionRequest, []cs.FieldError) {
	root, err := parse(r)
	if err != nil {
		return nil, []cs.FieldError{{
			Code:    cs.CodeInvalidType,
			Message: "Invalid JSON body",
			Path:    []any{},
		}}
	}

	c := &checker{}
	req := c.createSession(root)
	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return req, nil
}

type checker struct {
	errs []cs.FieldError
}

func (c *checker) add(code, msg string, path []any) {
	c.errs = append(c.errs, cs.FieldError{Code: code, Message: msg, Path: path})
}

// id es un string 1..255 que no puede quedar vacío al recortarlo.
func (c *checker) id(n *node, path []any) (string, bool) {
	s, ok := c.str(n, path, 1, maxStringLen)
	if !ok {
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		c.add(cs.CodeTooSmall, "String must contain at least 1 character(s)", path)
		return "", false
	}
	return s, true
}

func (c *checker) expect(n *node, want kind, path []any) bool {
	if n.kind == want {
		return true
	}
	c.add(cs.CodeInvalidType, fmt.Sprintf("Expected %s, received %s", want, n.kind), path)
	return false
}

// object chequea tipo y claves permitidas; retorna los miembros conocidos.
func (c *checker) object(n *node, path []any, allowed ...string) map[string]*node {
	if !c.expect(n, kindObject, path) {
		return nil
	}
	out := make(map[string]*node, len(n.members))
	var unknown []string
	for _, m := range n.members {
		if slices.Contains(allowed, m.key) {
			out[m.key] = m.val
			continue
		}
		unknown = append(unknown, m.key)
	}
	if len(unknown) > 0 {
		quoted := make([]string, len(unknown))
		for i, k := range unknown {
			quoted[i] = "'" + k + "'"
		}
		c.add(cs.CodeUnrecognizedKeys, "Unrecognized key(s) in object: "+strings.Join(quoted, ", "), path)
	}
	return out
}

func (c *checker) str(n *node, path []any, minLen, maxLen int) (string, bool) {
	if !c.expect(n, kindString, path) {
		return "", false
	}
	l := utf8.RuneCountInString(n.str)
	if minLen > 0 && l < minLen {
		c.add(cs.CodeTooSmall, fmt.Sprintf("String must contain at least %d character(s)", minLen), path)
		return "", false
	}
	if maxLen > 0 && l > maxLen {
		c.add(cs.CodeTooBig, fmt.Sprintf("String must contain at most %d character(s)", maxLen), path)
		return "", false
	}
	return n.str, true
}

func (c *checker) optStr(n *node, path []any, minLen, maxLen int) *string {
	if n == nil {
		return nil
	}
	s, ok := c.str(n, path, minLen, maxLen)
	if !ok {
		return nil
	}
	return &s
}

// stringMap chequea un objeto string -> string.
func (c *checker) stringMap(n *node, path []any) map[string]string {
	if !c.expect(n, kindObject, path) {
		return nil
	}
	out := make(map[string]string, len(n.members))
	for _, m := range n.members {
		if v, ok := c.str(m.val, join(path, m.key), 0, 0); ok {
			out[m.key] = v
		}
	}
	return out
}

func (c *checker) createSession(root *node) *CreateSessionRequest {
	fields := c.object(root, []any{},
		"end_user", "organization", "allowed_integrations",
		"integrations_config_defaults", "overrides")
	if fields == nil {
		return nil
	}

	req := &CreateSessionRequest{}
	if n, ok := fields["end_user"]; ok {
		req.EndUser = c.endUser(n, []any{"end_user"})
	}
	if n, ok := fields["organization"]; ok {
		req.Organization = c.organization(n, []any{"organization"})
	}
	if n, ok := fields["allowed_integrations"]; ok {
		req.AllowedIntegrations = c.allowedIntegrations(n, []any{"allowed_integrations"})
	}
	if n, ok := fields["integrations_config_defaults"]; ok {
		req.IntegrationsConfigDefaults = c.configDefaults(n, []any{"integrations_config_defaults"})
	}
	if n, ok := fields["overrides"]; ok {
		req.Overrides = c.overrides(n, []any{"overrides"})
	}
	return req
}

func (c *checker) endUser(n *node, path []any) *enduser.Input {
	f := c.object(n, path, "id", "email", "display_name", "tags")
	if f == nil {
		return nil
	}
	in := &enduser.Input{}
	if v, ok := f["id"]; ok {
		if s, ok := c.id(v, join(path, "id")); ok {
			in.ID = s
		}
	}
	if v, ok := f["email"]; ok {
		p := join(path, "email")
		if s, ok := c.str(v, p, 1, maxStringLen); ok {
			if _, err := mail.ParseAddress(s); err != nil {
				c.add(cs.CodeInvalidString, "Invalid email", p)
			} else {
				in.Email = &s
			}
		}
	}
	in.DisplayName = c.optStr(f["display_name"], join(path, "display_name"), 1, maxStringLen)
	if v, ok := f["tags"]; ok {
		in.Tags = c.stringMap(v, join(path, "tags"))
	}
	return in
}

func (c *checker) organization(n *node, path []any) *enduser.OrganizationInput {
	f := c.object(n, path, "id", "display_name")
	if f == nil {
		return nil
	}
	org := &enduser.OrganizationInput{}
	if v, ok := f["id"]; ok {
		if s, ok := c.id(v, join(path, "id")); ok {
			org.ID = s
		}
	} else {
		c.add(cs.CodeInvalidType, "Required", join(path, "id"))
	}
	org.DisplayName = c.optStr(f["display_name"], join(path, "display_name"), 1, maxStringLen)
	return org
}

func (c *checker) allowedIntegrations(n *node, path []any) []string {
	if !c.expect(n, kindArray, path) {
		return nil
	}
	out := make([]string, 0, len(n.items))
	for i, it := range n.items {
		p := join(path, i)
		if s, ok := c.str(it, p, 0, 0); ok {
			c.errs = append(c.errs, cs.CheckIntegrationKey(s, p)...)
			out = append(out, s)
		}
	}
	return out
}

func (c *checker) configDefaults(n *node, path []any) cs.Entries[repository.IntegrationConfigDefaults] {
	if !c.expect(n, kindObject, path) {
		return nil
	}
	out := make(cs.Entries[repository.IntegrationConfigDefaults], 0, len(n.members))
	for _, m := range n.members {
		p := join(path, m.key)
		c.errs = append(c.errs, cs.CheckIntegrationKey(m.key, p)...)
		f := c.object(m.val, p, "user_scopes", "authorization_params", "connection_config")
		if f == nil {
			continue
		}
		var d repository.IntegrationConfigDefaults
		d.UserScopes = c.optStr(f["user_scopes"], join(p, "user_scopes"), 0, 0)
		if v, ok := f["authorization_params"]; ok {
			d.AuthorizationParams = c.stringMap(v, join(p, "authorization_params"))
		}
		if v, ok := f["connection_config"]; ok {
			if c.expect(v, kindObject, join(p, "connection_config")) {
				d.ConnectionConfig, _ = v.toAny().(map[string]any)
			}
		}
		out = append(out, cs.Entry[repository.IntegrationConfigDefaults]{Key: m.key, Value: d})
	}
	return out
}

func (c *checker) overrides(n *node, path []any) cs.Entries[repository.IntegrationOverride] {
	if !c.expect(n, kindObject, path) {
		return nil
	}
	out := make(cs.Entries[repository.IntegrationOverride], 0, len(n.members))
	for _, m := range n.members {
		p := join(path, m.key)
		c.errs = append(c.errs, cs.CheckIntegrationKey(m.key, p)...)
		f := c.object(m.val, p, "docs_connect")
		if f == nil {
			continue
		}
		dp := join(p, "docs_connect")
		o := repository.IntegrationOverride{DocsConnect: c.optStr(f["docs_connect"], dp, 0, 0)}
		if o.DocsConnect != nil {
			c.errs = append(c.errs, cs.CheckDocsConnect(*o.DocsConnect, dp)...)
		}
		out = append(out, cs.Entry[repository.IntegrationOverride]{Key: m.key, Value: o})
	}
	return out
}

func join(prefix []any, seg any) []any {
	p := make([]any, 0, len(prefix)+1)
	p = append(p, prefix...)
	return append(p, seg)
}
