// Package util tiene helpers para no loguear datos sensibles en claro.
package util

import "strings"

// MaskEmail deja la primera letra del usuario y del dominio.
// "ana@example.com" => "a…@e….com"
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskSecret conserva el prefijo conocido y los últimos 4 caracteres.
// "nango_connect_session_ab12...ff09" => "nango_connect_session_…ff09"
func MaskSecret(s, prefix string) string {
	body := strings.TrimPrefix(s, prefix)
	if len(body) <= 8 {
		return prefix + "***"
	}
	return prefix + "…" + body[len(body)-4:]
}
