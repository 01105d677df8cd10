package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbMundada/nango/internal/domain/repository"
)

func known(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func TestCheckReferences_Absent(t *testing.T) {
	assert.Nil(t, CheckReferences(ListRefs(nil), known("gh"), "allowed_integrations"))
	assert.Nil(t, CheckReferences(EntryRefs[repository.IntegrationOverride](nil), known(), "overrides"))
}

func TestCheckReferences_ListUsesIndex(t *testing.T) {
	errs := CheckReferences(ListRefs([]string{"gh", "nope", "slack"}), known("gh", "slack"), "allowed_integrations")
	require.Len(t, errs, 1)
	assert.Equal(t, []any{"allowed_integrations", 1}, errs[0].Path)
	assert.Equal(t, MsgIntegrationNotFound, errs[0].Message)
	assert.Equal(t, CodeIntegrationNotFound, errs[0].Code)
}

func TestCheckReferences_KeepsRequestOrder(t *testing.T) {
	defaults := Entries[repository.IntegrationConfigDefaults]{
		{Key: "z"}, {Key: "gh"}, {Key: "a"},
	}
	errs := CheckReferences(EntryRefs(defaults), known("gh"), "integrations_config_defaults")
	require.Len(t, errs, 2)
	assert.Equal(t, []any{"integrations_config_defaults", "z"}, errs[0].Path)
	assert.Equal(t, []any{"integrations_config_defaults", "a"}, errs[1].Path)
}

func TestCheckReferences_PrefixNotShared(t *testing.T) {
	prefix := []any{"overrides"}
	errs := CheckReferences(ListRefs([]string{"x", "y"}), known(), prefix...)
	require.Len(t, errs, 2)
	assert.Equal(t, []any{"overrides", 0}, errs[0].Path)
	assert.Equal(t, []any{"overrides", 1}, errs[1].Path)
}

func TestGateOverrides(t *testing.T) {
	link := "https://docs.example.com"
	withLink := Entries[repository.IntegrationOverride]{{Key: "gh", Value: repository.IntegrationOverride{DocsConnect: &link}}}
	withoutLink := Entries[repository.IntegrationOverride]{{Key: "gh"}}

	tests := []struct {
		name      string
		overrides Entries[repository.IntegrationOverride]
		capable   bool
		want      Decision
	}{
		{"absent", nil, false, Allowed},
		{"no doc link", withoutLink, false, Allowed},
		{"doc link without capability", withLink, false, Denied},
		{"doc link with capability", withLink, true, Allowed},
		{"unknown key still gated", Entries[repository.IntegrationOverride]{{Key: "nope", Value: repository.IntegrationOverride{DocsConnect: &link}}}, false, Denied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GateOverrides(tt.overrides, tt.capable))
		})
	}
}

func TestValidate(t *testing.T) {
	bad := "not a url"
	req := Request{
		AllowedIntegrations: []string{"gh", "bad/key"},
		Overrides: Entries[repository.IntegrationOverride]{
			{Key: "gh", Value: repository.IntegrationOverride{DocsConnect: &bad}},
		},
	}
	errs := Validate(&req)
	require.Len(t, errs, 2)
	assert.Equal(t, []any{"allowed_integrations", 1}, errs[0].Path)
	assert.Equal(t, CodeInvalidString, errs[0].Code)
	assert.Equal(t, []any{"overrides", "gh", "docs_connect"}, errs[1].Path)
}
