package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefinitions_CoverEveryTool(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 7)

	seen := map[Name]bool{}
	for _, d := range defs {
		require.NotEmpty(t, d.Description, "tool %s has no description", d.Name)
		require.NotNil(t, d.Parameters, "tool %s has no parameter schema", d.Name)
		require.False(t, seen[d.Name], "tool %s registered twice", d.Name)
		seen[d.Name] = true
	}
	for _, name := range []Name{
		NameSearchProducts, NameFindSellers, NameSeasonal, NameWishlist,
		NameTrackOrder, NameInstantOrder, NamePaymentHelp,
	} {
		require.True(t, seen[name], "tool %s missing from registry", name)
	}
}

func TestDefinitions_SchemasAreObjects(t *testing.T) {
	for _, d := range Definitions() {
		require.Equal(t, "object", d.Parameters["type"], "tool %s", d.Name)
		require.NotContains(t, d.Parameters, "$schema", "tool %s", d.Name)
		require.Contains(t, d.Parameters, "properties", "tool %s", d.Name)
	}
}

func TestDefinitions_RequiredFields(t *testing.T) {
	required := map[Name][]string{
		NameSearchProducts: {"query"},
		NameWishlist:       {"action"},
		NameTrackOrder:     {"searchTerm"},
		NameInstantOrder:   {"itemName"},
	}
	byName := map[Name]Definition{}
	for _, d := range Definitions() {
		byName[d.Name] = d
	}

	for name, fields := range required {
		def := byName[name]
		raw, ok := def.Parameters["required"].([]any)
		require.True(t, ok, "tool %s has no required list", name)
		got := make([]string, 0, len(raw))
		for _, f := range raw {
			got = append(got, f.(string))
		}
		for _, f := range fields {
			require.Contains(t, got, f, "tool %s", name)
		}
	}
}

func TestSpecs_MatchDefinitions(t *testing.T) {
	specs := Specs()
	defs := Definitions()
	require.Len(t, specs, len(defs))
	for i, s := range specs {
		require.Equal(t, string(defs[i].Name), s.Name)
		require.Equal(t, defs[i].Description, s.Description)
	}
}
