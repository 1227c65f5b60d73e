package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"pgregory.net/rapid"

	"github.com/stacklok/toolhive-schema-sync/internal/datatree"
	"github.com/stacklok/toolhive-schema-sync/internal/schema"
)

func twoModuleModel(t *testing.T) *schema.Model {
	t.Helper()
	model, err := schema.NewModel([]schema.Module{
		{Name: "B", Revision: "2020-02-02", Namespace: "urn:b"},
		{
			Name:       "A",
			Revision:   "2020-01-01",
			Namespace:  "urn:a",
			Features:   []string{"candidate"},
			Submodules: []schema.Submodule{{Name: "A-types", Revision: "2020-01-01"}},
		},
	})
	require.NoError(t, err)
	return model
}

func TestLibraryTree(t *testing.T) {
	t.Parallel()

	mapper := NewMapper()
	tree, err := mapper.LibraryTree(twoModuleModel(t), 1)
	require.NoError(t, err)
	assert.Equal(t, LibraryKind, tree.Kind())

	set, ok := tree.(*ModuleSet)
	require.True(t, ok)
	assert.Equal(t, "1", set.ModuleSetID)
	assert.Equal(t, schema.Generation(1), set.Generation())
	require.Len(t, set.Modules, 2)

	assert.Equal(t, "A", set.Modules[0].Name)
	assert.Equal(t, "2020-01-01", set.Modules[0].Revision)
	assert.Equal(t, []string{"candidate"}, set.Modules[0].Features)
	assert.Equal(t, []SubmoduleEntry{{Name: "A-types", Revision: "2020-01-01"}}, set.Modules[0].Submodules)
	assert.Equal(t, ConformanceImplement, set.Modules[0].ConformanceType)

	assert.Equal(t, "B", set.Modules[1].Name)
	assert.Equal(t, "2020-02-02", set.Modules[1].Revision)
}

func TestLibraryTree_Encoding(t *testing.T) {
	t.Parallel()

	tree, err := NewMapper().LibraryTree(twoModuleModel(t), 7)
	require.NoError(t, err)

	data, err := datatree.Encode(tree)
	require.NoError(t, err)

	doc := gjson.ParseBytes(data)
	root := doc.Get("ietf-yang-library:modules-state")
	require.True(t, root.Exists())
	assert.Equal(t, "7", root.Get("module-set-id").String())
	assert.Equal(t, `["A","B"]`, root.Get("module.#.name").Raw)
	assert.Equal(t, "urn:b", root.Get("module.1.namespace").String())
	assert.False(t, root.Get("module.1.feature").Exists())
}

func TestLibraryTree_NilModel(t *testing.T) {
	t.Parallel()

	tree, err := NewMapper().LibraryTree(nil, 1)
	assert.ErrorIs(t, err, ErrNilModel)
	assert.Nil(t, tree)
}

func TestLibraryTree_DeterministicAcrossGenerations(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(rt, "modules")
		modules := make([]schema.Module, 0, n)
		for i := 0; i < n; i++ {
			modules = append(modules, schema.Module{
				Name:      rapid.StringMatching(`[a-z][a-z0-9-]{0,8}`).Draw(rt, "name") + "-" + string(rune('a'+i)),
				Namespace: "urn:test",
			})
		}
		model, err := schema.NewModel(modules)
		if err != nil {
			rt.Fatalf("unexpected model error: %v", err)
		}

		g1 := schema.Generation(rapid.Uint64Range(1, 1<<32).Draw(rt, "g1"))
		mapper := NewMapper()
		first, err := mapper.LibraryTree(model, g1)
		if err != nil {
			rt.Fatal(err)
		}
		second, err := mapper.LibraryTree(model, g1+1)
		if err != nil {
			rt.Fatal(err)
		}

		a, b := first.(*ModuleSet), second.(*ModuleSet)
		if len(a.Modules) != len(b.Modules) {
			rt.Fatalf("module count differs: %d vs %d", len(a.Modules), len(b.Modules))
		}
		for i := range a.Modules {
			if a.Modules[i].Name != b.Modules[i].Name || a.Modules[i].Revision != b.Modules[i].Revision {
				rt.Fatalf("entry %d differs: %+v vs %+v", i, a.Modules[i], b.Modules[i])
			}
		}
		if b.Generation() != a.Generation()+1 {
			rt.Fatalf("generation tags not consecutive: %d, %d", a.Generation(), b.Generation())
		}
	})
}

func TestCapabilitiesTree(t *testing.T) {
	t.Parallel()

	monitoring := &schema.Module{Name: schema.MonitoringModuleName, Revision: "2017-01-26", Namespace: "urn:mon"}
	wrong := &schema.Module{Name: "not-monitoring", Namespace: "urn:x"}

	tests := []struct {
		name    string
		module  *schema.Module
		wantErr bool
	}{
		{name: "absent monitoring module", module: nil},
		{name: "monitoring module present", module: monitoring},
		{name: "unexpected module", module: wrong, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree, err := NewMapper().CapabilitiesTree(tt.module)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, tree)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, CapabilitiesKind, tree.Kind())

			state, ok := tree.(*RestconfState)
			require.True(t, ok)
			assert.Contains(t, state.Capabilities.Capability, CapabilityDepth)
			assert.Contains(t, state.Capabilities.Capability, CapabilityWithDefaults)
			assert.Len(t, state.Capabilities.Capability, 5)
		})
	}
}
