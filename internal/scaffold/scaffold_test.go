package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restkit/restkit-mcp/internal/config"
)

func newTestGenerator(root string) *Generator {
	return NewGenerator(config.ScaffoldConfig{
		ProjectRoot:    root,
		Namespace:      "App\\Restify",
		ModelNamespace: "App\\Models",
	})
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{
		"repository": KindRepository,
		"Action":     KindAction,
		" getter ":   KindGetter,
		"FILTER":     KindFilter,
	} {
		kind, err := ParseKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, kind)
	}

	_, err := ParseKind("widget")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want string
	}{
		{"post", KindRepository, "PostRepository"},
		{"PostRepository", KindRepository, "PostRepository"},
		{"publish-post", KindAction, "PublishPostAction"},
		{"user_stats", KindGetter, "UserStatsGetter"},
		{"ActiveFilter", KindFilter, "ActiveFilter"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.name, tt.kind), tt.name)
	}
}

func TestResolveVariant(t *testing.T) {
	// Kinds without variants accept only the empty string implicitly.
	v, err := resolveVariant(KindRepository, "")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	// Default is the first accepted variant.
	v, err = resolveVariant(KindAction, "")
	require.NoError(t, err)
	assert.Equal(t, "invokable", v)

	v, err = resolveVariant(KindFilter, " Sort ")
	require.NoError(t, err)
	assert.Equal(t, "sort", v)

	_, err = resolveVariant(KindFilter, "fuzzy")
	assert.ErrorContains(t, err, "fuzzy")
}

func TestGenerate_Repository(t *testing.T) {
	root := t.TempDir()
	gen := newTestGenerator(root)

	report, err := gen.Generate(Request{
		Kind:   KindRepository,
		Name:   "post",
		Rules:  []string{"title:required|max:255", "body"},
		URIKey: "posts",
	})
	require.NoError(t, err)

	assert.Equal(t, "PostRepository", report.Class)
	assert.True(t, report.Created)
	assert.Equal(t, filepath.Join(root, "app", "Restify", "Repositories", "PostRepository.php"), report.Path)

	written, err := os.ReadFile(report.Path)
	require.NoError(t, err)
	source := string(written)

	assert.Contains(t, source, "namespace App\\Restify\\Repositories;")
	assert.Contains(t, source, "class PostRepository extends Repository")
	assert.Contains(t, source, "public static string $model = Post::class;")
	assert.Contains(t, source, "public static string $uriKey = 'posts';")
	assert.Contains(t, source, "Field::make('title')->rules('required|max:255')")
	// A rule without a colon defaults to required.
	assert.Contains(t, source, "Field::make('body')->rules('required')")
	assert.NotEmpty(t, report.NextSteps)
}

func TestGenerate_StandaloneAction(t *testing.T) {
	gen := newTestGenerator(t.TempDir())

	report, err := gen.Generate(Request{Kind: KindAction, Name: "publish", Variant: "standalone"})
	require.NoError(t, err)

	assert.Equal(t, "PublishAction", report.Class)
	assert.Contains(t, report.Source, "public bool $standalone = true;")
	assert.NotContains(t, report.Source, "Collection $models")
}

func TestGenerate_InvokableActionIsDefault(t *testing.T) {
	gen := newTestGenerator(t.TempDir())

	report, err := gen.Generate(Request{Kind: KindAction, Name: "publish"})
	require.NoError(t, err)

	assert.Contains(t, report.Source, "Collection $models")
	assert.NotContains(t, report.Source, "$standalone")
}

func TestGenerate_FilterVariants(t *testing.T) {
	tests := []struct {
		variant string
		base    string
	}{
		{"match", "MatchFilter"},
		{"sort", "SortableFilter"},
		{"advanced", "AdvancedFilter"},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			gen := newTestGenerator(t.TempDir())
			report, err := gen.Generate(Request{Kind: KindFilter, Name: "active", Variant: tt.variant})
			require.NoError(t, err)
			assert.Contains(t, report.Source, "extends "+tt.base)
		})
	}
}

func TestGenerate_RefusesOverwriteWithoutForce(t *testing.T) {
	gen := newTestGenerator(t.TempDir())

	first, err := gen.Generate(Request{Kind: KindGetter, Name: "stats"})
	require.NoError(t, err)

	_, err = gen.Generate(Request{Kind: KindGetter, Name: "stats"})
	require.ErrorContains(t, err, "already exists")

	report, err := gen.Generate(Request{Kind: KindGetter, Name: "stats", Force: true})
	require.NoError(t, err)
	assert.Equal(t, first.Path, report.Path)
}

func TestGenerate_DryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	gen := newTestGenerator(root)

	report, err := gen.Generate(Request{Kind: KindRepository, Name: "post", DryRun: true})
	require.NoError(t, err)

	assert.False(t, report.Created)
	assert.NotEmpty(t, report.Source)
	_, statErr := os.Stat(report.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_EmptyNameRejected(t *testing.T) {
	gen := newTestGenerator(t.TempDir())
	_, err := gen.Generate(Request{Kind: KindRepository, Name: "   "})
	assert.Error(t, err)
}

// Placement follows the most common existing directory of same-kind
// artifacts; deeper directories win ties.
func TestResolveDir_PrefersMostCommonExistingPlacement(t *testing.T) {
	root := t.TempDir()
	popular := filepath.Join(root, "src", "Restify", "Repositories")
	sparse := filepath.Join(root, "app", "Repositories")
	require.NoError(t, os.MkdirAll(popular, 0o755))
	require.NoError(t, os.MkdirAll(sparse, 0o755))

	for _, name := range []string{"UserRepository.php", "TeamRepository.php"} {
		require.NoError(t, os.WriteFile(filepath.Join(popular, name), []byte("<?php"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(sparse, "PostRepository.php"), []byte("<?php"), 0o644))

	gen := newTestGenerator(root)
	assert.Equal(t, popular, gen.resolveDir(KindRepository))
}

func TestResolveDir_DeeperWinsTies(t *testing.T) {
	root := t.TempDir()
	shallow := filepath.Join(root, "Actions")
	deep := filepath.Join(root, "app", "Restify", "Actions")
	require.NoError(t, os.MkdirAll(shallow, 0o755))
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shallow, "OneAction.php"), []byte("<?php"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(deep, "TwoAction.php"), []byte("<?php"), 0o644))

	gen := newTestGenerator(root)
	assert.Equal(t, deep, gen.resolveDir(KindAction))
}

func TestResolveDir_FallsBackToDefault(t *testing.T) {
	root := t.TempDir()
	gen := newTestGenerator(root)
	assert.Equal(t, filepath.Join(root, "app", "Restify", "Filters"), gen.resolveDir(KindFilter))
}

func TestParseRules(t *testing.T) {
	rules := parseRules([]string{"title:required|max:255", "body", "  ", "count:integer"})
	require.Len(t, rules, 3)
	assert.Equal(t, fieldRule{Attribute: "title", Rules: "required|max:255"}, rules[0])
	assert.Equal(t, fieldRule{Attribute: "body", Rules: "required"}, rules[1])
	assert.Equal(t, fieldRule{Attribute: "count", Rules: "integer"}, rules[2])
}

func TestNamespaceOverride(t *testing.T) {
	gen := newTestGenerator(t.TempDir())

	report, err := gen.Generate(Request{
		Kind:      KindRepository,
		Name:      "post",
		Namespace: "Acme\\Api",
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(report.Source, "namespace Acme\\Api\\Repositories;"))
}
