// Package scaffold generates RestKit source files (repositories, actions,
// getters, filters) from fixed templates. It is advisory tooling: emitted
// source is not validated beyond template rendering.
package scaffold

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/restkit/restkit-mcp/internal/config"
	"github.com/restkit/restkit-mcp/internal/logging"
)

// Kind identifies the artifact family being generated.
type Kind int

const (
	KindRepository Kind = iota
	KindAction
	KindGetter
	KindFilter
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindRepository:
		return "repository"
	case KindAction:
		return "action"
	case KindGetter:
		return "getter"
	case KindFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// ParseKind maps a tool/CLI argument to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "repository":
		return KindRepository, nil
	case "action":
		return KindAction, nil
	case "getter":
		return KindGetter, nil
	case "filter":
		return KindFilter, nil
	default:
		return 0, fmt.Errorf("unknown artifact kind %q (expected repository, action, getter, or filter)", s)
	}
}

// classSuffix is appended to the artifact name when missing.
func (k Kind) classSuffix() string {
	switch k {
	case KindRepository:
		return "Repository"
	case KindAction:
		return "Action"
	case KindGetter:
		return "Getter"
	case KindFilter:
		return "Filter"
	default:
		return ""
	}
}

// defaultDir is the placement fallback when the project tree holds no
// artifacts of this kind yet.
func (k Kind) defaultDir() string {
	switch k {
	case KindRepository:
		return filepath.Join("app", "Restify", "Repositories")
	case KindAction:
		return filepath.Join("app", "Restify", "Actions")
	case KindGetter:
		return filepath.Join("app", "Restify", "Getters")
	case KindFilter:
		return filepath.Join("app", "Restify", "Filters")
	default:
		return filepath.Join("app", "Restify")
	}
}

// Variants returns the accepted subtype names for the kind. The first entry
// is the default.
func (k Kind) Variants() []string {
	switch k {
	case KindAction, KindGetter:
		return []string{"invokable", "standalone"}
	case KindFilter:
		return []string{"match", "sort", "advanced"}
	default:
		return nil
	}
}

// Request carries all inputs for one generation.
type Request struct {
	Kind Kind
	// Name is the class name; the kind suffix is appended when missing.
	Name string
	// Variant selects the subtype for actions, getters, and filters.
	Variant string
	// Model is the associated data-model class (repositories, filters).
	Model string
	// Rules are "attribute:rule1|rule2" validation entries (repositories).
	Rules []string
	// URIKey overrides the generated resource URI key.
	URIKey string
	// Namespace overrides the configured base namespace.
	Namespace string
	// Force allows overwriting an existing file.
	Force bool
	// DryRun renders without writing.
	DryRun bool
}

// Report describes what a generation produced.
type Report struct {
	Path      string
	Class     string
	Source    string
	Created   bool
	NextSteps []string
}

// Generator renders and writes artifacts under a project tree.
type Generator struct {
	cfg    config.ScaffoldConfig
	logger *slog.Logger
}

// NewGenerator creates a Generator for the configured project.
func NewGenerator(cfg config.ScaffoldConfig) *Generator {
	return &Generator{
		cfg:    cfg,
		logger: logging.WithComponent("scaffold"),
	}
}

// Generate validates the request, resolves placement, renders the template,
// and writes the file. It refuses to overwrite without Force.
func (g *Generator) Generate(req Request) (*Report, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("artifact name must not be empty")
	}
	variant, err := resolveVariant(req.Kind, req.Variant)
	if err != nil {
		return nil, err
	}

	class := classify(req.Name, req.Kind)
	dir := g.resolveDir(req.Kind)
	path := filepath.Join(dir, class+".php")

	if _, err := os.Stat(path); err == nil && !req.Force {
		return nil, fmt.Errorf("%s already exists (use force to overwrite)", path)
	}

	source, err := g.render(req, class, variant)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", req.Kind, err)
	}

	report := &Report{
		Path:      path,
		Class:     class,
		Source:    source,
		NextSteps: nextSteps(req.Kind, class, variant),
	}
	if req.DryRun {
		return report, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	report.Created = true
	g.logger.Info("generated artifact", "kind", req.Kind.String(), "path", path)
	return report, nil
}

// resolveDir picks the output directory by scanning the project tree for
// the most common existing placement of same-kind artifacts. Deeper
// directories win ties; the configured default applies when none exist.
func (g *Generator) resolveDir(kind Kind) string {
	suffix := kind.classSuffix() + ".php"
	counts := make(map[string]int)

	root := g.cfg.ProjectRoot
	if root == "" {
		root = "."
	}
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), suffix) {
			counts[filepath.Dir(path)]++
		}
		return nil
	})

	best := ""
	for dir, count := range counts {
		if best == "" {
			best = dir
			continue
		}
		switch {
		case count > counts[best]:
			best = dir
		case count == counts[best] && depth(dir) > depth(best):
			best = dir
		case count == counts[best] && depth(dir) == depth(best) && dir < best:
			best = dir
		}
	}
	if best != "" {
		return best
	}
	return filepath.Join(root, kind.defaultDir())
}

func depth(dir string) int {
	return strings.Count(filepath.ToSlash(dir), "/")
}

func resolveVariant(kind Kind, variant string) (string, error) {
	accepted := kind.Variants()
	if len(accepted) == 0 {
		return "", nil
	}
	if variant == "" {
		return accepted[0], nil
	}
	normalized := strings.ToLower(strings.TrimSpace(variant))
	for _, v := range accepted {
		if v == normalized {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown %s variant %q (expected one of %s)",
		kind, variant, strings.Join(accepted, ", "))
}

// classify normalizes a user-supplied name into a class name carrying the
// kind suffix, e.g. "post" -> "PostRepository".
func classify(name string, kind Kind) string {
	class := strings.TrimSpace(name)
	class = strings.NewReplacer("-", " ", "_", " ").Replace(class)
	words := strings.Fields(class)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	class = strings.Join(words, "")
	if !strings.HasSuffix(class, kind.classSuffix()) {
		class += kind.classSuffix()
	}
	return class
}

// render executes the kind's template. One renderer covers every kind; the
// variant is plain data, not a code path.
func (g *Generator) render(req Request, class, variant string) (string, error) {
	tmpl, err := template.New(req.Kind.String()).Parse(templateFor(req.Kind))
	if err != nil {
		return "", err
	}

	namespace := req.Namespace
	if namespace == "" {
		namespace = g.cfg.Namespace
	}
	model := req.Model
	if model == "" && req.Kind == KindRepository {
		model = strings.TrimSuffix(class, req.Kind.classSuffix())
	}

	data := templateData{
		Class:          class,
		Namespace:      namespace,
		ModelNamespace: g.cfg.ModelNamespace,
		Model:          model,
		URIKey:         req.URIKey,
		Variant:        variant,
		Standalone:     variant == "standalone",
		Rules:          parseRules(req.Rules),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type templateData struct {
	Class          string
	Namespace      string
	ModelNamespace string
	Model          string
	URIKey         string
	Variant        string
	Standalone     bool
	Rules          []fieldRule
}

type fieldRule struct {
	Attribute string
	Rules     string
}

// parseRules splits "attribute:rule1|rule2" entries. Entries without a
// colon become a required-field rule.
func parseRules(rules []string) []fieldRule {
	var out []fieldRule
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		attribute, rest, found := strings.Cut(rule, ":")
		if !found {
			out = append(out, fieldRule{Attribute: attribute, Rules: "required"})
			continue
		}
		out = append(out, fieldRule{Attribute: attribute, Rules: rest})
	}
	return out
}

func nextSteps(kind Kind, class, variant string) []string {
	switch kind {
	case KindRepository:
		return []string{
			fmt.Sprintf("Register %s in your RestKit service provider if auto-discovery is disabled.", class),
			"Adjust the fields() list to match your model's attributes.",
			"Add authorization via the allowRestify gate or a policy.",
		}
	case KindAction:
		steps := []string{
			fmt.Sprintf("Attach %s to a repository's actions() method.", class),
			"Implement the handle() body.",
		}
		if variant == "standalone" {
			steps = append(steps, "Standalone actions run without selected models; no repository attach needed.")
		}
		return steps
	case KindGetter:
		return []string{
			fmt.Sprintf("Attach %s to a repository's getters() method.", class),
			"Return your payload from handle().",
		}
	case KindFilter:
		return []string{
			fmt.Sprintf("Attach %s to a repository's filters() method.", class),
			"Tune the filter's column and operator for your schema.",
		}
	default:
		return nil
	}
}
