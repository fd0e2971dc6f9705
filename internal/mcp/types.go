// Package mcp provides the MCP server exposing RestKit documentation search
// and artifact scaffolding tools.
package mcp

// SearchDocsInput defines the input parameters for the search_docs tool.
type SearchDocsInput struct {
	// Queries are the search queries, processed in order.
	Queries []string `json:"queries" jsonschema:"Search queries for finding relevant RestKit documentation"`
	// Category optionally scopes results to one documentation category.
	Category string `json:"category,omitempty" jsonschema:"Restrict results to a documentation category key"`
	// Limit is the maximum number of results per query.
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of results per query"`
	// TokenLimit caps the approximate token size of the response.
	TokenLimit int `json:"token_limit,omitempty" jsonschema:"Approximate token budget for the response"`
}

// SearchDocsOutput contains formatted search results.
type SearchDocsOutput struct {
	// Content is the formatted markdown result payload.
	Content string `json:"content"`
	// TotalResults counts results across all queries before truncation.
	TotalResults int `json:"total_results"`
	// Truncated indicates the token budget dropped trailing results.
	Truncated bool `json:"truncated,omitempty"`
	// Error carries a user-facing validation message.
	Error string `json:"error,omitempty"`
	// Suggestions lists categories to try when nothing matched.
	Suggestions []string `json:"suggestions,omitempty"`
}

// GetCodeExamplesInput defines the input for the get_code_examples tool.
type GetCodeExamplesInput struct {
	// Topic is the subject to find code examples for.
	Topic string `json:"topic" jsonschema:"Topic to find RestKit code examples for"`
	// Language optionally filters examples by code-fence language.
	Language string `json:"language,omitempty" jsonschema:"Filter examples by language tag (e.g. php)"`
	// Limit is the maximum number of examples returned.
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of examples"`
	// IncludeContext adds the source document's title and summary.
	IncludeContext bool `json:"include_context,omitempty" jsonschema:"Include document context with each example"`
}

// GetCodeExamplesOutput contains formatted code examples.
type GetCodeExamplesOutput struct {
	Content       string   `json:"content"`
	TotalExamples int      `json:"total_examples"`
	Error         string   `json:"error,omitempty"`
	Suggestions   []string `json:"suggestions,omitempty"`
}

// NavigateDocsInput defines the input for the navigate_docs tool.
type NavigateDocsInput struct {
	// Action selects the navigation mode: overview, categories, category,
	// or document.
	Action string `json:"action" jsonschema:"Navigation action: overview | categories | category | document"`
	// Category names the category to browse (action=category).
	Category string `json:"category,omitempty" jsonschema:"Category key to browse"`
	// Document is the document path or ID to display (action=document).
	Document string `json:"document,omitempty" jsonschema:"Document path or ID to display"`
}

// NavigateDocsOutput contains the formatted navigation payload.
type NavigateDocsOutput struct {
	Content     string   `json:"content"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// GenerateInput defines the shared input for the generate_* tools.
type GenerateInput struct {
	// Name is the artifact class name; the kind suffix is appended when
	// missing.
	Name string `json:"name" jsonschema:"Artifact name (e.g. Post or PostRepository)"`
	// Variant selects the artifact subtype where the kind supports one.
	Variant string `json:"variant,omitempty" jsonschema:"Artifact subtype (actions/getters: invokable|standalone; filters: match|sort|advanced)"`
	// Model is the associated data-model class name.
	Model string `json:"model,omitempty" jsonschema:"Associated model class name"`
	// Rules are attribute:rules validation entries for repository fields.
	Rules []string `json:"rules,omitempty" jsonschema:"Validation rules as attribute:rule1|rule2 entries"`
	// URIKey overrides the generated resource URI key.
	URIKey string `json:"uri_key,omitempty" jsonschema:"Custom URI key for the resource"`
	// Namespace overrides the configured base namespace.
	Namespace string `json:"namespace,omitempty" jsonschema:"Base namespace override"`
	// Force overwrites an existing file.
	Force bool `json:"force,omitempty" jsonschema:"Overwrite an existing file"`
}

// GenerateOutput reports a generation result.
type GenerateOutput struct {
	// Path is where the artifact was written.
	Path string `json:"path"`
	// Class is the generated class name.
	Class string `json:"class"`
	// Report is a human-readable summary with suggested next steps.
	Report string `json:"report"`
	// Error carries a user-facing failure message.
	Error string `json:"error,omitempty"`
}
