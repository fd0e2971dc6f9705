package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/restkit/restkit-mcp/internal/scaffold"
)

// makeGenerateHandler creates a handler for one artifact kind. All four
// generate_* tools share this shape; the kind is fixed at registration.
func makeGenerateHandler(gen *scaffold.Generator, kind scaffold.Kind) func(
	context.Context, *mcp.CallToolRequest, GenerateInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GenerateInput) (
		*mcp.CallToolResult, GenerateOutput, error,
	) {
		if strings.TrimSpace(input.Name) == "" {
			return nil, GenerateOutput{Error: "name is required"}, nil
		}

		report, err := gen.Generate(scaffold.Request{
			Kind:      kind,
			Name:      input.Name,
			Variant:   input.Variant,
			Model:     input.Model,
			Rules:     input.Rules,
			URIKey:    input.URIKey,
			Namespace: input.Namespace,
			Force:     input.Force,
		})
		if err != nil {
			// Generation failures (exists without force, bad variant) are
			// user input problems, reported as payload errors.
			return nil, GenerateOutput{Error: err.Error()}, nil
		}

		return nil, GenerateOutput{
			Path:   report.Path,
			Class:  report.Class,
			Report: formatReport(kind, report),
		}, nil
	}
}

func formatReport(kind scaffold.Kind, report *scaffold.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generated %s %s at %s\n\n", kind, report.Class, report.Path)
	sb.WriteString("Next steps:\n")
	for _, step := range report.NextSteps {
		sb.WriteString("- " + step + "\n")
	}
	return sb.String()
}
