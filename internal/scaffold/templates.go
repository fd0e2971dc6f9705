package scaffold

// templateFor maps a kind to its source template. Variants parameterize the
// template data; they never select a different template.
func templateFor(kind Kind) string {
	switch kind {
	case KindRepository:
		return repositoryTemplate
	case KindAction:
		return actionTemplate
	case KindGetter:
		return getterTemplate
	case KindFilter:
		return filterTemplate
	default:
		return ""
	}
}

const repositoryTemplate = `<?php

namespace {{.Namespace}}\Repositories;

use {{.ModelNamespace}}\{{.Model}};
use RestKit\Fields\Field;
use RestKit\Http\Requests\RestKitRequest;
use RestKit\Repositories\Repository;

class {{.Class}} extends Repository
{
    public static string $model = {{.Model}}::class;
{{- if .URIKey}}

    public static string $uriKey = '{{.URIKey}}';
{{- end}}

    public function fields(RestKitRequest $request): array
    {
        return [
            Field::make('id')->readonly(),
{{- range .Rules}}
            Field::make('{{.Attribute}}')->rules('{{.Rules}}'),
{{- end}}
        ];
    }
}
`

const actionTemplate = `<?php

namespace {{.Namespace}}\Actions;

use Illuminate\Support\Collection;
use RestKit\Actions\Action;
use RestKit\Http\Requests\ActionRequest;

class {{.Class}} extends Action
{
{{- if .Standalone}}
    public bool $standalone = true;

    public function handle(ActionRequest $request): mixed
    {
        // Runs without selected models.
        return response()->json(['message' => '{{.Class}} executed.']);
    }
{{- else}}
    public function handle(ActionRequest $request, Collection $models): mixed
    {
        foreach ($models as $model) {
            //
        }

        return response()->json(['message' => '{{.Class}} executed.']);
    }
{{- end}}
}
`

const getterTemplate = `<?php

namespace {{.Namespace}}\Getters;

use Illuminate\Database\Eloquent\Model;
use RestKit\Getters\Getter;
use RestKit\Http\Requests\GetterRequest;

class {{.Class}} extends Getter
{
{{- if .Standalone}}
    public bool $standalone = true;

    public function handle(GetterRequest $request): mixed
    {
        return response()->json([
            //
        ]);
    }
{{- else}}
    public function handle(GetterRequest $request, Model $model): mixed
    {
        return response()->json([
            //
        ]);
    }
{{- end}}
}
`

const filterTemplate = `<?php

namespace {{.Namespace}}\Filters;

use Illuminate\Database\Eloquent\Builder;
use RestKit\Filters\{{if eq .Variant "sort"}}SortableFilter{{else if eq .Variant "advanced"}}AdvancedFilter{{else}}MatchFilter{{end}};
use RestKit\Http\Requests\RestKitRequest;

class {{.Class}} extends {{if eq .Variant "sort"}}SortableFilter{{else if eq .Variant "advanced"}}AdvancedFilter{{else}}MatchFilter{{end}}
{
{{- if eq .Variant "advanced"}}
    public function filter(RestKitRequest $request, Builder $query, mixed $value): Builder
    {
        return $query->where('column', $value);
    }

    public function rules(RestKitRequest $request): array
    {
        return [
            'value' => 'required',
        ];
    }
{{- else if eq .Variant "sort"}}
    public string $column = 'created_at';
{{- else}}
    public string $column = 'id';
{{- end}}
}
`
