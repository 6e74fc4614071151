package templating

import (
	"text/template"

	"github.com/CTAG07/keepfn/pkg/functions"
)

// templateBuiltins are the text/template predefined functions. Library
// functions with these names are reachable only through "keep".
var templateBuiltins = map[string]struct{}{
	"and": {}, "call": {}, "html": {}, "index": {}, "slice": {}, "js": {},
	"len": {}, "not": {}, "or": {}, "print": {}, "printf": {}, "println": {},
	"urlquery": {}, "eq": {}, "ge": {}, "gt": {}, "le": {}, "lt": {}, "ne": {},
}

func (tm *TemplateManager) makeFuncMap() template.FuncMap {
	funcMap := template.FuncMap{
		// {{ keep "uppercase" .alert.name }} reaches every library function.
		"keep": func(name string, args ...any) (any, error) {
			return tm.call(name, args)
		},
		// {{ kw "timezone" "Europe/Berlin" }} builds a keyword argument.
		"kw": func(key string, value any) functions.Kwarg {
			return functions.Kwarg{Key: key, Value: value}
		},
	}
	for _, name := range tm.lib.Names() {
		if _, shadowed := templateBuiltins[name]; shadowed {
			continue
		}
		if _, taken := funcMap[name]; taken {
			continue
		}
		funcMap[name] = tm.direct(name)
	}
	return funcMap
}

func (tm *TemplateManager) direct(name string) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		return tm.call(name, args)
	}
}

func (tm *TemplateManager) call(name string, args []any) (any, error) {
	v, err := tm.lib.CallAny(name, args...)
	if err != nil {
		return nil, err
	}
	return toTemplate(v), nil
}

// toTemplate hands results back to text/template. Scalars, lists and mappings
// become plain Go values so that eq, range and index work on them; datetimes
// stay Values so they print as ISO strings and pass back into functions intact.
func toTemplate(v functions.Value) any {
	switch v.Kind() {
	case functions.KindNull:
		return ""
	case functions.KindTime:
		return v
	}
	return v.Interface()
}

// templateData converts Values passed as template data into plain Go data.
func templateData(data any) any {
	switch d := data.(type) {
	case functions.Value:
		return d.Interface()
	case *functions.Value:
		if d == nil {
			return nil
		}
		return d.Interface()
	}
	return data
}
