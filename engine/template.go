package engine

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/BaSui01/browserflow/action"
)

// placeholderPattern matches {{key}} placeholders in template string fields.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// expandTemplate resolves a template action against the template store,
// substitutes parameters into the stored records, and rebuilds them into
// concrete actions. The second return value is a failure result when
// expansion cannot proceed; nil on success.
func (r *Runner) expandTemplate(ctx context.Context, t *action.Template, ec *ExecutionContext) ([]action.Action, *action.Result) {
	if r.templates == nil {
		return nil, action.Failuref("template %q: no template store configured", t.TemplateName)
	}

	records, err := r.templates.GetTemplate(ctx, t.TemplateName)
	if err != nil {
		return nil, action.Failuref("template %q: %v", t.TemplateName, err)
	}

	// Explicit parameters win over context variables of the same name.
	params := ec.Snapshot()
	for k, v := range t.Parameters {
		params[k] = v
	}

	substituted := make([]action.Record, len(records))
	for i, rec := range records {
		substituted[i] = substituteRecord(rec, params)
	}

	expanded, err := r.factory.FromRecordList(substituted)
	if err != nil {
		return nil, action.Failuref("template %q: rebuild failed: %v", t.TemplateName, err)
	}

	r.logger.Debug("template expanded",
		zap.String("template", t.TemplateName),
		zap.Int("actions", len(expanded)))
	return expanded, nil
}

// substituteRecord deep-copies a record, replacing {{key}} placeholders in
// every string value from params. Nested records and record lists are walked
// recursively.
func substituteRecord(rec action.Record, params map[string]any) action.Record {
	out := make(action.Record, len(rec))
	for k, v := range rec {
		out[k] = substituteValue(v, params)
	}
	return out
}

func substituteValue(v any, params map[string]any) any {
	switch t := v.(type) {
	case string:
		return substituteString(t, params)
	case action.Record:
		return substituteRecord(t, params)
	case map[string]any:
		return map[string]any(substituteRecord(action.Record(t), params))
	case []action.Record:
		out := make([]action.Record, len(t))
		for i, rec := range t {
			out[i] = substituteRecord(rec, params)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = substituteValue(item, params)
		}
		return out
	default:
		return v
	}
}

func substituteString(s string, params map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := params[key]; ok {
			return fmt.Sprint(value)
		}
		return match // unknown placeholders pass through untouched
	})
}
