package action

// Template expands into the actions stored under TemplateName in an external
// template store. Expansion happens at run time in the runner, never at
// construction or deserialization; Parameters are substituted into the
// template's records during expansion.
type Template struct {
	ActionName   string
	TemplateName string
	Parameters   map[string]any
}

var _ Composite = (*Template)(nil)

// NewTemplate creates a template action.
func NewTemplate(name, templateName string, parameters map[string]any) *Template {
	return &Template{
		ActionName:   coerceName(name, TypeTemplate),
		TemplateName: templateName,
		Parameters:   parameters,
	}
}

func (a *Template) Type() string { return TypeTemplate }
func (a *Template) Name() string { return coerceName(a.ActionName, TypeTemplate) }

func (a *Template) isComposite() {}

func (a *Template) Validate() error {
	if a.TemplateName == "" {
		return newValidationError(a.Name(), "template_name", "must not be empty")
	}
	return nil
}

func (a *Template) ToRecord() Record {
	rec := Record{
		"type":          TypeTemplate,
		"name":          a.Name(),
		"template_name": a.TemplateName,
	}
	if len(a.Parameters) > 0 {
		rec["parameters"] = a.Parameters
	}
	return rec
}

// NestedActions is empty: the template body lives in the store and is only
// known at expansion time.
func (a *Template) NestedActions() []Action { return nil }

func templateFromRecord(rec Record) (Action, error) {
	return NewTemplate(rec.String("name"), rec.String("template_name"), rec.Map("parameters")), nil
}
