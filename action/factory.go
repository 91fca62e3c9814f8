package action

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Constructor builds an action from a record whose nested-action fields have
// already been decoded by the factory.
type Constructor func(rec Record) (Action, error)

// nestedListFields names the record fields, per composite type tag, that hold
// nested action lists the factory must rebuild before invoking the
// constructor.
var nestedListFields = map[string][]string{
	TypeConditional:   {"true_actions", "false_actions"},
	TypeLoop:          {"loop_actions"},
	TypeErrorHandling: {"try_actions", "catch_actions"},
	TypeWhileLoop:     {"loop_actions"},
}

// nestedSingleFields names record fields holding exactly one nested action.
var nestedSingleFields = map[string]string{
	TypeWhileLoop: "condition_action",
}

// Factory is the registry mapping type tags to constructors. One factory is
// built at startup from the fixed list of variant constructors; Register
// allows replacing a constructor at run time to support hot-reloading of
// definitions.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	logger       *zap.Logger
}

// NewFactory creates a factory with all built-in variants registered.
func NewFactory(logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Factory{
		constructors: make(map[string]Constructor),
		logger:       logger.With(zap.String("component", "action_factory")),
	}
	f.registerBuiltins()
	return f
}

func (f *Factory) registerBuiltins() {
	builtins := map[string]Constructor{
		TypeNavigate:            navigateFromRecord,
		TypeClick:               clickFromRecord,
		TypeTypeText:            typeTextFromRecord,
		TypeWait:                waitFromRecord,
		TypeScreenshot:          screenshotFromRecord,
		TypeJavaScriptCondition: javaScriptConditionFromRecord,
		TypeConditional:         conditionalFromRecord,
		TypeLoop:                loopFromRecord,
		TypeErrorHandling:       errorHandlingFromRecord,
		TypeTemplate:            templateFromRecord,
		TypeWhileLoop:           whileLoopFromRecord,
	}
	for tag, c := range builtins {
		f.constructors[tag] = c
	}
}

// Register maps a type tag to a constructor. Re-registering an existing tag
// replaces the constructor and logs, it does not error.
func (f *Factory) Register(tag string, c Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.constructors[tag]; exists {
		f.logger.Info("replacing action constructor", zap.String("type", tag))
	}
	f.constructors[tag] = c
}

// Registered returns the sorted-insensitive list of known type tags.
func (f *Factory) Registered() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	tags := make([]string, 0, len(f.constructors))
	for tag := range f.constructors {
		tags = append(tags, tag)
	}
	return tags
}

// FromRecord rebuilds an action (and, recursively, its whole nested tree)
// from its serialized record. Template actions are not expanded here;
// expansion is a run-time concern of the runner.
func (f *Factory) FromRecord(rec Record) (Action, error) {
	tag := rec.String("type")
	if tag == "" {
		return nil, &SerializationError{Detail: "record has no type tag"}
	}

	f.mu.RLock()
	construct, ok := f.constructors[tag]
	f.mu.RUnlock()
	if !ok {
		return nil, &ActionError{Action: rec.String("name"), Type: tag, Msg: "no constructor registered", Cause: ErrUnknownType}
	}

	decoded := rec.Clone()
	for _, field := range nestedListFields[tag] {
		list, err := rec.recordList(field)
		if err != nil {
			return nil, &SerializationError{Detail: fmt.Sprintf("%s.%s", tag, field), Cause: err}
		}
		nested, err := f.FromRecordList(list)
		if err != nil {
			return nil, &SerializationError{Detail: fmt.Sprintf("%s.%s", tag, field), Cause: err}
		}
		decoded[field] = nested
	}
	if field, ok := nestedSingleFields[tag]; ok {
		sub, err := rec.record(field)
		if err != nil {
			return nil, &SerializationError{Detail: fmt.Sprintf("%s.%s", tag, field), Cause: err}
		}
		if sub != nil {
			nested, err := f.FromRecord(sub)
			if err != nil {
				return nil, &SerializationError{Detail: fmt.Sprintf("%s.%s", tag, field), Cause: err}
			}
			decoded[field] = nested
		}
	}

	if raw, present := rec["name"]; present {
		if s, _ := raw.(string); strings.TrimSpace(s) == "" {
			f.logger.Warn("coercing blank action name to type tag", zap.String("type", tag))
		}
	}

	a, err := construct(decoded)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FromRecordList rebuilds an ordered action list.
func (f *Factory) FromRecordList(records []Record) ([]Action, error) {
	actions := make([]Action, 0, len(records))
	for i, rec := range records {
		a, err := f.FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// decodedActions fetches a nested list the factory has already rebuilt.
func decodedActions(rec Record, key string) ([]Action, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]Action)
	if !ok {
		return nil, &SerializationError{Detail: fmt.Sprintf("field %q holds undecoded actions", key)}
	}
	return list, nil
}

// decodedAction fetches a single nested action the factory has rebuilt.
func decodedAction(rec Record, key string) (Action, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, nil
	}
	a, ok := v.(Action)
	if !ok {
		return nil, &SerializationError{Detail: fmt.Sprintf("field %q holds an undecoded action", key)}
	}
	return a, nil
}
