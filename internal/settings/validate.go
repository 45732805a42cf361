package settings

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

var defaultValidator = newValidator()

// validator checks single configuration fields against #Settings.
// A cue.Context is not safe for concurrent use, so calls are serialized.
type validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

func newValidator() *validator {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		panic(fmt.Sprintf("settings schema: %v", err))
	}
	return &validator{ctx: ctx, schema: schema.LookupPath(cue.ParsePath("#Settings"))}
}

// check unifies raw with the schema for field and returns a readable reason
// when the value does not fit.
func (v *validator) check(field string, raw json.RawMessage) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	fieldSchema := v.schema.LookupPath(cue.ParsePath(field))
	if !fieldSchema.Exists() {
		return fmt.Errorf("unknown setting %q", field)
	}
	val := v.ctx.CompileBytes(raw)
	if err := val.Err(); err != nil {
		return fmt.Errorf("not a literal: %s", errors.Details(err, nil))
	}
	if err := fieldSchema.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", errors.Details(err, nil))
	}
	return nil
}

func (v *validator) apply(s *Settings, field string, raw json.RawMessage) error {
	if err := v.check(field, raw); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if err := json.Unmarshal(raw, s.fieldPtr(field)); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// Merge overlays data onto base one field at a time.
func (v *validator) Merge(base Settings, data []byte) (MergeResult, error) {
	res := MergeResult{Settings: base, Rejected: map[string]string{}}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return res, fmt.Errorf("settings: %w", err)
	}
	if obj == nil {
		return res, fmt.Errorf("settings: not a JSON object")
	}

	for _, field := range Fields() {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		next := res.Settings
		if err := v.apply(&next, field, raw); err != nil {
			res.Rejected[field] = err.Error()
			continue
		}
		res.Settings = next
	}
	for k := range obj {
		if res.Settings.fieldPtr(k) == nil {
			res.Unknown = append(res.Unknown, k)
		}
	}
	sort.Strings(res.Unknown)
	return res, nil
}
