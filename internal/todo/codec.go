package todo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed tasks.schema.json
var schemaSource []byte

const schemaURL = "tasks.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // dotted path to the offending value, e.g. "[2].completed"
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Encode serializes the list in its stored form.
func Encode(l List) (string, error) {
	if l == nil {
		l = List{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("marshal task list: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored value. The value must be a JSON array of tasks
// matching the embedded schema.
func Decode(value string) (List, error) {
	raw := []byte(strings.TrimSpace(value))
	if len(raw) == 0 {
		return nil, fmt.Errorf("parse task list: empty value")
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse task list: trailing data after array")
	}

	if errs := Validate(doc); len(errs) > 0 {
		return nil, fmt.Errorf("validate task list: %w", errors.Join(errs...))
	}

	var l List
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	if errs := duplicateIDs(l); len(errs) > 0 {
		return nil, fmt.Errorf("validate task list: %w", errors.Join(errs...))
	}
	if l == nil {
		l = List{}
	}
	return l, nil
}

// duplicateIDs reports every task whose id was already used earlier in l.
func duplicateIDs(l List) []error {
	first := make(map[string]int, len(l))
	var errs []error
	for i, task := range l {
		if j, seen := first[task.ID]; seen {
			errs = append(errs, &ValidationError{
				Path: "[" + strconv.Itoa(i) + "].id",
				Err:  fmt.Errorf("duplicate id %q, first used at [%d]", task.ID, j),
			})
			continue
		}
		first[task.ID] = i
	}
	return errs
}

// Validate checks a decoded JSON document against the task list schema.
// It returns one error per failing leaf location.
func Validate(doc interface{}) []error {
	schema, err := loadSchema()
	if err != nil {
		return []error{err}
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return []error{err}
		}
		var errs []error
		collectSchemaErrors(&errs, ve)
		return errs
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("load task list schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile task list schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

func collectSchemaErrors(errs *[]error, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Path: pointerToPath(ve.InstanceLocation),
			Err:  errors.New(ve.Message),
		})
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(errs, cause)
	}
}

// pointerToPath turns a JSON pointer such as "/2/completed" into "[2].completed".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
