// Package schema validates materialized documents against the structural
// contract of a collaborative object type.
//
// Schemas are JSON Schema (draft 2020-12) documents. They are authored as
// JSONC and stored with every object as plain JSON.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/jsonc"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/runoshun/git-cob/internal/domain"
)

//go:embed issue.jsonc
var issueSource []byte

// resourceURL names the schema inside its compiler. Every schema is
// compiled on its own, so the name never clashes.
const resourceURL = "schema.json"

var printer = message.NewPrinter(language.English)

// IssueJSON returns the bundled issue schema as compact JSON.
func IssueJSON() []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, jsonc.ToJSON(issueSource)); err != nil {
		// Should never happen with embedded schema
		panic(fmt.Sprintf("invalid embedded issue schema: %v", err))
	}
	return buf.Bytes()
}

// Schema is a compiled schema.
type Schema struct {
	compiled *jsonschema.Schema
	source   []byte
}

// Compile parses a JSON or JSONC schema.
func Compile(src []byte) (*Schema, error) {
	stripped := jsonc.ToJSON(src)

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(stripped))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	if err := c.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: compiled, source: stripped}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src []byte) *Schema {
	s, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return s
}

// Source returns the schema as JSON.
func (s *Schema) Source() []byte {
	return s.source
}

// ViolationError reports the first place a document departs from its
// schema.
type ViolationError struct {
	Path   string
	Reason string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", domain.ErrSchemaViolation, e.Path, e.Reason)
}

// Is reports whether target is domain.ErrSchemaViolation.
func (e *ViolationError) Is(target error) bool {
	return target == domain.ErrSchemaViolation
}

func violation(path, format string, args ...any) error {
	return &ViolationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a materialized document: a tree of map[string]any,
// []any, string, bool, int64 and nil.
func (s *Schema) Validate(doc any) error {
	doc = normalize(doc)
	err := s.compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return violation("$", "%v", err)
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return violation(instancePath(doc, ve.InstanceLocation), "%s", ve.ErrorKind.LocalizedString(printer))
}

// normalize converts integers to json.Number, the number type the
// validator decodes schemas into.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	case int64:
		return json.Number(strconv.FormatInt(val, 10))
	default:
		return v
	}
}

// instancePath renders a JSON pointer as $.key[index] against doc.
func instancePath(doc any, tokens []string) string {
	var b strings.Builder
	b.WriteString("$")
	cur := doc
	for _, tok := range tokens {
		switch val := cur.(type) {
		case []any:
			b.WriteString("[" + tok + "]")
			if i, err := strconv.Atoi(tok); err == nil && i >= 0 && i < len(val) {
				cur = val[i]
			} else {
				cur = nil
			}
		case map[string]any:
			b.WriteString("." + tok)
			cur = val[tok]
		default:
			b.WriteString("." + tok)
			cur = nil
		}
	}
	return b.String()
}
