package nft

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaCache compiles collection schemas lazily and keeps the compiled
// validator per collection id. Collections are immutable once registered, so
// no eviction or invalidation is needed.
type SchemaCache struct {
	mu        sync.Mutex
	validated map[string]*gojsonschema.Schema
}

// NewSchemaCache constructs an empty cache.
func NewSchemaCache() *SchemaCache {
	return &SchemaCache{validated: make(map[string]*gojsonschema.Schema)}
}

// Validate checks a token attribute document against the collection schema,
// compiling and caching the validator on first use.
func (c *SchemaCache) Validate(collectionID string, schema, document json.RawMessage) error {
	c.mu.Lock()
	compiled, ok := c.validated[collectionID]
	if !ok {
		var err error
		compiled, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		c.validated[collectionID] = compiled
	}
	c.mu.Unlock()

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAttributesSchemaMismatch, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrAttributesSchemaMismatch, firstValidationError(result))
	}
	return nil
}

func firstValidationError(result *gojsonschema.Result) string {
	for _, desc := range result.Errors() {
		return desc.String()
	}
	return "unknown validation failure"
}

// CheckSchema verifies that the document is itself a syntactically valid
// JSON schema, used at collection registration time.
func CheckSchema(schema json.RawMessage) error {
	if len(schema) == 0 {
		return ErrInvalidSchema
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return nil
}

// jsonEqual reports deep equality of two JSON documents irrespective of key
// order and whitespace.
func jsonEqual(a, b json.RawMessage) bool {
	var left, right interface{}
	if err := json.Unmarshal(a, &left); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &right); err != nil {
		return false
	}
	return reflect.DeepEqual(left, right)
}
