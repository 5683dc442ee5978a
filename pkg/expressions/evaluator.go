// Package expressions evaluates JMESPath queries over API responses.
package expressions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/jmespath/go-jmespath"
)

// Evaluator compiles JMESPath expressions once and reuses them.
type Evaluator struct {
	cache map[string]*jmespath.JMESPath
	mu    sync.RWMutex
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*jmespath.JMESPath),
	}
}

// Evaluate runs expression against data, which must already be in generic JSON form.
func (e *Evaluator) Evaluate(expression string, data any) (any, error) {
	compiled, err := e.getOrCompile(expression)
	if err != nil {
		return nil, invalid(expression, err)
	}

	result, err := compiled.Search(data)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "failed to evaluate filter %q: %s", expression, err.Error())
	}
	return result, nil
}

// Query converts value to its JSON form and runs expression against it, so field names in
// expressions are the JSON names the API returns.
func (e *Evaluator) Query(expression string, value any) (any, error) {
	data, err := toJSON(value)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(expression, data)
}

// EvaluateBool evaluates expression with JMESPath truthiness.
func (e *Evaluator) EvaluateBool(expression string, data any) (bool, error) {
	result, err := e.Evaluate(expression, data)
	if err != nil {
		return false, err
	}

	switch v := result.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case []any:
		return len(v) > 0, nil
	case map[string]any:
		return len(v) > 0, nil
	default:
		return true, nil
	}
}

// Validate checks if an expression is valid
func (e *Evaluator) Validate(expression string) error {
	if _, err := e.getOrCompile(expression); err != nil {
		return invalid(expression, err)
	}
	return nil
}

func (e *Evaluator) getOrCompile(expression string) (*jmespath.JMESPath, error) {
	e.mu.RLock()
	compiled, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = compiled
	e.mu.Unlock()
	return compiled, nil
}

func invalid(expression string, err error) error {
	return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid filter %q", expression).
		AddMetaValue("reason", err.Error())
}

func toJSON(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for filtering: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode value for filtering: %w", err)
	}
	return data, nil
}
