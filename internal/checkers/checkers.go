// Package checkers provides quicktest checkers shared by the test suites.
package checkers

import (
	"encoding/json"
	"fmt"
	"reflect"

	qt "github.com/frankban/quicktest"
	"github.com/yalp/jsonpath"
)

// JSONPathEquals returns a checker asserting that the value at path inside a
// JSON document equals the wanted value. The document may be a string or
// []byte. Numbers decode as float64.
//
//	c.Assert(text, checkers.JSONPathEquals("$.summary.units"), float64(3))
func JSONPathEquals(path string) qt.Checker {
	return &jsonPathChecker{path: path}
}

type jsonPathChecker struct {
	path string
}

func (*jsonPathChecker) ArgNames() []string {
	return []string{"got", "want"}
}

func (j *jsonPathChecker) Check(got any, args []any, note func(key string, value any)) error {
	var data []byte
	switch v := got.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return qt.BadCheckf("first argument is not a JSON string or []byte (got %T)", got)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("cannot decode JSON: %w", err)
	}

	val, err := jsonpath.Read(doc, j.path)
	if err != nil {
		note("path", j.path)
		return fmt.Errorf("cannot read path: %w", err)
	}

	if !reflect.DeepEqual(val, args[0]) {
		note("path", j.path)
		note("value at path", val)
		return fmt.Errorf("value at path does not match")
	}
	return nil
}
