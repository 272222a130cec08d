package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"rowgraph/column"
)

// datasetSchema validates the CLI's JSON dataset-descriptor format
// before it's handed to column.MemSource — grounded on the teacher's
// collection.go, which validated documents against a caller-supplied
// JSON schema the same way (gojsonschema.Validate) before accepting
// them.
const datasetSchema = `{
  "type": "object",
  "required": ["columns"],
  "properties": {
    "columns": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "kind", "values"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "kind": {"type": "string", "enum": ["int64", "float64", "string", "bool"]},
          "values": {"type": "array"}
        }
      }
    }
  }
}`

type datasetColumn struct {
	Name   string        `json:"name"`
	Kind   string        `json:"kind"`
	Values []interface{} `json:"values"`
}

type dataset struct {
	Columns []datasetColumn `json:"columns"`
}

func loadDataset(path string) (*column.MemSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	schemaLoader := gojsonschema.NewStringLoader(datasetSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("validating %q: %w", path, err)
	}
	if !result.Valid() {
		msg := "dataset descriptor failed schema validation:"
		for _, e := range result.Errors() {
			msg += "\n  - " + e.String()
		}
		return nil, fmt.Errorf(msg)
	}

	var ds dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}

	n := 0
	if len(ds.Columns) > 0 {
		n = len(ds.Columns[0].Values)
	}
	src := column.NewMemSource(n)
	for _, c := range ds.Columns {
		if len(c.Values) != n {
			return nil, fmt.Errorf("column %q has %d values, want %d", c.Name, len(c.Values), n)
		}
		switch c.Kind {
		case "int64":
			vals := make([]int64, n)
			for i, v := range c.Values {
				f, ok := v.(float64)
				if !ok {
					return nil, fmt.Errorf("column %q: value %v is not numeric", c.Name, v)
				}
				vals[i] = int64(f)
			}
			src.AddInt64Column(c.Name, vals)
		case "float64":
			vals := make([]float64, n)
			for i, v := range c.Values {
				f, ok := v.(float64)
				if !ok {
					return nil, fmt.Errorf("column %q: value %v is not numeric", c.Name, v)
				}
				vals[i] = f
			}
			src.AddFloat64Column(c.Name, vals)
		case "string":
			vals := make([]string, n)
			for i, v := range c.Values {
				s, ok := v.(string)
				if !ok {
					return nil, fmt.Errorf("column %q: value %v is not a string", c.Name, v)
				}
				vals[i] = s
			}
			src.AddStringColumn(c.Name, vals)
		case "bool":
			vals := make([]bool, n)
			for i, v := range c.Values {
				b, ok := v.(bool)
				if !ok {
					return nil, fmt.Errorf("column %q: value %v is not a bool", c.Name, v)
				}
				vals[i] = b
			}
			src.AddBoolColumn(c.Name, vals)
		}
	}
	return src, nil
}
