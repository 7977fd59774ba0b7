package keruyun

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// queryListSchema 描述 code=0 时 queryList 响应信封的最小结构。
const queryListSchema = `{
  "type": "object",
  "required": ["code", "result"],
  "properties": {
    "code": {"type": ["integer", "string"]},
    "message": {"type": ["string", "null"]},
    "result": {
      "type": "object",
      "required": ["data"],
      "properties": {
        "data": {
          "type": "object",
          "required": ["list", "totalCount"],
          "properties": {
            "list": {
              "type": "array",
              "items": {
                "type": "object",
                "properties": {
                  "orderType": {"type": ["string", "null"]},
                  "orderStatus": {"type": ["string", "null"]}
                }
              }
            },
            "totalCount": {"type": ["integer", "string"]}
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func responseSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("queryList.json", strings.NewReader(queryListSchema)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("queryList.json")
	})
	return schemaCompiled, schemaErr
}

func validateResponse(raw []byte) error {
	schema, err := responseSchema()
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}
