package schemas

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed transaction-schema.json
var schemaBytes []byte

var schemaValidator *gojsonschema.Schema

func init() {
	loader := gojsonschema.NewBytesLoader(schemaBytes)
	var err error
	schemaValidator, err = gojsonschema.NewSchema(loader)
	if err != nil {
		panic(fmt.Sprintf("failed to load schema: %v", err))
	}
}

// ValidateTransaction validates JSON transaction data against the schema
func ValidateTransaction(data []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := schemaValidator.Validate(documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// ValidateTransactionStruct validates a Transaction struct against the schema
func ValidateTransactionStruct(tx *Transaction) error {
	data, err := tx.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize transaction: %w", err)
	}

	return ValidateTransaction(data)
}
