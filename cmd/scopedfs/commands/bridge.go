package commands

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/scopedfs/scopedfs/pkg/bridge"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Inspect the provider bridge protocol",
}

var bridgeSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of every bridge operation",
	Long: `Print a JSON document describing each bridge operation with the JSON
schemas of its request and response payloads. Provider host implementations
can validate their wire format against it.`,
	RunE: runBridgeSchema,
}

func init() {
	bridgeCmd.AddCommand(bridgeSchemaCmd)
}

type opSchemaDoc struct {
	Op       string             `json:"op"`
	Request  *jsonschema.Schema `json:"request"`
	Response *jsonschema.Schema `json:"response"`
}

func runBridgeSchema(cmd *cobra.Command, args []string) error {
	reflector := &jsonschema.Reflector{DoNotReference: true}

	docs := make([]opSchemaDoc, 0, len(bridge.Operations()))
	for _, op := range bridge.Operations() {
		docs = append(docs, opSchemaDoc{
			Op:       string(op.Op),
			Request:  reflector.Reflect(op.Request),
			Response: reflector.Reflect(op.Response),
		})
	}

	out, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling schemas: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
