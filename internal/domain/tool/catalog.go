// Package tool holds the static tool catalog advertised to the model and
// the local executor that resolves tool calls.
package tool

import "github.com/Lay3rLabs/wavs-hats/internal/infra/llm"

// CalculatorName is the name the calculator tool is advertised under.
const CalculatorName = "calculator"

// catalog maps tool name to its declarative definition. Definitions carry
// no executable code; execution lives in executor.go.
var catalog = map[string]llm.Tool{
	CalculatorName: calculatorTool(),
}

// Definitions returns every catalog tool, for attaching to a completion
// request.
func Definitions() []llm.Tool {
	out := make([]llm.Tool, 0, len(catalog))
	for _, name := range catalogNames() {
		out = append(out, catalog[name])
	}
	return out
}

// Lookup returns the definition for name, and whether it exists.
func Lookup(name string) (llm.Tool, bool) {
	t, ok := catalog[name]
	return t, ok
}

// catalogNames returns the tool names in a stable order so the advertised
// tool list is identical across runs.
func catalogNames() []string {
	return []string{CalculatorName}
}

func calculatorTool() llm.Tool {
	return llm.NewFunctionTool(
		CalculatorName,
		"A simple calculator function for arithmetic operations",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type": "string",
					"enum": []string{"add", "subtract", "multiply", "divide"},
				},
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"operation", "a", "b"},
		},
	)
}
