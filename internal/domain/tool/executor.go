package tool

import (
	"encoding/json"
	"fmt"

	"github.com/Lay3rLabs/wavs-hats/internal/infra/llm"
)

// ArgumentError reports tool-call arguments that are malformed JSON or
// missing required fields.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s arguments: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ExecutionError reports a tool that was invoked with valid arguments but
// failed to produce a result.
type ExecutionError struct {
	Tool   string
	Reason string
}

func (e *ExecutionError) Error() string { return e.Reason }

// ExecuteToolCall resolves one model-issued tool call locally and returns
// a textual result. A name that is not in the catalog is not an error: the
// result text reports the unknown tool so the conversation can continue.
func ExecuteToolCall(call llm.ToolCall) (string, error) {
	switch call.Function.Name {
	case CalculatorName:
		return executeCalculator(call.Function.Arguments)
	default:
		return fmt.Sprintf("Unknown tool: %s", call.Function.Name), nil
	}
}

type calculatorArgs struct {
	Operation *string  `json:"operation"`
	A         *float64 `json:"a"`
	B         *float64 `json:"b"`
}

func executeCalculator(arguments string) (string, error) {
	var args calculatorArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", &ArgumentError{Tool: CalculatorName, Err: err}
	}
	if args.Operation == nil {
		return "", &ArgumentError{Tool: CalculatorName, Err: fmt.Errorf("missing operation")}
	}
	if args.A == nil {
		return "", &ArgumentError{Tool: CalculatorName, Err: fmt.Errorf("missing parameter a")}
	}
	if args.B == nil {
		return "", &ArgumentError{Tool: CalculatorName, Err: fmt.Errorf("missing parameter b")}
	}

	a, b := *args.A, *args.B
	var result float64
	switch *args.Operation {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return "", &ExecutionError{Tool: CalculatorName, Reason: "Division by zero"}
		}
		result = a / b
	default:
		return "", &ExecutionError{
			Tool:   CalculatorName,
			Reason: fmt.Sprintf("Unsupported operation: %s", *args.Operation),
		}
	}

	return fmt.Sprintf("The result of %v %s %v is %v", a, *args.Operation, b, result), nil
}
