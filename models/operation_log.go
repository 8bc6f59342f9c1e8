package models

// Operation names recorded in request_logs.
const (
	OperationPow       = "pow"
	OperationFibonacci = "fibonacci"
	OperationFactorial = "factorial"
)

// OperationLog represents one computed request (request_logs table)
type OperationLog struct {
	ID        int64  `json:"id"`
	Operation string `json:"operation"`
	InputData string `json:"input_data"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// StreamEvent is the projection of an OperationLog published to the stream.
// It carries no id and no timestamp.
type StreamEvent struct {
	Operation string `json:"operation"`
	Input     string `json:"input"`
	Result    string `json:"result"`
}

// Values returns the field map passed to XADD.
func (e StreamEvent) Values() map[string]interface{} {
	return map[string]interface{}{
		"operation": e.Operation,
		"input":     e.Input,
		"result":    e.Result,
	}
}
