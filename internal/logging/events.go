package logging

import (
	"encoding/json"
	"time"
)

// Event types, one per pipeline stage.
const (
	EventRead      = "read"
	EventNormalize = "normalize"
	EventValidate  = "validate"
	EventWrite     = "write"
	EventError     = "error"
)

// Event is one line of a run log.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Input and Output are the file paths of the run.
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`

	// Format is the detected or forced input format.
	Format string `json:"format,omitempty"`

	// Tasks is the number of tasks read or exported at this stage.
	Tasks int `json:"tasks,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`

	// ElapsedMS is the stage duration in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms,omitempty"`
}

// Log appends an event to the run log. A nil logger discards it.
func (r *RunLogger) Log(event Event) error {
	if r == nil || r.file == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = r.file.Write(data)
	return err
}
