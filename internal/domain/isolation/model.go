package isolation

import (
	"bytes"
	"encoding/json"
	"time"
)

// Method is an isolation technique
type Method string

const (
	MethodNetwork   Method = "network"
	MethodSystem    Method = "system"
	MethodProcess   Method = "process"
	MethodUser      Method = "user"
	MethodIoTDevice Method = "iot_device"
)

// ExecutionOrder is the fixed order in which strategy methods are applied
var ExecutionOrder = []Method{MethodNetwork, MethodSystem, MethodProcess, MethodUser, MethodIoTDevice}

// IsValid checks if the method is known
func (m Method) IsValid() bool {
	for _, known := range ExecutionOrder {
		if m == known {
			return true
		}
	}
	return false
}

// Strategy maps isolation methods to their targets
type Strategy map[Method][]string

// Methods returns the methods present in the strategy in execution order
func (s Strategy) Methods() []Method {
	var out []Method
	for _, m := range ExecutionOrder {
		if _, ok := s[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Empty reports whether no isolation applies
func (s Strategy) Empty() bool {
	return len(s) == 0
}

// MarshalJSON renders the strategy as an object keyed in execution order
func (s Strategy) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range s.Methods() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(string(m))
		val, err := json.Marshal(s[m])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Status is the outcome of executing a strategy
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ActionRecord logs one method's execution
type ActionRecord struct {
	Method    Method    `json:"method"`
	Targets   []string  `json:"targets"`
	Result    string    `json:"result"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the log of an executed strategy
type Result struct {
	Status    Status         `json:"status"`
	Strategy  Strategy       `json:"strategy"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Actions   []ActionRecord `json:"actions"`
}
