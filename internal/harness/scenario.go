package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is an end-to-end bridge scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Chain is the bridge's own chain name. Defaults to "xbridge".
	Chain string `yaml:"chain,omitempty"`

	// Validators are registered before the first step.
	Validators []string `yaml:"validators,omitempty"`

	// Fail lists contract actions whose calls fail.
	Fail []Target `yaml:"fail,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Target names a contract action.
type Target struct {
	Contract string `yaml:"contract"`
	Action   string `yaml:"action"`
}

// Step is one bridge operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// As is the caller identity.
	As string `yaml:"as,omitempty"`

	// ID is the sequence id of receive and execute.
	ID uint64 `yaml:"id,omitempty"`

	// Chain is the slot chain of execute or the destination of send.
	Chain string `yaml:"chain,omitempty"`

	// Chains lists the chains of clear_received and clear_sent.
	Chains []string `yaml:"chains,omitempty"`

	// Role and Identity describe register and unregister.
	Role     string `yaml:"role,omitempty"`
	Identity string `yaml:"identity,omitempty"`

	// Message is the attested message of receive or the content of send.
	Message *MessageSpec `yaml:"message,omitempty"`

	// Expect checks the step's outcome. A step without expect must
	// succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// MessageSpec describes a message. Omitted fields take defaults: to the
// bridge's chain, sender and signer "alice", contract "greeting", action
// "greet", data "[]".
type MessageSpec struct {
	From      string `yaml:"from,omitempty"`
	To        string `yaml:"to,omitempty"`
	Sender    string `yaml:"sender,omitempty"`
	Signer    string `yaml:"signer,omitempty"`
	Contract  string `yaml:"contract,omitempty"`
	Action    string `yaml:"action,omitempty"`
	Data      string `yaml:"data,omitempty"`
	ResType   uint8  `yaml:"res_type,omitempty"`
	SessionID uint64 `yaml:"session_id,omitempty"`
}

// Expect is the expected outcome of a step. Unset fields are not checked.
type Expect struct {
	// Error is the expected bridge error code.
	Error string `yaml:"error,omitempty"`

	Promoted  *bool   `yaml:"promoted,omitempty"`
	Attesters *int    `yaml:"attesters,omitempty"`
	Quorum    *int    `yaml:"quorum,omitempty"`
	ID        *uint64 `yaml:"id,omitempty"`
	Outcome   string  `yaml:"outcome,omitempty"`
}

// Step operations.
const (
	OpRegister      = "register"
	OpUnregister    = "unregister"
	OpReceive       = "receive"
	OpSend          = "send"
	OpExecute       = "execute"
	OpClearReceived = "clear_received"
	OpClearSent     = "clear_sent"
)

// Assertion checks the ledger after the last step.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Chain     string `yaml:"chain,omitempty"`
	ID        uint64 `yaml:"id,omitempty"`
	Validator string `yaml:"validator,omitempty"`

	// Validators lists the attesters of each pending group, in any order
	// (pending).
	Validators [][]string `yaml:"validators,omitempty"`

	// Present is whether the slot is executable (executable).
	Present *bool `yaml:"present,omitempty"`

	// Count is the expected count (sent_count, invocations).
	Count *int `yaml:"count,omitempty"`

	// Contract and Action narrow invocations.
	Contract string `yaml:"contract,omitempty"`
	Action   string `yaml:"action,omitempty"`

	// Outcomes are the expected dispatch outcomes in order (dispatch_log).
	Outcomes []string `yaml:"outcomes,omitempty"`
}

// Assertion types.
const (
	AssertWatermark   = "watermark"
	AssertPending     = "pending"
	AssertExecutable  = "executable"
	AssertSentCount   = "sent_count"
	AssertInvocations = "invocations"
	AssertDispatchLog = "dispatch_log"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	switch s.Op {
	case OpRegister:
		if s.Role == "" || s.Identity == "" {
			return fmt.Errorf("steps[%d]: role and identity are required for register", index)
		}
	case OpUnregister:
		if s.Identity == "" {
			return fmt.Errorf("steps[%d]: identity is required for unregister", index)
		}
	case OpReceive:
		if s.As == "" || s.Message == nil {
			return fmt.Errorf("steps[%d]: as and message are required for receive", index)
		}
	case OpSend:
		if s.Chain == "" {
			return fmt.Errorf("steps[%d]: chain is required for send", index)
		}
	case OpExecute:
		if s.Chain == "" {
			return fmt.Errorf("steps[%d]: chain is required for execute", index)
		}
	case OpClearReceived, OpClearSent:
		if len(s.Chains) == 0 {
			return fmt.Errorf("steps[%d]: chains are required for %s", index, s.Op)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertWatermark:
		if a.Chain == "" {
			return fmt.Errorf("assertions[%d]: chain is required for watermark", index)
		}
	case AssertPending, AssertDispatchLog:
		if a.Chain == "" || a.ID == 0 {
			return fmt.Errorf("assertions[%d]: chain and id are required for %s", index, a.Type)
		}
	case AssertExecutable:
		if a.Chain == "" || a.ID == 0 || a.Present == nil {
			return fmt.Errorf("assertions[%d]: chain, id and present are required for executable", index)
		}
	case AssertSentCount:
		if a.Chain == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: chain and count are required for sent_count", index)
		}
	case AssertInvocations:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for invocations", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
