package ir

// Role names one of the separate identity sets of the role registry.
// Membership is tracked per role, so one identity may hold several roles.
type Role string

const (
	RoleCustodian Role = "custodian"
	RoleLocker    Role = "locker"
	RoleValidator Role = "validator"
)

// ValidRoles defines the allowed roles.
var ValidRoles = map[Role]bool{
	RoleCustodian: true,
	RoleLocker:    true,
	RoleValidator: true,
}

// DefaultQoS is stamped on every outbound message.
var DefaultQoS = QoS{Reveal: 1}

// Message is a cross-chain message. Immutable once built.
type Message struct {
	FromChain string  `json:"from_chain"`
	ToChain   string  `json:"to_chain"`
	Sender    string  `json:"sender"`
	Signer    string  `json:"signer"`
	QoS       QoS     `json:"qos"`
	Content   Content `json:"content"`
	Session   Session `json:"session"`
}

// QoS carries the quality-of-service flag.
type QoS struct {
	Reveal uint8 `json:"reveal"`
}

// Content addresses the target of a message.
// Data is opaque to the bridge; at dispatch it is read as a JSON array of
// call arguments.
type Content struct {
	Contract string `json:"contract"`
	Action   string `json:"action"`
	Data     string `json:"data"`
}

// Session correlates a message with a response.
type Session struct {
	ResType uint8  `json:"res_type"`
	ID      uint64 `json:"id"`
}

// ToValue converts the message to its canonical value form.
func (m Message) ToValue() Object {
	return Object{
		"from_chain": String(m.FromChain),
		"to_chain":   String(m.ToChain),
		"sender":     String(m.Sender),
		"signer":     String(m.Signer),
		"qos":        Object{"reveal": Int(m.QoS.Reveal)},
		"content": Object{
			"contract": String(m.Content.Contract),
			"action":   String(m.Content.Action),
			"data":     String(m.Content.Data),
		},
		"session": m.Session.toValue(),
	}
}

func (s Session) toValue() Object {
	return Object{
		"res_type": Int(s.ResType),
		"id":       Int(int64(s.ID)),
	}
}

// SlotKey addresses one message slot: (chain, sequence id).
// Used for inbound slots keyed by source chain and outbound entries keyed by
// destination chain.
type SlotKey struct {
	Chain string `json:"chain_name"`
	ID    uint64 `json:"id"`
}

// WatermarkKey addresses a per-validator catch-up pointer.
type WatermarkKey struct {
	Chain     string `json:"chain_name"`
	Validator string `json:"validator"`
}

// PendingGroup is one content hash competing inside a slot, with the ordered
// distinct list of validators that attested it.
type PendingGroup struct {
	Hash       string   `json:"hash"`
	Message    Message  `json:"message"`
	Validators []string `json:"validators"`
}

// PendingSlot lists every competing group of one slot, ordered by hash.
type PendingSlot struct {
	Key    SlotKey        `json:"key"`
	Groups []PendingGroup `json:"groups"`
}

// ExecutableEntry is a quorum-approved message awaiting dispatch.
// ClaimedBy is the dispatch token once a dispatcher has claimed it.
type ExecutableEntry struct {
	Key       SlotKey `json:"key"`
	Message   Message `json:"message"`
	ClaimedBy string  `json:"claimed_by,omitempty"`
}

// SentEntry is an outbound message at (destination chain, outbound id).
type SentEntry struct {
	Key     SlotKey `json:"key"`
	Message Message `json:"message"`
}

// ExecutionContext is appended as the trailing call argument at dispatch.
type ExecutionContext struct {
	ID        uint64  `json:"id"`
	FromChain string  `json:"from_chain"`
	Sender    string  `json:"sender"`
	Signer    string  `json:"signer"`
	Contract  string  `json:"contract_id"`
	Action    string  `json:"action"`
	Session   Session `json:"session"`
}

// NewExecutionContext builds the context for dispatching msg at sequence id.
func NewExecutionContext(id uint64, msg Message) ExecutionContext {
	return ExecutionContext{
		ID:        id,
		FromChain: msg.FromChain,
		Sender:    msg.Sender,
		Signer:    msg.Signer,
		Contract:  msg.Content.Contract,
		Action:    msg.Content.Action,
		Session:   msg.Session,
	}
}

// ToValue converts the context to its value form.
func (c ExecutionContext) ToValue() Object {
	return Object{
		"id":          Int(int64(c.ID)),
		"from_chain":  String(c.FromChain),
		"sender":      String(c.Sender),
		"signer":      String(c.Signer),
		"contract_id": String(c.Contract),
		"action":      String(c.Action),
		"session":     c.Session.toValue(),
	}
}

// DispatchOutcome records how a dispatch attempt ended.
type DispatchOutcome string

const (
	OutcomeClaimed  DispatchOutcome = "claimed"
	OutcomeExecuted DispatchOutcome = "executed"
	OutcomeFailed   DispatchOutcome = "failed"
)

// DispatchRecord is one row of the dispatch audit log.
type DispatchRecord struct {
	Token   string          `json:"token"`
	Chain   string          `json:"chain_name"`
	ID      uint64          `json:"id"`
	Outcome DispatchOutcome `json:"outcome"`
	Error   string          `json:"error,omitempty"`
}
