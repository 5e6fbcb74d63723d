package bus

// Source identifies which input surface produced a request.
type Source string

const (
	SourceStream   Source = "stream"
	SourceTelegram Source = "telegram"
	SourceMailbox  Source = "mailbox"
	SourceSchedule Source = "schedule"
)

// Target names the fixed-shape handlers a request can be routed to.
type Target string

const (
	TargetAgent         Target = "agent"
	TargetHaiku         Target = "haiku"
	TargetStatusSummary Target = "status"
	TargetMediaAnalysis Target = "media"
	TargetAmbition      Target = "ambition"
)

// DispatchRequest is the normalized unit of work funneled through the single
// dispatch queue. Attachments are raw bytes so pollers never hand file
// lifetimes across goroutines.
type DispatchRequest struct {
	Source     Source `json:"source"`
	Target     Target `json:"target"`
	Content    string `json:"content"`
	Attachment []byte `json:"-"`
	MediaType  string `json:"media_type,omitempty"`
	MediaPath  string `json:"media_path,omitempty"`
	MailboxID  string `json:"mailbox_id,omitempty"`
	SenderID   string `json:"sender_id,omitempty"`
}
