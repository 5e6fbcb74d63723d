// Package serial implements the line-oriented tagged protocol spoken over the
// guest process's serial console: tokenizing its output stream into lines and
// writing tagged lines back to its input stream.
package serial

// Tags understood on guest output.
const (
	TagMemoryPersist = "[MEMORY_PERSIST]"
	TagMemoryDone    = "[MEMORY_DONE]"
	TagMemoryRequest = "[MEMORY_REQUEST]"
	TagJournal       = "[JOURNAL]"
	TagJournalDone   = "[JOURNAL_DONE]"
	TagAmbitionSet   = "[AMBITION_SET]"
	TagAmbitionReq   = "[AMBITION_REQUEST]"
	TagNotify        = "[NOTIFY]"
	TagTelegramReply = "[TELEGRAM_REPLY]"
)

// Tags written to guest input.
const (
	TagLLMResponse    = "[LLM_RESPONSE]"
	TagMemoryLoad     = "[MEMORY_LOAD]"
	TagMemoryLoadDone = "[MEMORY_LOAD_DONE]"
	TagAmbitionLoad   = "[AMBITION_LOAD]"
	TagAmbitionHist   = "[AMBITION_HISTORY]"
	TagTelegram       = "[TELEGRAM]"
	TagInbox          = "[INBOX]"
	TagError          = "[ERROR]"
)
