package pipeline

// Defaults for statement ingestion.
const (
	// DefaultModelName is the Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultDocumentType tags archived uploads in the documents table.
	DefaultDocumentType = "CARD_STATEMENT"

	// StatementPrefix is the object prefix for archived statements.
	StatementPrefix = "statements"
)

// Card created when a statement carries no card information and the user
// has no card to attach it to.
const (
	ImportedCardName   = "Imported Card"
	ImportedCardIssuer = "Unknown"
)

// Parsing statuses recorded with each document.
const (
	StatusParsed   = "PARSED"
	StatusFallback = "FALLBACK"
)
