package constants

// NotAvailable is returned by the extraction model for fields it cannot recover.
const NotAvailable = "N/A"

// PageSeparator marks page boundaries in a consolidated document.
const PageSeparator = "\n\n---\n\n"

// Ledger column headers, in append order.
var LedgerHeaders = []string{"Name", "Email", "Phone", "Companies"}

// CompaniesSeparator joins the companies list into one ledger cell.
const CompaniesSeparator = ", "

// DefaultChunkSize bounds how many documents a batch processes at once.
const DefaultChunkSize = 10
