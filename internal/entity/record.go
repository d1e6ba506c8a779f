package entity

import (
	"strings"

	"github.com/joseph-ayodele/cv-intake/constants"
)

// ExtractedRecord is the structured result of the extraction model.
type ExtractedRecord struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Companies []string `json:"companies"`
}

// LedgerRow is an ExtractedRecord flattened for a table append.
type LedgerRow struct {
	Name      string
	Email     string
	Phone     string
	Companies string
}

// ToLedgerRow flattens a record; companies are joined with ", ".
func ToLedgerRow(r ExtractedRecord) LedgerRow {
	return LedgerRow{
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Companies: strings.Join(r.Companies, constants.CompaniesSeparator),
	}
}

// Values returns the cells in ledger column order.
func (r LedgerRow) Values() []any {
	return []any{r.Name, r.Email, r.Phone, r.Companies}
}
