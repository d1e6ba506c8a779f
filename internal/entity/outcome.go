package entity

import "github.com/joseph-ayodele/cv-intake/constants"

// BatchOutcome is the verdict for one input document.
type BatchOutcome struct {
	Index     int                     `json:"index"`
	Filename  string                  `json:"file"`
	Status    constants.OutcomeStatus `json:"status"`
	Record    *ExtractedRecord        `json:"data,omitempty"`
	Error     string                  `json:"error,omitempty"`
	ErrorCode string                  `json:"code,omitempty"`
	Details   []string                `json:"details,omitempty"`
}

// Succeeded reports whether the document made it into the ledger.
func (o BatchOutcome) Succeeded() bool {
	return o.Status == constants.OutcomeSucceeded
}
