package models

// ParseOutcome is the result of running free-form text through the
// recipient pipeline. Valid holds deduplicated, structurally sound
// addresses in order of first appearance; Invalid holds addresses that
// survived extraction and dedup but failed validation.
type ParseOutcome struct {
	Valid             []string `json:"valid"`
	Invalid           []string `json:"invalid"`
	DuplicatesRemoved int      `json:"duplicatesRemoved"`
}
