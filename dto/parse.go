package dto

type ParseRecipientsRequest struct {
	Text string `json:"text"`
}

type ParseRecipientsResponse struct {
	Valid             []string `json:"valid"`
	Invalid           []string `json:"invalid"`
	DuplicatesRemoved int      `json:"duplicatesRemoved"`
	Count             int      `json:"count"`
}
