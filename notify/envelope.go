package notify

import "salesai-streams/domain"

// Envelope is the normalized notification handed to the dispatcher, built
// once per (rule firing, recipient) and then discarded.
type Envelope struct {
	ID       string          `json:"id"`
	Types    []string        `json:"types"`
	IsStored bool            `json:"isStored"`
	Template string          `json:"template"`
	Metadata domain.Document `json:"metadata"`
	To       any             `json:"to"`
}
