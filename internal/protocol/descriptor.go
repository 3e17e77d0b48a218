package protocol

// WellKnownPath is where every workflow service publishes its capability
// descriptor. Clients fetch it once per destination and memoise the result.
const WellKnownPath = "/.well-known/capability.json"

// MessagePath is the message endpoint advertised by descriptors built here.
const MessagePath = "/messages"

// Descriptor is the published capability card of one workflow service.
type Descriptor struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Endpoint    string   `json:"endpoint"`
	Intents     []Intent `json:"intents"`
}
