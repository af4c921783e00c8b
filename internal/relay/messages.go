package relay

import "encoding/json"

// controlMessage is the sum type over the control-channel JSON shapes
// exchanged between relay, runner, and viewers: {session, resize, exit,
// compression, ready}. Unknown types are ignored rather than rejected.
type controlMessage struct {
	Type        string `json:"type"`
	ID          string `json:"id,omitempty"`
	Compression string `json:"compression,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Cols        int    `json:"cols,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	Code        int    `json:"code,omitempty"`
}

func sessionFrame(id, compression string) []byte {
	b, _ := json.Marshal(controlMessage{Type: "session", ID: id, Compression: compression})
	return b
}

func compressionFrame(mode string) []byte {
	b, _ := json.Marshal(controlMessage{Type: "compression", Mode: mode})
	return b
}

func readyFrame() []byte {
	b, _ := json.Marshal(controlMessage{Type: "ready"})
	return b
}

// parseControlMessage best-effort parses raw as a controlMessage. A
// malformed payload yields an empty Type and is treated as unrecognized
// by callers; it is still forwarded unchanged to viewers.
func parseControlMessage(raw []byte) controlMessage {
	var msg controlMessage
	json.Unmarshal(raw, &msg) // malformed JSON: msg stays zero-valued, ignored
	return msg
}
