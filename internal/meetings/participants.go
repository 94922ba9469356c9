package meetings

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Participant is one entry of a Read.ai participant list, which arrives either
// as a bare string or as an object.
type Participant struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (p *Participant) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		// A bare string is only an email when it looks like one.
		if strings.Contains(s, "@") {
			p.Email = s
		} else {
			p.Name = s
		}
		return nil
	}

	var obj struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(obj.Name)
	p.Email = strings.TrimSpace(obj.Email)
	return nil
}

// DisplayName is what channels and the meetings table show for p.
func (p Participant) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Email != "":
		return p.Email
	default:
		return "Unknown"
	}
}

// ParseParticipants decodes a participants value. Entries that cannot be
// decoded are dropped; a non-array value yields nil.
func ParseParticipants(raw json.RawMessage) []Participant {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	out := make([]Participant, 0, len(items))
	for _, item := range items {
		var p Participant
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// EncodeNames stores participants as a JSON array of display names.
func EncodeNames(ps []Participant) string {
	if len(ps) == 0 {
		return ""
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.DisplayName()
	}
	b, _ := json.Marshal(names)
	return string(b)
}
