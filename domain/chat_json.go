package domain

import "encoding/json"

type chatJSON struct {
	ID           ChatID   `json:"id"`
	Name         string   `json:"name"`
	IsGroup      bool     `json:"is_group"`
	Participants []UserID `json:"participants"`
}

// MarshalJSON writes the member set as a sorted array.
func (c Chat) MarshalJSON() ([]byte, error) {
	participants := c.MemberList()
	if participants == nil {
		participants = []UserID{}
	}
	return json.Marshal(chatJSON{
		ID:           c.ID,
		Name:         c.Name,
		IsGroup:      c.IsGroup,
		Participants: participants,
	})
}

func (c *Chat) UnmarshalJSON(data []byte) error {
	var raw chatJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	members := make(Members, len(raw.Participants))
	for _, p := range raw.Participants {
		members[p] = struct{}{}
	}
	*c = Chat{ID: raw.ID, Name: raw.Name, IsGroup: raw.IsGroup, Participants: members}
	return nil
}
