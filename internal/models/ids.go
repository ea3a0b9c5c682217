package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// flexId decodes an id written either as a JSON string or a JSON number.
// Older documents stored channel and message ids as numbers.
func flexId(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id is neither string nor number: %s", raw)
	}
	return n.String(), nil
}

func (s *ServerSettings) UnmarshalJSON(data []byte) error {
	var aux struct {
		GameChannelId   json.RawMessage `json:"game_channel_id"`
		ResultChannelId json.RawMessage `json:"result_channel_id"`
		NewsChannelId   json.RawMessage `json:"stream_news_channel_id"`
		StartChannelId  json.RawMessage `json:"stream_start_channel_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if s.GameChannelId, err = flexId(aux.GameChannelId); err != nil {
		return err
	}
	if s.ResultChannelId, err = flexId(aux.ResultChannelId); err != nil {
		return err
	}
	if s.NewsChannelId, err = flexId(aux.NewsChannelId); err != nil {
		return err
	}
	s.StartChannelId, err = flexId(aux.StartChannelId)
	return err
}

func (m *StartStreamMessage) UnmarshalJSON(data []byte) error {
	var aux struct {
		ChannelId json.RawMessage `json:"channel_id"`
		MessageId json.RawMessage `json:"message_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if m.ChannelId, err = flexId(aux.ChannelId); err != nil {
		return err
	}
	m.MessageId, err = flexId(aux.MessageId)
	return err
}

func (c *Contest) UnmarshalJSON(data []byte) error {
	type alias Contest
	aux := struct {
		*alias
		MessageId json.RawMessage `json:"message_id"`
		ChannelId json.RawMessage `json:"channel_id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if c.MessageId, err = flexId(aux.MessageId); err != nil {
		return err
	}
	c.ChannelId, err = flexId(aux.ChannelId)
	return err
}
