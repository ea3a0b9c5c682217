package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const startStreamMessagesKey = "start_stream_messages"

// Violations are clamped to this range
const (
	MinViolations = 0
	MaxViolations = 3
)

// StreamerProfile is a registered streamer's record in stream.json
type StreamerProfile struct {
	BannerUrl    string    `json:"banner_url"`
	InviteLink   string    `json:"invite_link"`
	InviteCode   string    `json:"invite_code"`
	StreamLink   string    `json:"stream_link"`
	StreamsCount int       `json:"streams_count"`
	Violations   int       `json:"violations"`
	InviteCount  int       `json:"invite_count"`
	StartedAt    time.Time `json:"start_date"`
}

// StartStreamMessage points at a guild's start-stream news channel and button message
type StartStreamMessage struct {
	ChannelId string `json:"channel_id,omitempty"`
	MessageId string `json:"message_id,omitempty"`
}

// StreamDocument is the secondary state document. Streamer records are keyed by
// user id at the top level next to the start_stream_messages mapping.
type StreamDocument struct {
	Streamers           map[string]*StreamerProfile
	StartStreamMessages map[string]*StartStreamMessage
}

// NewStreamDocument returns an empty stream document
func NewStreamDocument() *StreamDocument {
	d := &StreamDocument{}
	d.Normalize()
	return d
}

// Normalize fills in missing collections and clamps counters
func (d *StreamDocument) Normalize() {
	if d.Streamers == nil {
		d.Streamers = make(map[string]*StreamerProfile)
	}
	if d.StartStreamMessages == nil {
		d.StartStreamMessages = make(map[string]*StartStreamMessage)
	}
	for uid, p := range d.Streamers {
		if p == nil {
			delete(d.Streamers, uid)
			continue
		}
		p.Violations = ClampViolations(p.Violations)
	}
}

// ClampViolations bounds a violation count to [MinViolations, MaxViolations]
func ClampViolations(n int) int {
	if n < MinViolations {
		return MinViolations
	}
	if n > MaxViolations {
		return MaxViolations
	}
	return n
}

func (d StreamDocument) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Streamers)+1)
	for uid, p := range d.Streamers {
		out[uid] = p
	}
	msgs := d.StartStreamMessages
	if msgs == nil {
		msgs = map[string]*StartStreamMessage{}
	}
	out[startStreamMessagesKey] = msgs
	return json.Marshal(out)
}

func (d *StreamDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Streamers = make(map[string]*StreamerProfile, len(raw))
	d.StartStreamMessages = make(map[string]*StartStreamMessage)
	for key, value := range raw {
		if key == startStreamMessagesKey {
			if err := json.Unmarshal(value, &d.StartStreamMessages); err != nil {
				return fmt.Errorf("invalid %s: %w", startStreamMessagesKey, err)
			}
			continue
		}
		var p StreamerProfile
		if err := json.Unmarshal(value, &p); err != nil {
			return fmt.Errorf("invalid streamer record %s: %w", key, err)
		}
		d.Streamers[key] = &p
	}
	return nil
}

// Editable streamer fields
const (
	FieldBannerUrl    = "banner_url"
	FieldInviteLink   = "invite_link"
	FieldStreamLink   = "stream_link"
	FieldStreamsCount = "streams_count"
	FieldViolations   = "violations"
	FieldInviteCount  = "invite_count"
)

// EditableStreamerFields lists the fields an admin may edit, in display order
var EditableStreamerFields = []string{
	FieldBannerUrl, FieldInviteLink, FieldStreamLink,
	FieldStreamsCount, FieldViolations, FieldInviteCount,
}

// SetField assigns one editable field from its text form. Numeric fields must
// parse as non-negative integers; violations are clamped.
func (p *StreamerProfile) SetField(field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case FieldStreamsCount, FieldViolations, FieldInviteCount:
	case FieldBannerUrl:
		p.BannerUrl = value
		return nil
	case FieldInviteLink:
		p.InviteLink = value
		return nil
	case FieldStreamLink:
		p.StreamLink = value
		return nil
	default:
		return fmt.Errorf("unknown streamer field %q", field)
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("field %s needs a non-negative integer, got %q", field, value)
	}
	switch field {
	case FieldStreamsCount:
		p.StreamsCount = n
	case FieldViolations:
		p.Violations = ClampViolations(n)
	case FieldInviteCount:
		p.InviteCount = n
	}
	return nil
}

// MatchesInvite reports whether code is this streamer's invite, either the
// generated code or the code at the end of the registered invite link.
func (p *StreamerProfile) MatchesInvite(code string) bool {
	if code == "" {
		return false
	}
	if strings.EqualFold(code, p.InviteCode) {
		return true
	}
	link := strings.TrimRight(strings.TrimSpace(p.InviteLink), "/")
	if link == "" {
		return false
	}
	if i := strings.LastIndex(link, "/"); i >= 0 {
		link = link[i+1:]
	}
	return link == code
}
