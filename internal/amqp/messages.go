package amqp

import (
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RecordsRefreshedMessage signals that a record source has new data. It
// carries no records; consumers re-read the source.
type RecordsRefreshedMessage struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Records   int       `json:"records"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordsRefreshedMessage creates a message with a fresh ID.
func NewRecordsRefreshedMessage(source string, records int) *RecordsRefreshedMessage {
	return &RecordsRefreshedMessage{
		ID:        uuid.NewString(),
		Source:    source,
		Records:   records,
		Timestamp: time.Now(),
	}
}

func (m *RecordsRefreshedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordsRefreshedMessageFromJSON decodes and validates a message body.
func RecordsRefreshedMessageFromJSON(data []byte) (*RecordsRefreshedMessage, error) {
	var msg RecordsRefreshedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Source == "" {
		return nil, errors.New("message has no source")
	}
	if msg.Records < 0 {
		return nil, errors.New("message has negative record count")
	}
	return &msg, nil
}
