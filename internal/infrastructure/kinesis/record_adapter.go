package kinesis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// StateChange is one write to a state key of the DynamoDB store, as captured
// by the table's stream. OldValue is nil for the first write of a key.
type StateChange struct {
	Key       string
	OldValue  []byte
	NewValue  []byte
	UpdatedAt time.Time
}

// ConvertFromKinesisRecord converts a Kinesis record (DynamoDB Streams format) to a StateChange.
// Deletions yield nil.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*StateChange, error) {
	var dynamoDBRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &dynamoDBRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	return ConvertFromDynamoDBStreamRecord(dynamoDBRecord)
}

// ConvertFromDynamoDBStreamRecord converts a DynamoDB Stream record to a StateChange.
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*StateChange, error) {
	switch record.EventName {
	case "INSERT", "MODIFY":
	default:
		return nil, nil
	}

	change, err := convertDynamoDBImage(record.Change.NewImage)
	if err != nil {
		return nil, err
	}
	if record.Change.OldImage != nil {
		old, err := convertDynamoDBImage(record.Change.OldImage)
		if err != nil {
			return nil, fmt.Errorf("old image: %w", err)
		}
		change.OldValue = old.NewValue
	}
	return change, nil
}

// convertDynamoDBImage reads the pk, payload and updated_at attributes
// written by the DynamoDB store.
func convertDynamoDBImage(image map[string]events.DynamoDBAttributeValue) (*StateChange, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	change := &StateChange{}
	if v, ok := image["pk"]; ok && v.DataType() == events.DataTypeString {
		change.Key = v.String()
	}
	if change.Key == "" {
		return nil, fmt.Errorf("missing pk attribute")
	}

	v, ok := image["payload"]
	if !ok {
		return nil, fmt.Errorf("missing payload for %s", change.Key)
	}
	switch v.DataType() {
	case events.DataTypeBinary:
		change.NewValue = v.Binary()
	case events.DataTypeNull:
	default:
		return nil, fmt.Errorf("payload for %s is not binary", change.Key)
	}

	if v, ok := image["updated_at"]; ok && v.DataType() == events.DataTypeString {
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		change.UpdatedAt = t
	}
	return change, nil
}

// BatchConvertFromKinesisEvent converts all records from a Kinesis event.
// Returns successfully converted changes and any errors encountered.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*StateChange, []error) {
	var changes []*StateChange
	var errs []error

	for _, record := range kinesisEvent.Records {
		change, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		if change != nil {
			changes = append(changes, change)
		}
	}

	return changes, errs
}
