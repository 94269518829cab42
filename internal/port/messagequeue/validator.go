package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errMissingRequestID = errors.New("request_id is required")

// Validate checks data against the payload type registered for subject.
// Dead letter subjects and subjects without a payload type only need to
// carry well-formed JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	if strings.HasSuffix(subject, DLQSuffix) {
		return nil
	}

	var err error
	switch subject {
	case SubjectResponsePublished, SubjectResponseRejected:
		var p ResponsePayload
		if err = json.Unmarshal(data, &p); err == nil && p.RequestID == "" {
			err = errMissingRequestID
		}
	case SubjectRequestSubmit:
		var p RequestSubmitPayload
		if err = json.Unmarshal(data, &p); err == nil && p.ID == "" {
			err = errMissingRequestID
		}
	case SubjectRequestAccepted:
		var p RequestAcceptedPayload
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
