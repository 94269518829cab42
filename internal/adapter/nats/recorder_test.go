package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Strob0t/Principal/internal/domain/quality"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/messagequeue"
)

type published struct {
	subject string
	data    []byte
}

type fakeQueue struct {
	msgs []published
}

func (f *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	f.msgs = append(f.msgs, published{subject, data})
	return nil
}

func (f *fakeQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}
func (f *fakeQueue) Drain() error      { return nil }
func (f *fakeQueue) Close() error      { return nil }
func (f *fakeQueue) IsConnected() bool { return true }

func TestRecorderSubjects(t *testing.T) {
	tests := []struct {
		status response.PublicationStatus
		want   string
	}{
		{response.StatusPublished, messagequeue.SubjectResponsePublished},
		{response.StatusPartial, messagequeue.SubjectResponsePublished},
		{response.StatusRejected, messagequeue.SubjectResponseRejected},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			q := &fakeQueue{}
			rec := NewRecorder(q)
			if err := rec.Record(context.Background(), &response.Response{RequestID: "req_1", PublicationStatus: tt.status}); err != nil {
				t.Fatal(err)
			}
			if len(q.msgs) != 1 || q.msgs[0].subject != tt.want {
				t.Fatalf("published = %+v, want one message on %s", q.msgs, tt.want)
			}
			if err := messagequeue.Validate(q.msgs[0].subject, q.msgs[0].data); err != nil {
				t.Errorf("payload fails validation: %v", err)
			}
		})
	}
}

func TestPayloadScores(t *testing.T) {
	resp := &response.Response{
		RequestID:         "req_1",
		RequestType:       "financial_health",
		Dispatched:        []string{"financial"},
		PublicationStatus: response.StatusPublished,
		QualityAssessments: map[string]*quality.Report{
			"financial": {OverallScore: 0.9},
		},
		FinalQualityReport: &quality.Report{OverallScore: 0.84},
		ProcessingTime:     1500 * time.Millisecond,
	}
	q := &fakeQueue{}
	if err := NewRecorder(q).Record(context.Background(), resp); err != nil {
		t.Fatal(err)
	}
	var p messagequeue.ResponsePayload
	if err := json.Unmarshal(q.msgs[0].data, &p); err != nil {
		t.Fatal(err)
	}
	if p.DomainScores["financial"] != 0.9 || p.FinalScore != 0.84 {
		t.Errorf("scores = %v / %v", p.DomainScores, p.FinalScore)
	}
	if p.ProcessingTime != 1.5 {
		t.Errorf("processing_time = %v, want 1.5", p.ProcessingTime)
	}
}
