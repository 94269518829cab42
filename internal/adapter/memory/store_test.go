package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/response"
)

func record(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.Record(context.Background(), &response.Response{RequestID: id, PublicationStatus: response.StatusPublished}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRecentNewestFirst(t *testing.T) {
	s := NewStore(10)
	record(t, s, "a", "b", "c")

	got, err := s.Recent(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].RequestID != "c" || got[1].RequestID != "b" {
		t.Fatalf("Recent = %+v, want c then b", got)
	}
}

func TestRingEvictsOldest(t *testing.T) {
	s := NewStore(3)
	for i := range 5 {
		record(t, s, fmt.Sprintf("r%d", i))
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	got, _ := s.Recent(context.Background(), 0)
	want := []string{"r4", "r3", "r2"}
	for i, w := range want {
		if got[i].RequestID != w {
			t.Errorf("Recent[%d] = %s, want %s", i, got[i].RequestID, w)
		}
	}
	if _, err := s.Get(context.Background(), "r0"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(evicted) err = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsNewest(t *testing.T) {
	s := NewStore(5)
	ctx := context.Background()
	_ = s.Record(ctx, &response.Response{RequestID: "dup", PublicationStatus: response.StatusRejected})
	_ = s.Record(ctx, &response.Response{RequestID: "dup", PublicationStatus: response.StatusPublished})

	got, err := s.Get(ctx, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if got.PublicationStatus != response.StatusPublished {
		t.Errorf("status = %s, want published", got.PublicationStatus)
	}
}

func TestRecentEmpty(t *testing.T) {
	got, err := NewStore(0).Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestRecentReturnsFullResponses(t *testing.T) {
	s := NewStore(4)
	ctx := context.Background()
	in := &response.Response{
		RequestID:     "req_1",
		ExpertResults: map[string]*analysis.Result{"financial": {Domain: "financial"}},
	}
	if err := s.Record(ctx, in); err != nil {
		t.Fatal(err)
	}
	got, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ExpertResults["financial"] == nil {
		t.Fatalf("Recent = %+v, want the recorded expert results", got)
	}
}
