package store

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/agendahq/agenda-go/internal/model"
)

func TestBuildCancelWhere_RequiresSelector(t *testing.T) {
	_, _, err := buildCancelWhere(model.CancelQuery{})
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestBuildCancelWhere_Name(t *testing.T) {
	where, args, err := buildCancelWhere(model.CancelQuery{Name: "cleanup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if where != "name = $1" {
		t.Fatalf("got %q", where)
	}
	if len(args) != 1 || args[0] != "cleanup" {
		t.Fatalf("got %+v", args)
	}
}

func TestBuildCancelWhere_CombinesSelectors(t *testing.T) {
	where, args, err := buildCancelWhere(model.CancelQuery{
		Name:      "report",
		UniqueKey: "tenant-1",
		Unique:    map[string]any{"region": "us"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(where, "name = $1") || !strings.Contains(where, "unique_key = $2") || !strings.Contains(where, "unique_selector @> $3::jsonb") {
		t.Fatalf("got %q", where)
	}
	if len(args) != 3 {
		t.Fatalf("got %+v", args)
	}
}

func TestMarshalData_Nil(t *testing.T) {
	b, err := marshalData(nil)
	if err != nil || b != nil {
		t.Fatalf("got %v, %v", b, err)
	}
}

func TestMarshalUnique_RoundTrips(t *testing.T) {
	b, err := marshalUnique(map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `{"k":"v"}` {
		t.Fatalf("got %s", b)
	}
	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil || back["k"] != "v" {
		t.Fatalf("round trip got %+v, %v", back, err)
	}
}

func TestToSpec_Passthrough(t *testing.T) {
	job := &model.ScheduledJob{Data: map[string]any{"id": "abc"}}
	got, err := ToSpec(job, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(map[string]any)["id"] != "abc" {
		t.Fatalf("got %+v", got)
	}
}

func TestToSpec_Decode(t *testing.T) {
	job := &model.ScheduledJob{Data: map[string]any{"id": "abc"}}
	got, err := ToSpec(job, func(m map[string]any) (any, error) {
		return m["id"], nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abc" {
		t.Fatalf("got %+v", got)
	}
}
