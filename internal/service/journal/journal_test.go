package journal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/neurelo-connect/neurelo-connect-mcp/internal/model"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/testhelpers"
)

func TestNewJournalService(t *testing.T) {
	db, err := testhelpers.CreateTestDB()
	testhelpers.AssertNoError(t, err)

	svc := NewJournalService(db)
	testhelpers.AssertNotNil(t, svc)
	if svc.db != db {
		t.Errorf("Expected db to be %v, got %v", db, svc.db)
	}
}

func TestRecord(t *testing.T) {
	setup := testhelpers.SetupTestDB(t)
	defer setup.Cleanup()

	svc := NewJournalService(setup.DB)
	err := svc.Record(context.Background(), Entry{
		Tool:      "query_create_user",
		Arguments: map[string]any{"name": "Jane"},
		Outcome:   "success",
		Duration:  1500 * time.Millisecond,
	})
	testhelpers.AssertNoError(t, err)

	var saved model.ToolCall
	testhelpers.AssertNoError(t, setup.DB.First(&saved).Error)
	testhelpers.AssertEqual(t, "query_create_user", saved.Tool)
	testhelpers.AssertEqual(t, int64(1500), saved.DurationMs)
	testhelpers.AssertTrue(t, saved.Succeeded(), "Expected call to be successful")

	var args map[string]any
	testhelpers.AssertNoError(t, json.Unmarshal(saved.Arguments, &args))
	testhelpers.AssertEqual(t, "Jane", args["name"])
	if saved.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestRecordNilArguments(t *testing.T) {
	setup := testhelpers.SetupTestDB(t)
	defer setup.Cleanup()

	svc := NewJournalService(setup.DB)
	testhelpers.AssertNoError(t, svc.Record(context.Background(), Entry{Tool: "system_get_status", Outcome: "success"}))

	var saved model.ToolCall
	testhelpers.AssertNoError(t, setup.DB.First(&saved).Error)
	testhelpers.AssertEqual(t, "{}", string(saved.Arguments))
}

func TestList(t *testing.T) {
	setup := testhelpers.SetupTestDB(t)
	defer setup.Cleanup()

	svc := NewJournalService(setup.DB)
	base := time.Now().Add(-time.Hour)
	calls := []model.ToolCall{
		{Tool: "raw_query", Outcome: "success", CreatedAt: base},
		{Tool: "raw_query", Outcome: "error", Error: "boom", StatusCode: 500, CreatedAt: base.Add(time.Minute)},
		{Tool: "system_get_status", Outcome: "success", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range calls {
		testhelpers.AssertNoError(t, setup.DB.Create(&calls[i]).Error)
	}

	all, err := svc.List(context.Background(), ListOptions{})
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, 3, len(all))
	testhelpers.AssertEqual(t, "system_get_status", all[0].Tool)

	byTool, err := svc.List(context.Background(), ListOptions{Tool: "raw_query"})
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, 2, len(byTool))
	testhelpers.AssertEqual(t, "boom", byTool[0].Error)

	limited, err := svc.List(context.Background(), ListOptions{Limit: 1})
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, 1, len(limited))

	failed, err := svc.List(context.Background(), ListOptions{FailedOnly: true})
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, 1, len(failed))
	testhelpers.AssertEqual(t, 500, failed[0].StatusCode)
}

func TestPurge(t *testing.T) {
	setup := testhelpers.SetupTestDB(t)
	defer setup.Cleanup()

	svc := NewJournalService(setup.DB)
	old := model.ToolCall{Tool: "raw_query", Outcome: "success", CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := model.ToolCall{Tool: "raw_query", Outcome: "success", CreatedAt: time.Now()}
	testhelpers.AssertNoError(t, setup.DB.Create(&old).Error)
	testhelpers.AssertNoError(t, setup.DB.Create(&recent).Error)

	n, err := svc.Purge(context.Background(), time.Now().Add(-24*time.Hour))
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, int64(1), n)

	remaining, err := svc.List(context.Background(), ListOptions{})
	testhelpers.AssertNoError(t, err)
	testhelpers.AssertEqual(t, 1, len(remaining))
	testhelpers.AssertEqual(t, recent.ID, remaining[0].ID)
}

func TestRecordOnNilService(t *testing.T) {
	var svc *JournalService
	err := svc.Record(context.Background(), Entry{Tool: "query_test", Outcome: "success"})
	testhelpers.AssertNoError(t, err)
}
