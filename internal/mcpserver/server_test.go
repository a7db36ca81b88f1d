package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mosaic/internal/dataset"
	"github.com/starford/mosaic/internal/entryservice"
	"github.com/starford/mosaic/internal/i18n"
	"github.com/starford/mosaic/internal/menu"
	"github.com/starford/mosaic/internal/query"
	"github.com/starford/mosaic/internal/render"
	"github.com/starford/mosaic/internal/storage"
	"github.com/starford/mosaic/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider, string) {
	t.Helper()

	_, fs := testutil.TestDatasetDir(t)
	store := dataset.NewStore(fs, "mosaic", "blog")
	now := time.Date(2023, time.January, 4, 10, 0, 0, 0, time.UTC)
	engine := query.NewEngine(query.WithClock(func() time.Time { return now }), query.WithLocation(time.UTC))
	r := render.New(i18n.Default(), "")
	d := menu.New(store, engine, r, "mosaic", slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := entryservice.NewService(store, engine, r, d, testutil.TestJournal(t))

	return New(svc, "test"), fs, store.Paths().Live
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "latest_entry":
		result, err = srv.latestEntry(ctx, req)
	case "previous_entry":
		result, err = srv.previousEntry(ctx, req)
	case "entry_by_date":
		result, err = srv.entryByDate(ctx, req)
	case "calendar":
		result, err = srv.calendar(ctx, req)
	case "dispatch":
		result, err = srv.dispatch(ctx, req)
	case "publish_history":
		result, err = srv.publishHistory(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestLatestEntry(t *testing.T) {
	srv, fs, live := testServer(t)
	testutil.WriteDataset(t, fs, live, testutil.Rec("2023-01-03", "mosaic"), testutil.Rec("2023-01-05", "mosaic"))

	r := callTool(t, srv, "latest_entry", map[string]any{"lang": "de"})
	if r.IsError {
		t.Fatalf("latest_entry failed: %s", resultText(r))
	}
	var got entryservice.EntryView
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Date != "2023-01-03" || got.Title != "Eintrag 2023-01-03" {
		t.Errorf("got %s %q", got.Date, got.Title)
	}
}

func TestPreviousEntry_NothingEarlier(t *testing.T) {
	srv, fs, live := testServer(t)
	testutil.WriteDataset(t, fs, live, testutil.Rec("2023-01-04", "mosaic"))

	r := callTool(t, srv, "previous_entry", map[string]any{})
	if !r.IsError {
		t.Error("expected not found")
	}
	if !strings.HasPrefix(resultText(r), "not found") {
		t.Errorf("text = %q", resultText(r))
	}
}

func TestEntryByDate(t *testing.T) {
	srv, fs, live := testServer(t)
	testutil.WriteDataset(t, fs, live, testutil.Rec("2022-05-03", "mosaic"))

	r := callTool(t, srv, "entry_by_date", map[string]any{"date": "2022-05-03"})
	if r.IsError || !strings.Contains(resultText(r), `"date": "2022-05-03"`) {
		t.Errorf("by date = %s", resultText(r))
	}

	r = callTool(t, srv, "entry_by_date", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing date")
	}
}

func TestNoDataset(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "calendar", map[string]any{})
	if !r.IsError || !strings.Contains(resultText(r), "unavailable") {
		t.Errorf("calendar without dataset = %q", resultText(r))
	}
}

func TestDispatchWalk(t *testing.T) {
	srv, fs, live := testServer(t)
	testutil.WriteDataset(t, fs, live, testutil.Rec("2022-05-03", "mosaic"))

	r := callTool(t, srv, "dispatch", map[string]any{})
	if !strings.Contains(resultText(r), "m_ma_calendar") {
		t.Fatalf("empty token should return start view: %s", resultText(r))
	}

	token := "m_ma_calendar"
	for _, want := range []string{"m_yr_2022", "m_mo_2022-05", "c_dy_2022-05-03"} {
		r = callTool(t, srv, "dispatch", map[string]any{"token": token})
		var resp menu.Response
		if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
			t.Fatal(err)
		}
		if got := resp.Menu.Rows[0][0].Token; got != want {
			t.Fatalf("after %s first button = %q, want %q", token, got, want)
		}
		token = want
	}

	r = callTool(t, srv, "dispatch", map[string]any{"token": token, "lang": "en"})
	if !strings.Contains(resultText(r), `"state": "entry"`) {
		t.Errorf("final dispatch = %s", resultText(r))
	}
}

func TestPublishHistory_Empty(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "publish_history", map[string]any{"limit": float64(5)})
	if r.IsError || resultText(r) != "[]" {
		t.Errorf("history = %q", resultText(r))
	}
}

func TestTokenGrammarResource(t *testing.T) {
	srv, _, _ := testServer(t)

	contents, err := srv.readTokenGrammar(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != TokenGrammarURI || !strings.Contains(tc.Text, "c_dy_2022-05-03") {
		t.Errorf("resource = %+v", contents[0])
	}
}
