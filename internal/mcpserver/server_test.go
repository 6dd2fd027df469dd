package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/seopress/internal/affiliate"
	"github.com/starford/seopress/internal/artifacts"
	"github.com/starford/seopress/internal/composer"
	"github.com/starford/seopress/internal/keyword"
	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/pipeline"
	"github.com/starford/seopress/internal/seo"
	"github.com/starford/seopress/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	clock := testutil.NewClock(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	logger := testutil.Logger()
	_, files := testutil.TestFiles(t)
	db := testutil.TestDB(t)

	store := artifacts.NewStore(files, db,
		artifacts.WithLocation(time.UTC),
		artifacts.WithClock(clock.Now),
		artifacts.WithLogger(logger))
	p := pipeline.New(seo.NewProvider(), composer.New(nil, logger),
		affiliate.New(affiliate.Config{}, logger), store,
		pipeline.WithClock(clock.Now), pipeline.WithLogger(logger))
	return New(p, store, "wireless earbuds")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "generate_post":
		result, err = srv.generatePost(ctx, req)
	case "run_daily":
		result, err = srv.runDaily(ctx, req)
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "get_post":
		result, err = srv.getPost(ctx, req)
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

func TestGeneratePost_Unsaved(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "generate_post", map[string]any{"keyword": "Wireless Earbuds"})
	if r.IsError {
		t.Fatalf("error result: %s", resultText(r))
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if out["source"] != string(models.SourceFallback) || out["keyword"] != "wireless earbuds" {
		t.Errorf("out = %v", out)
	}
	if _, ok := out["artifact"]; ok {
		t.Error("unsaved post reported an artifact")
	}
}

func TestGeneratePost_SaveThenGet(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "generate_post", map[string]any{"keyword": "yoga mat", "save": true})
	var out struct {
		HTML     string                 `json:"html"`
		Artifact models.ArtifactSummary `json:"artifact"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Artifact.ID != "manual-"+keyword.Key("yoga mat")+"-20261019T090000" {
		t.Fatalf("id = %q", out.Artifact.ID)
	}

	r = callTool(t, srv, "get_post", map[string]any{"id": out.Artifact.ID})
	var a models.Artifact
	if err := json.Unmarshal([]byte(resultText(r)), &a); err != nil {
		t.Fatal(err)
	}
	if a.HTMLBody != out.HTML || a.Trigger != models.TriggerManual {
		t.Errorf("stored artifact mismatch: %+v", a.Summary())
	}
}

func TestGeneratePost_MissingKeyword(t *testing.T) {
	srv := testServer(t)
	for _, args := range []map[string]any{{}, {"keyword": "   "}} {
		if r := callTool(t, srv, "generate_post", args); !r.IsError {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestRunDaily_Idempotent(t *testing.T) {
	srv := testServer(t)
	first := resultText(callTool(t, srv, "run_daily", map[string]any{}))
	second := resultText(callTool(t, srv, "run_daily", map[string]any{}))
	if !strings.Contains(first, `"created": true`) || !strings.Contains(second, `"created": false`) {
		t.Errorf("first = %s\nsecond = %s", first, second)
	}
	if !strings.Contains(first, "daily-"+keyword.Key("wireless earbuds")+"-20261019") {
		t.Errorf("default keyword not used: %s", first)
	}

	r := callTool(t, srv, "list_posts", map[string]any{"trigger": "daily"})
	var items []models.ArtifactSummary
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Errorf("daily posts = %d, want 1", len(items))
	}
}

func TestListPosts_BadTrigger(t *testing.T) {
	srv := testServer(t)
	if r := callTool(t, srv, "list_posts", map[string]any{"trigger": "weekly"}); !r.IsError {
		t.Error("expected error for unknown trigger")
	}
}

func TestGetPost_Missing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_post", map[string]any{"id": "daily-nope-20261019"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("result = %v %q", r.IsError, resultText(r))
	}
}

func TestContractResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("contents = %v, err = %v", contents, err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != ContractURI || !strings.Contains(tc.Text, "daily-<keyword-key>-<YYYYMMDD>") {
		t.Errorf("unexpected resource %+v", contents[0])
	}
}
