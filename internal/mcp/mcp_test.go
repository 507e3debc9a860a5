package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tabscribe/tabscribe/internal/config"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/scholar"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
	"github.com/tabscribe/tabscribe/internal/transform"
)

// testSetup creates a temporary store, settings and config for testing.
func testSetup(t *testing.T) Deps {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	st, err := store.Open(tmpDir, cfg)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return Deps{
		Store:    st,
		Settings: settings.Open(tmpDir),
		Config:   cfg,
	}
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// captureCard stores a card through the handler and returns its id.
func captureCard(t *testing.T, h *Handlers, args map[string]any) string {
	t.Helper()
	result, err := h.HandleCapture(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	return output["card"].(map[string]any)["id"].(string)
}

type upperTransformer struct{}

func (upperTransformer) Transform(_ context.Context, _ transform.Action, text string, _ transform.Options) (string, error) {
	return strings.ToUpper(text), nil
}

type stubSweeper struct{ n int }

func (s stubSweeper) Sweep(context.Context) (int, error) { return s.n, nil }

type stubFinder struct{}

func (stubFinder) Similar(_ context.Context, _ scholar.Query, _ int) []*scholar.Work {
	return []*scholar.Work{{Title: "Related"}}
}

// TestHandleCapture tests the card_capture handler.
func TestHandleCapture(t *testing.T) {
	h := NewHandlers(testSetup(t))
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "capture valid card",
			args: map[string]any{
				"snippet": "A clipped paragraph.",
				"title":   "Page",
				"url":     "https://example.org/page",
				"tags":    []any{"reading"},
			},
		},
		{
			name:      "capture without snippet",
			args:      map[string]any{"title": "Empty"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "capture with bad evidence kind",
			args: map[string]any{
				"snippet":  "x",
				"evidence": map[string]any{"kind": "video", "data": "..."},
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "capture into missing project",
			args: map[string]any{
				"snippet":    "x",
				"project_id": "nope",
			},
			wantError: true,
			errorCode: "NOT_FOUND",
		},
		{
			name:      "capture with wrong argument type",
			args:      map[string]any{"snippet": 42},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleCapture(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleCapture_ExtractsDOI(t *testing.T) {
	h := NewHandlers(testSetup(t))

	result, _ := h.HandleCapture(context.Background(), makeRequest(map[string]any{
		"snippet": "Published as 10.1234/abc.5 last year",
	}))
	output := parseOutput(t, result)
	c := output["card"].(map[string]any)
	if c["doi"] != "10.1234/abc.5" {
		t.Errorf("doi = %v, want 10.1234/abc.5", c["doi"])
	}
	if c["project_id"] != "default" {
		t.Errorf("project_id = %v, want default", c["project_id"])
	}
}

// TestHandleGet tests the card_get handler.
func TestHandleGet(t *testing.T) {
	h := NewHandlers(testSetup(t))
	ctx := context.Background()
	id := captureCard(t, h, map[string]any{"snippet": "get me"})

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{name: "get by id", args: map[string]any{"id": id}},
		{name: "get missing id", args: map[string]any{"id": "01MISSING"}, wantError: true, errorCode: "NOT_FOUND"},
		{name: "get without id", args: map[string]any{}, wantError: true, errorCode: "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleGet(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			output := parseOutput(t, result)
			if output["snippet"] != "get me" {
				t.Errorf("snippet = %v, want %q", output["snippet"], "get me")
			}
		})
	}
}

// TestHandleList tests the card_list handler.
func TestHandleList(t *testing.T) {
	h := NewHandlers(testSetup(t))
	ctx := context.Background()

	for i := range 3 {
		captureCard(t, h, map[string]any{
			"snippet": fmt.Sprintf("clip %d", i),
			"tags":    []any{fmt.Sprintf("t%d", i%2)},
		})
	}

	tests := []struct {
		name      string
		args      map[string]any
		wantItems int
		wantMore  bool
	}{
		{name: "all", args: map[string]any{}, wantItems: 3},
		{name: "limit", args: map[string]any{"limit": 2}, wantItems: 2, wantMore: true},
		{name: "offset", args: map[string]any{"limit": 2, "offset": 2}, wantItems: 1},
		{name: "tag", args: map[string]any{"tag": "t0"}, wantItems: 2},
		{name: "query", args: map[string]any{"query": "CLIP 1"}, wantItems: 1},
		{name: "all projects", args: map[string]any{"all_projects": true}, wantItems: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleList(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			output := parseOutput(t, result)
			items := output["items"].([]any)
			if len(items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(items), tt.wantItems)
			}
			pagination := output["pagination"].(map[string]any)
			if pagination["has_more"] != tt.wantMore {
				t.Errorf("has_more = %v, want %v", pagination["has_more"], tt.wantMore)
			}
		})
	}
}

// TestHandleUpdate tests the card_update and card_tag handlers.
func TestHandleUpdate(t *testing.T) {
	h := NewHandlers(testSetup(t))
	ctx := context.Background()
	id := captureCard(t, h, map[string]any{"snippet": "before", "tags": []any{"a"}})

	result, _ := h.HandleUpdate(ctx, makeRequest(map[string]any{"id": id, "snippet": "after"}))
	output := parseOutput(t, result)
	if got := output["card"].(map[string]any)["snippet"]; got != "after" {
		t.Errorf("snippet = %v, want after", got)
	}

	result, _ = h.HandleUpdate(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleUpdate(ctx, makeRequest(map[string]any{"id": id, "snippet": ""}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleTag(ctx, makeRequest(map[string]any{
		"id":     id,
		"add":    []any{"b", "c"},
		"remove": []any{"a", "c"},
	}))
	output = parseOutput(t, result)
	tags := output["card"].(map[string]any)["tags"].([]any)
	if len(tags) != 1 || tags[0] != "b" {
		t.Errorf("tags = %v, want [b]", tags)
	}
}

// TestHandleAction tests the card_action handler.
func TestHandleAction(t *testing.T) {
	deps := testSetup(t)
	ctx := context.Background()

	unconfigured := NewHandlers(deps)
	id := captureCard(t, unconfigured, map[string]any{"snippet": "quiet words"})

	result, _ := unconfigured.HandleAction(ctx, makeRequest(map[string]any{"id": id, "action": "summarize"}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	deps.Transformer = upperTransformer{}
	h := NewHandlers(deps)

	result, _ = h.HandleAction(ctx, makeRequest(map[string]any{"id": id, "action": "summarize"}))
	output := parseOutput(t, result)
	c := output["card"].(map[string]any)
	if c["snippet"] != "QUIET WORDS" {
		t.Errorf("snippet = %v, want QUIET WORDS", c["snippet"])
	}
	badges := c["badges"].([]any)
	if len(badges) != 1 || badges[0] != "summ" {
		t.Errorf("badges = %v, want [summ]", badges)
	}

	result, _ = h.HandleAction(ctx, makeRequest(map[string]any{"id": id, "action": "dance"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

// TestHandleTrashRestorePurge tests the trash lifecycle handlers.
func TestHandleTrashRestorePurge(t *testing.T) {
	h := NewHandlers(testSetup(t))
	ctx := context.Background()
	id := captureCard(t, h, map[string]any{"snippet": "disposable"})

	result, _ := h.HandleTrash(ctx, makeRequest(map[string]any{"id": id}))
	if output := parseOutput(t, result); output["changed"] != true {
		t.Errorf("changed = %v, want true", output["changed"])
	}

	result, _ = h.HandleTrashList(ctx, makeRequest(map[string]any{}))
	if items := parseOutput(t, result)["items"].([]any); len(items) != 1 {
		t.Errorf("trash items = %d, want 1", len(items))
	}

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleRestore(ctx, makeRequest(map[string]any{"id": id}))
	parseOutput(t, result)

	result, _ = h.HandleTrash(ctx, makeRequest(map[string]any{"id": id}))
	parseOutput(t, result)

	result, _ = h.HandlePurge(ctx, makeRequest(map[string]any{"older_than_days": 30}))
	if output := parseOutput(t, result); output["purged"] != float64(0) {
		t.Errorf("purged = %v, want 0 (too recent)", output["purged"])
	}

	result, _ = h.HandlePurge(ctx, makeRequest(map[string]any{}))
	output := parseOutput(t, result)
	if output["purged"] != float64(1) {
		t.Errorf("purged = %v, want 1", output["purged"])
	}
	if output["message"] != "Permanently deleted 1 card" {
		t.Errorf("message = %v", output["message"])
	}

	result, _ = h.HandlePurge(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleSweep(t *testing.T) {
	deps := testSetup(t)
	ctx := context.Background()

	result, _ := NewHandlers(deps).HandleSweep(ctx, makeRequest(nil))
	assertErrorCode(t, result, "INVALID_REQUEST")

	deps.Sweeper = stubSweeper{n: 2}
	result, _ = NewHandlers(deps).HandleSweep(ctx, makeRequest(nil))
	output := parseOutput(t, result)
	if output["message"] != "Permanently deleted 2 expired cards" {
		t.Errorf("message = %v", output["message"])
	}
}

// TestHandleExport tests the card_export handler.
func TestHandleExport(t *testing.T) {
	h := NewHandlers(testSetup(t))
	ctx := context.Background()
	captureCard(t, h, map[string]any{"snippet": "quoted", "title": "Source", "url": "https://s.example"})

	result, _ := h.HandleExport(ctx, makeRequest(map[string]any{}))
	output := parseOutput(t, result)
	content := output["content"].(string)
	if !strings.HasPrefix(content, "# TabScribe Export\n\n> quoted") {
		t.Errorf("unexpected content: %q", content)
	}
	if !strings.Contains(content, "[1] Source — https://s.example") {
		t.Errorf("missing sources list: %q", content)
	}

	path := t.TempDir() + "/out.txt"
	result, _ = h.HandleExport(ctx, makeRequest(map[string]any{"format": "text", "path": path}))
	output = parseOutput(t, result)
	if output["path"] != path {
		t.Errorf("path = %v, want %s", output["path"], path)
	}

	result, _ = h.HandleExport(ctx, makeRequest(map[string]any{"format": "pdf"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

// TestHandleProjects tests the project_* handlers.
func TestHandleProjects(t *testing.T) {
	h := NewHandlers(testSetup(t))
	ctx := context.Background()

	result, _ := h.HandleProjectCreate(ctx, makeRequest(map[string]any{"name": "Thesis", "use": true}))
	pid := parseOutput(t, result)["id"].(string)

	captureCard(t, h, map[string]any{"snippet": "in thesis"})

	result, _ = h.HandleProjectList(ctx, makeRequest(nil))
	output := parseOutput(t, result)
	if output["current"] != pid {
		t.Errorf("current = %v, want %s", output["current"], pid)
	}
	if items := output["items"].([]any); len(items) != 2 {
		t.Errorf("projects = %d, want 2", len(items))
	}

	result, _ = h.HandleProjectRename(ctx, makeRequest(map[string]any{"id": pid, "name": "Dissertation"}))
	if output := parseOutput(t, result); output["name"] != "Dissertation" {
		t.Errorf("name = %v, want Dissertation", output["name"])
	}

	result, _ = h.HandleProjectUse(ctx, makeRequest(map[string]any{"id": "default"}))
	parseOutput(t, result)

	result, _ = h.HandleProjectUse(ctx, makeRequest(map[string]any{"id": "dissertation"}))
	if output := parseOutput(t, result); output["id"] != pid {
		t.Errorf("use by name resolved %v, want %s", output["id"], pid)
	}

	result, _ = h.HandleProjectDelete(ctx, makeRequest(map[string]any{"id": "default"}))
	assertErrorCode(t, result, "PROTECTED")

	result, _ = h.HandleProjectDelete(ctx, makeRequest(map[string]any{"id": pid}))
	output = parseOutput(t, result)
	if output["cards_deleted"] != float64(1) {
		t.Errorf("cards_deleted = %v, want 1", output["cards_deleted"])
	}
	if output["current"] != "default" {
		t.Errorf("current = %v, want default", output["current"])
	}

	result, _ = h.HandleProjectDelete(ctx, makeRequest(map[string]any{"id": pid}))
	assertErrorCode(t, result, "NOT_FOUND")
}

// TestHandleLensAndMode tests the lens_* handlers without network access.
func TestHandleLensAndMode(t *testing.T) {
	deps := testSetup(t)
	ctx := context.Background()

	h := NewHandlers(deps)
	id := captureCard(t, h, map[string]any{"snippet": "doi:10.1000/xyz"})

	result, _ := h.HandleLens(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleModeGet(ctx, makeRequest(nil))
	if output := parseOutput(t, result); output["mode"] != "offline" {
		t.Errorf("mode = %v, want offline", output["mode"])
	}

	deps.Finder = stubFinder{}
	h = NewHandlers(deps)

	result, _ = h.HandleSimilar(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "OFFLINE")

	result, _ = h.HandleModeSet(ctx, makeRequest(map[string]any{"mode": "warp"}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleModeSet(ctx, makeRequest(map[string]any{"mode": "hybrid"}))
	if output := parseOutput(t, result); output["mode"] != string(settings.Hybrid) {
		t.Errorf("mode = %v, want hybrid", output["mode"])
	}

	result, _ = h.HandleSimilar(ctx, makeRequest(map[string]any{"id": id}))
	items := parseOutput(t, result)["items"].([]any)
	if len(items) != 1 {
		t.Errorf("similar items = %d, want 1", len(items))
	}
}

func TestServerRegistration(t *testing.T) {
	s := NewServer(testSetup(t), "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"card_capture",
		"card_get",
		"card_list",
		"card_update",
		"card_tag",
		"card_action",
		"card_trash",
		"card_restore",
		"card_trash_list",
		"card_purge",
		"card_sweep",
		"card_export",
		"project_list",
		"project_create",
		"project_rename",
		"project_delete",
		"project_use",
		"lens_get",
		"lens_similar",
		"lens_mode_get",
		"lens_mode_set",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	deps := testSetup(t)
	deps.Config.DisabledTools = []string{"card_purge", "card_sweep", "project_delete"}
	tools := NewServer(deps, "test").ListTools()

	if len(tools) != len(toolRegistry)-3 {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry)-3)
	}

	for _, name := range deps.Config.DisabledTools {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}

	for _, name := range []string{"card_capture", "card_list", "project_list"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("core tool %q should be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	deps := testSetup(t)
	deps.Config.DisabledTypes = []string{"lens"}
	tools := NewServer(deps, "test").ListTools()

	for name := range tools {
		if GetTypeForTool(name) == "lens" {
			t.Errorf("tool %q of disabled type should not be registered", name)
		}
	}
	if len(tools) != len(toolRegistry)-4 {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry)-4)
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	deps := testSetup(t)
	deps.Config.DisabledTools = AllToolNames()
	tools := NewServer(deps, "test").ListTools()

	if len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"card_purge", "project_delete"}, wantLen: 0},
		{name: "one unknown", input: []string{"card_purge", "fake_tool"}, wantLen: 1},
		{name: "all unknown", input: []string{"foo", "bar", "baz"}, wantLen: 3},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	if unknown := ValidateDisabledTypes([]string{"card", "lens", "notebook"}); len(unknown) != 1 || unknown[0] != "notebook" {
		t.Errorf("ValidateDisabledTypes() = %v, want [notebook]", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()

	if len(names) != len(toolRegistry) {
		t.Errorf("AllToolNames() returned %d names, want %d", len(names), len(toolRegistry))
	}

	unknown := ValidateDisabledTools(names)
	if len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}

	for _, name := range names {
		if unknown := ValidateDisabledTypes([]string{GetTypeForTool(name)}); len(unknown) != 0 {
			t.Errorf("tool %q has no known type prefix", name)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
	if strings.Contains(errObj["message"].(string), "secret.db") {
		t.Fatal("expected INTERNAL message to stay generic")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrappedErr := fmt.Errorf("card 01ABC: %w", errors.NewOffline())

	errObj := errorObject(t, errorResult(wrappedErr))
	if errObj["code"] != string(errors.ErrOffline) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrOffline)
	}
	if msg := errObj["message"].(string); !strings.Contains(msg, "card 01ABC") {
		t.Errorf("message should contain wrapper context, got: %s", msg)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound("card", "abc")))

	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != "INTERNAL" || errObj["status"] != float64(500) {
		t.Errorf("unexpected error object: %v", errObj)
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error %s, got success: %s", expectedCode, extractErrorMessage(result))
		return
	}
	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	code, ok := errorObject(t, result)["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
