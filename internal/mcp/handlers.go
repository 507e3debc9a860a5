package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/config"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/lens"
	"github.com/tabscribe/tabscribe/internal/ops"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
)

// Deps are the services MCP tools operate on. Transformer and Sweeper may
// be nil; the tools that need them then report INVALID_REQUEST.
type Deps struct {
	Store       *store.Store
	Settings    *settings.Settings
	Config      *config.Config
	Lens        *lens.Orchestrator
	Finder      ops.SimilarFinder
	Transformer ops.Transformer
	Sweeper     ops.Sweeper
	Logger      *zap.SugaredLogger
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	st      *store.Store
	set     *settings.Settings
	cfg     *config.Config
	orch    *lens.Orchestrator
	finder  ops.SimilarFinder
	tr      ops.Transformer
	sweeper ops.Sweeper
	log     *zap.SugaredLogger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handlers{
		st:      deps.Store,
		set:     deps.Settings,
		cfg:     cfg,
		orch:    deps.Lens,
		finder:  deps.Finder,
		tr:      deps.Transformer,
		sweeper: deps.Sweeper,
		log:     log,
	}
}

// Request types for each tool

// CaptureRequest represents the arguments for card_capture.
type CaptureRequest struct {
	Title     string         `json:"title,omitempty"`
	URL       string         `json:"url,omitempty"`
	Favicon   string         `json:"favicon,omitempty"`
	Snippet   string         `json:"snippet"`
	Tags      []string       `json:"tags,omitempty"`
	DOI       string         `json:"doi,omitempty"`
	ProjectID string         `json:"project_id,omitempty"`
	Evidence  *card.Evidence `json:"evidence,omitempty"`
}

// GetRequest represents the arguments for card_get.
type GetRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ListRequest represents the arguments for card_list.
type ListRequest struct {
	ProjectID      string `json:"project_id,omitempty"`
	AllProjects    bool   `json:"all_projects,omitempty"`
	Tag            string `json:"tag,omitempty"`
	Query          string `json:"query,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// UpdateRequest represents the arguments for card_update.
type UpdateRequest struct {
	ID        string    `json:"id"`
	Title     *string   `json:"title,omitempty"`
	URL       *string   `json:"url,omitempty"`
	Snippet   *string   `json:"snippet,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
	DOI       *string   `json:"doi,omitempty"`
	ProjectID *string   `json:"project_id,omitempty"`
}

// TagRequest represents the arguments for card_tag.
type TagRequest struct {
	ID     string   `json:"id"`
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// ActionRequest represents the arguments for card_action.
type ActionRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Style  string `json:"style,omitempty"`
	Target string `json:"target,omitempty"`
}

// IDRequest represents the arguments of tools that address one entity.
type IDRequest struct {
	ID string `json:"id"`
}

// TrashListRequest represents the arguments for card_trash_list.
type TrashListRequest struct {
	ProjectID string `json:"project_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// PurgeRequest represents the arguments for card_purge.
type PurgeRequest struct {
	ID            string  `json:"id,omitempty"`
	ProjectID     *string `json:"project_id,omitempty"`
	OlderThanDays *int    `json:"older_than_days,omitempty"`
}

// ExportRequest represents the arguments for card_export.
type ExportRequest struct {
	ProjectID   string `json:"project_id,omitempty"`
	AllProjects bool   `json:"all_projects,omitempty"`
	Format      string `json:"format,omitempty"`
	NoCitations bool   `json:"no_citations,omitempty"`
	ToFile      bool   `json:"to_file,omitempty"`
	Path        string `json:"path,omitempty"`
}

// ProjectCreateRequest represents the arguments for project_create.
type ProjectCreateRequest struct {
	Name string `json:"name"`
	Use  bool   `json:"use,omitempty"`
}

// ProjectRenameRequest represents the arguments for project_rename.
type ProjectRenameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LensRequest represents the arguments for lens_get.
type LensRequest struct {
	ID         string `json:"id"`
	Refresh    bool   `json:"refresh,omitempty"`
	CachedOnly bool   `json:"cached_only,omitempty"`
}

// SimilarRequest represents the arguments for lens_similar.
type SimilarRequest struct {
	ID    string `json:"id"`
	Limit int    `json:"limit,omitempty"`
}

// ModeRequest represents the arguments for lens_mode_set.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// Handler implementations

// HandleCapture handles the card_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Capture(ctx, h.st, h.set, ops.CaptureInput{
		Title:     input.Title,
		URL:       input.URL,
		Favicon:   input.Favicon,
		Snippet:   input.Snippet,
		Tags:      input.Tags,
		DOI:       input.DOI,
		ProjectID: input.ProjectID,
		Evidence:  input.Evidence,
	})
	if err != nil {
		return h.fail("card_capture", err), nil
	}

	return successResult(result)
}

// HandleGet handles the card_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Get(ctx, h.st, ops.GetInput{ID: input.ID, IncludeDeleted: input.IncludeDeleted})
	if err != nil {
		return h.fail("card_get", err), nil
	}

	return successResult(result)
}

// HandleList handles the card_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.st, h.set, ops.ListInput{
		ProjectID:      input.ProjectID,
		AllProjects:    input.AllProjects,
		Tag:            input.Tag,
		Query:          input.Query,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return h.fail("card_list", err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the card_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.st, ops.UpdateInput{
		ID:        input.ID,
		Title:     input.Title,
		URL:       input.URL,
		Snippet:   input.Snippet,
		Tags:      input.Tags,
		DOI:       input.DOI,
		ProjectID: input.ProjectID,
	})
	if err != nil {
		return h.fail("card_update", err), nil
	}

	return successResult(result)
}

// HandleTag handles the card_tag tool call.
func (h *Handlers) HandleTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Tag(ctx, h.st, ops.TagInput{ID: input.ID, Add: input.Add, Remove: input.Remove})
	if err != nil {
		return h.fail("card_tag", err), nil
	}

	return successResult(result)
}

// HandleAction handles the card_action tool call.
func (h *Handlers) HandleAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ActionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ApplyAction(ctx, h.st, h.tr, ops.ActionInput{
		ID:     input.ID,
		Action: input.Action,
		Style:  input.Style,
		Target: input.Target,
	})
	if err != nil {
		return h.fail("card_action", err), nil
	}

	return successResult(result)
}

// HandleTrash handles the card_trash tool call.
func (h *Handlers) HandleTrash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Trash(ctx, h.st, ops.TrashInput{ID: input.ID})
	if err != nil {
		return h.fail("card_trash", err), nil
	}

	return successResult(result)
}

// HandleRestore handles the card_restore tool call.
func (h *Handlers) HandleRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Restore(ctx, h.st, ops.TrashInput{ID: input.ID})
	if err != nil {
		return h.fail("card_restore", err), nil
	}

	return successResult(result)
}

// HandleTrashList handles the card_trash_list tool call.
func (h *Handlers) HandleTrashList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TrashListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListTrash(ctx, h.st, ops.ListTrashInput{
		ProjectID: input.ProjectID,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return h.fail("card_trash_list", err), nil
	}

	return successResult(result)
}

// HandlePurge handles the card_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.st, ops.PurgeInput{
		ID:            input.ID,
		ProjectID:     input.ProjectID,
		OlderThanDays: input.OlderThanDays,
	})
	if err != nil {
		return h.fail("card_purge", err), nil
	}

	return successResult(result)
}

// HandleSweep handles the card_sweep tool call.
func (h *Handlers) HandleSweep(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.sweeper == nil {
		return errorResult(errors.NewInvalidRequest("trash retention is not configured")), nil
	}

	result, err := ops.Sweep(ctx, h.sweeper)
	if err != nil {
		return h.fail("card_sweep", err), nil
	}

	return successResult(result)
}

// HandleExport handles the card_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.st, h.set, h.cfg, ops.ExportInput{
		ProjectID:   input.ProjectID,
		AllProjects: input.AllProjects,
		Format:      input.Format,
		NoCitations: input.NoCitations,
		ToFile:      input.ToFile,
		Path:        input.Path,
	})
	if err != nil {
		return h.fail("card_export", err), nil
	}

	return successResult(result)
}

// HandleProjectList handles the project_list tool call.
func (h *Handlers) HandleProjectList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListProjects(ctx, h.st, h.set)
	if err != nil {
		return h.fail("project_list", err), nil
	}

	return successResult(result)
}

// HandleProjectCreate handles the project_create tool call.
func (h *Handlers) HandleProjectCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateProject(ctx, h.st, h.set, ops.CreateProjectInput{Name: input.Name, Use: input.Use})
	if err != nil {
		return h.fail("project_create", err), nil
	}

	return successResult(result)
}

// HandleProjectRename handles the project_rename tool call.
func (h *Handlers) HandleProjectRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectRenameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RenameProject(ctx, h.st, ops.RenameProjectInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return h.fail("project_rename", err), nil
	}

	return successResult(result)
}

// HandleProjectDelete handles the project_delete tool call.
func (h *Handlers) HandleProjectDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteProject(ctx, h.st, h.set, ops.ProjectInput{ID: input.ID})
	if err != nil {
		return h.fail("project_delete", err), nil
	}

	return successResult(result)
}

// HandleProjectUse handles the project_use tool call.
func (h *Handlers) HandleProjectUse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UseProject(ctx, h.st, h.set, ops.ProjectInput{ID: input.ID})
	if err != nil {
		return h.fail("project_use", err), nil
	}

	return successResult(result)
}

// HandleLens handles the lens_get tool call.
func (h *Handlers) HandleLens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LensRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.orch == nil {
		return errorResult(errors.NewInvalidRequest("literature lens is not configured")), nil
	}

	result, err := ops.Lens(ctx, h.st, h.orch, ops.LensInput{
		ID:         input.ID,
		Refresh:    input.Refresh,
		CachedOnly: input.CachedOnly,
	})
	if err != nil {
		return h.fail("lens_get", err), nil
	}

	return successResult(result)
}

// HandleSimilar handles the lens_similar tool call.
func (h *Handlers) HandleSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SimilarRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.finder == nil {
		return errorResult(errors.NewInvalidRequest("similar works lookup is not configured")), nil
	}

	result, err := ops.Similar(ctx, h.st, h.set, h.finder, ops.SimilarInput{ID: input.ID, Limit: input.Limit})
	if err != nil {
		return h.fail("lens_similar", err), nil
	}

	return successResult(result)
}

// HandleModeGet handles the lens_mode_get tool call.
func (h *Handlers) HandleModeGet(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.GetMode(h.set)
	if err != nil {
		return h.fail("lens_mode_get", err), nil
	}

	return successResult(result)
}

// HandleModeSet handles the lens_mode_set tool call.
func (h *Handlers) HandleModeSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ModeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SetMode(h.set, input.Mode)
	if err != nil {
		return h.fail("lens_mode_set", err), nil
	}

	return successResult(result)
}

// Result helpers

// fail logs internal failures with their cause before building the error result.
func (h *Handlers) fail(tool string, err error) *mcp.CallToolResult {
	if tErr, ok := errors.As(err); !ok || tErr.Code == errors.ErrInternal {
		h.log.Errorw("tool failed", "tool", tool, "error", err)
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if tErr, ok := errors.As(err); ok {
		message := tErr.Message
		if err != error(tErr) {
			// keep wrapper context such as "items[2]: ..."
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": message,
			"status":  tErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		if tErr.Code == errors.ErrInternal {
			errorObj["message"] = tErr.Message
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
