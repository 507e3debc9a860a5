package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/ops"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Mode

type modeRequest struct {
	Mode string `json:"mode"`
}

func (h *handlers) getMode(w http.ResponseWriter, _ *http.Request) {
	out, err := ops.GetMode(h.Settings)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) setMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	out, err := ops.SetMode(h.Settings, req.Mode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// events streams store mutations as server-sent events until the client
// goes away.
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, errors.NewInternal(fmt.Errorf("streaming not supported")))
		return
	}

	ch, cancel := h.Store.Events(eventBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Errorw("marshal event", "type", ev.Type, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

// Cards

type captureRequest struct {
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Favicon   string         `json:"favicon"`
	Snippet   string         `json:"snippet"`
	Tags      []string       `json:"tags"`
	DOI       string         `json:"doi"`
	ProjectID string         `json:"project_id"`
	Evidence  *card.Evidence `json:"evidence"`
}

func (h *handlers) captureCard(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	out, err := ops.Capture(r.Context(), h.Store, h.Settings, ops.CaptureInput{
		Title:     req.Title,
		URL:       req.URL,
		Favicon:   req.Favicon,
		Snippet:   req.Snippet,
		Tags:      req.Tags,
		DOI:       req.DOI,
		ProjectID: req.ProjectID,
		Evidence:  req.Evidence,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *handlers) listCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.List(r.Context(), h.Store, h.Settings, ops.ListInput{
		ProjectID:      q.Get("project_id"),
		AllProjects:    parseBoolParam(r, "all_projects"),
		Tag:            q.Get("tag"),
		Query:          q.Get("q"),
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getCard(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Get(r.Context(), h.Store, ops.GetInput{
		ID:             chi.URLParam(r, "id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type updateRequest struct {
	Title     *string   `json:"title"`
	URL       *string   `json:"url"`
	Snippet   *string   `json:"snippet"`
	Tags      *[]string `json:"tags"`
	DOI       *string   `json:"doi"`
	ProjectID *string   `json:"project_id"`
}

func (h *handlers) updateCard(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	out, err := ops.Update(r.Context(), h.Store, ops.UpdateInput{
		ID:        chi.URLParam(r, "id"),
		Title:     req.Title,
		URL:       req.URL,
		Snippet:   req.Snippet,
		Tags:      req.Tags,
		DOI:       req.DOI,
		ProjectID: req.ProjectID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type tagRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

func (h *handlers) tagCard(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	out, err := ops.Tag(r.Context(), h.Store, ops.TagInput{
		ID:     chi.URLParam(r, "id"),
		Add:    req.Add,
		Remove: req.Remove,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type actionRequest struct {
	Action string `json:"action"`
	Style  string `json:"style"`
	Target string `json:"target"`
}

func (h *handlers) applyAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	out, err := ops.ApplyAction(r.Context(), h.Store, h.Transformer, ops.ActionInput{
		ID:     chi.URLParam(r, "id"),
		Action: req.Action,
		Style:  req.Style,
		Target: req.Target,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) trashCard(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Trash(r.Context(), h.Store, ops.TrashInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) restoreCard(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Restore(r.Context(), h.Store, ops.TrashInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) purgeCard(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Purge(r.Context(), h.Store, ops.PurgeInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getLens(w http.ResponseWriter, r *http.Request) {
	if h.Lens == nil {
		h.writeError(w, errors.NewInvalidRequest("literature lens is not configured"))
		return
	}
	out, err := ops.Lens(r.Context(), h.Store, h.Lens, ops.LensInput{
		ID:         chi.URLParam(r, "id"),
		Refresh:    parseBoolParam(r, "refresh"),
		CachedOnly: parseBoolParam(r, "cached_only"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) similar(w http.ResponseWriter, r *http.Request) {
	if h.Finder == nil {
		h.writeError(w, errors.NewInvalidRequest("similar works lookup is not configured"))
		return
	}
	out, err := ops.Similar(r.Context(), h.Store, h.Settings, h.Finder, ops.SimilarInput{
		ID:    chi.URLParam(r, "id"),
		Limit: parseIntParam(r, "limit", 0),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Trash

func (h *handlers) listTrash(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListTrash(r.Context(), h.Store, ops.ListTrashInput{
		ProjectID: r.URL.Query().Get("project_id"),
		Limit:     parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:    parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) emptyTrash(w http.ResponseWriter, r *http.Request) {
	input := ops.PurgeInput{ProjectID: ptrString(r.URL.Query().Get("project_id"))}
	if r.URL.Query().Has("older_than_days") {
		days := parseIntParam(r, "older_than_days", -1)
		if days < 0 {
			h.writeError(w, errors.NewInvalidRequest("older_than_days must be a non-negative integer"))
			return
		}
		input.OlderThanDays = &days
	}
	out, err := ops.Purge(r.Context(), h.Store, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) sweep(w http.ResponseWriter, r *http.Request) {
	if h.Sweeper == nil {
		h.writeError(w, errors.NewInvalidRequest("trash retention is not configured"))
		return
	}
	out, err := ops.Sweep(r.Context(), h.Sweeper)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Export

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.Export(r.Context(), h.Store, h.Settings, h.Config, ops.ExportInput{
		ProjectID:   q.Get("project_id"),
		AllProjects: parseBoolParam(r, "all_projects"),
		Format:      q.Get("format"),
		NoCitations: parseBoolParam(r, "no_citations"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if parseBoolParam(r, "raw") {
		w.Header().Set("Content-Type", contentTypes[out.Format])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.Content))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

var contentTypes = map[string]string{
	ops.FormatMarkdown: "text/markdown; charset=utf-8",
	ops.FormatHTML:     "text/html; charset=utf-8",
	ops.FormatText:     "text/plain; charset=utf-8",
}

// Projects

type projectRequest struct {
	Name string `json:"name"`
	Use  bool   `json:"use"`
}

func (h *handlers) listProjects(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListProjects(r.Context(), h.Store, h.Settings)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	out, err := ops.CreateProject(r.Context(), h.Store, h.Settings, ops.CreateProjectInput{Name: req.Name, Use: req.Use})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *handlers) renameProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	out, err := ops.RenameProject(r.Context(), h.Store, ops.RenameProjectInput{ID: chi.URLParam(r, "id"), Name: req.Name})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) deleteProject(w http.ResponseWriter, r *http.Request) {
	out, err := ops.DeleteProject(r.Context(), h.Store, h.Settings, ops.ProjectInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) useProject(w http.ResponseWriter, r *http.Request) {
	out, err := ops.UseProject(r.Context(), h.Store, h.Settings, ops.ProjectInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
