package api

import (
	"fmt"
	"net/http"
	"strconv"

	"keybrame/internal/hotkey"
	"keybrame/internal/input"
	"keybrame/internal/media"
	"keybrame/internal/store"
)

type createBindingRequest struct {
	Keys          []input.Key        `json:"keys"`
	Kind          *hotkey.Kind       `json:"type"`
	Image         *string            `json:"image"`
	Description   string             `json:"description"`
	TransitionIn  *hotkey.Transition `json:"transition_in"`
	TransitionOut *hotkey.Transition `json:"transition_out"`
}

type reorderRequest struct {
	Order []int64 `json:"order"`
}

func (s *Server) handleListBindings(w http.ResponseWriter, r *http.Request) {
	bindings, err := s.deps.Store.ListBindings(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bindings)
}

func (s *Server) handleGetBinding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := s.deps.Store.GetBinding(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCreateBinding(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var problems []string
	if req.Keys == nil {
		problems = append(problems, "missing field: keys")
	}
	if req.Kind == nil {
		problems = append(problems, "missing field: type")
	}
	if req.Image == nil {
		problems = append(problems, "missing field: image")
	}

	b := hotkey.Binding{Description: req.Description, TransitionIn: req.TransitionIn, TransitionOut: req.TransitionOut}
	if req.Keys != nil {
		keys, err := validateKeys(req.Keys)
		if err != nil {
			problems = append(problems, err.Error())
		}
		b.Keys = keys
	}
	if req.Kind != nil {
		b.Kind = *req.Kind
	}
	if req.Image != nil {
		b.Image = *req.Image
		problems = append(problems, s.validateImage("image", b.Image)...)
	}
	problems = append(problems, s.validateTransition("transition_in", req.TransitionIn)...)
	problems = append(problems, s.validateTransition("transition_out", req.TransitionOut)...)

	if len(problems) > 0 {
		writeError(w, http.StatusBadRequest, "invalid keybinding", problems...)
		return
	}

	id, err := s.deps.Store.CreateBinding(r.Context(), b)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.afterMutation(w, r, http.StatusCreated, map[string]any{"success": true, "id": id})
}

func (s *Server) handleUpdateBinding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch store.BindingPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	var problems []string
	if patch.Keys != nil {
		keys, err := validateKeys(*patch.Keys)
		if err != nil {
			problems = append(problems, err.Error())
		}
		patch.Keys = &keys
	}
	if patch.Image != nil {
		problems = append(problems, s.validateImage("image", *patch.Image)...)
	}
	problems = append(problems, s.validateTransition("transition_in", patch.TransitionIn.Value)...)
	problems = append(problems, s.validateTransition("transition_out", patch.TransitionOut.Value)...)

	if len(problems) > 0 {
		writeError(w, http.StatusBadRequest, "invalid keybinding", problems...)
		return
	}

	if err := s.deps.Store.UpdateBinding(r.Context(), id, patch); err != nil {
		writeStoreError(w, err)
		return
	}
	s.afterMutation(w, r, http.StatusOK, okResponse())
}

func (s *Server) handleDeleteBinding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Store.DeleteBinding(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.afterMutation(w, r, http.StatusOK, okResponse())
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Order) == 0 {
		writeError(w, http.StatusBadRequest, "order array required")
		return
	}
	if err := s.deps.Store.Reorder(r.Context(), req.Order); err != nil {
		writeStoreError(w, err)
		return
	}
	s.afterMutation(w, r, http.StatusOK, okResponse())
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid keybinding id")
		return 0, false
	}
	return id, true
}

func validateKeys(keys []input.Key) ([]input.Key, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("keys must be a non-empty array")
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return input.ParseKeys(names)
}

// validateImage requires ref to name an existing file in the assets dir
func (s *Server) validateImage(field, ref string) []string {
	if ref == "" {
		return []string{field + ": image path cannot be empty"}
	}
	if _, err := media.Name(ref); err != nil {
		return []string{fmt.Sprintf("%s: %v", field, err)}
	}
	if !s.deps.Library.Exists(ref) {
		return []string{fmt.Sprintf("%s: image not found: %s, upload it first", field, ref)}
	}
	return nil
}

func (s *Server) validateTransition(field string, t *hotkey.Transition) []string {
	if t == nil {
		return nil
	}
	if t.Duration < 0 {
		return []string{field + ": duration must not be negative"}
	}
	return s.validateImage(field, t.Image)
}
