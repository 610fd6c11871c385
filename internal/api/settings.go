package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"keybrame/internal/hotkey"
	"keybrame/internal/input"
	"keybrame/internal/store"
)

type stateResponse struct {
	CurrentImage string      `json:"current_image"`
	Physical     []input.Key `json:"physical"`
	Pressed      []input.Key `json:"pressed"`
	Active       []input.Key `json:"active"`
	Clients      int         `json:"clients"`
	Bindings     int         `json:"bindings"` // enabled bindings in effect
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Store.Settings(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch store.SettingsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	var problems []string
	if patch.Port != nil && (*patch.Port < 1 || *patch.Port > 65535) {
		problems = append(problems, fmt.Sprintf("port %d out of range", *patch.Port))
	}
	if patch.ShutdownCombo != nil {
		combo, err := validateKeys(*patch.ShutdownCombo)
		if err != nil {
			problems = append(problems, "shutdown_combo: "+err.Error())
		}
		patch.ShutdownCombo = &combo
	}
	if patch.DefaultImage != nil && *patch.DefaultImage != "" {
		problems = append(problems, s.validateImage("default_image", *patch.DefaultImage)...)
	}
	if len(problems) > 0 {
		writeError(w, http.StatusBadRequest, "invalid settings", problems...)
		return
	}

	portChanged, err := s.deps.Store.UpdateSettings(r.Context(), patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.afterMutation(w, r, http.StatusOK, map[string]bool{"success": true, "reloadRequired": portChanged})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.reload(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, http.StatusInternalServerError, "reload failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, okResponse())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Engine.State()
	resp := stateResponse{
		CurrentImage: s.deps.Engine.CurrentImage(),
		Physical:     st.Physical.Sorted(),
		Pressed:      st.Pressed.Sorted(),
		Active:       []input.Key{},
		Clients:      s.hub.Clients(),
		Bindings:     len(s.deps.Engine.Snapshot().Bindings()),
	}
	if !st.Idle() {
		resp.Active = st.Active.Sorted()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Store.Export(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc store.Document
	if !decodeJSON(w, r, &doc) {
		return
	}

	for i := range doc.Keybindings {
		b := &doc.Keybindings[i]
		var problems []string
		keys, err := validateKeys(b.Keys)
		if err != nil {
			problems = append(problems, err.Error())
		}
		b.Keys = keys
		problems = append(problems, s.validateImage("image", b.Image)...)
		problems = append(problems, s.validateTransition("transition_in", b.TransitionIn)...)
		problems = append(problems, s.validateTransition("transition_out", b.TransitionOut)...)
		if len(problems) > 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("keybinding #%d invalid", i+1), problems...)
			return
		}
	}
	if doc.ShutdownCombo != nil {
		combo, err := validateKeys(doc.ShutdownCombo)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid settings", "shutdown_combo: "+err.Error())
			return
		}
		doc.ShutdownCombo = combo
	}

	if err := s.deps.Store.Import(r.Context(), doc); err != nil {
		writeStoreError(w, err)
		return
	}
	s.afterMutation(w, r, http.StatusOK, okResponse())
}

// handleLegacyConfig serves the loaded snapshot in the flat shape older
// overlay pages read
func (s *Server) handleLegacyConfig(w http.ResponseWriter, r *http.Request) {
	doc := s.deps.Provider.Document()
	if doc.ShutdownCombo == nil {
		doc.ShutdownCombo = []input.Key{}
	}
	if doc.Keybindings == nil {
		doc.Keybindings = []hotkey.Binding{}
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.deps.Version})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	s.serverControl(w, r, "shutdown", "shutting down", s.deps.OnShutdown)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.serverControl(w, r, "restart", "restarting", s.deps.OnRestart)
}

// serverControl answers first and runs fn shortly after, so the response
// flushes before the listener goes away
func (s *Server) serverControl(w http.ResponseWriter, r *http.Request, action, message string, fn func()) {
	if fn == nil {
		writeError(w, http.StatusNotImplemented, action+" not available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
	slog.Info("[api] server control requested", "action", action, "remote", r.RemoteAddr)
	time.AfterFunc(controlDelay, fn)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
