package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"keybrame/internal/hotkey"
	"keybrame/internal/media"
)

// maxUploadBytes bounds image uploads
const maxUploadBytes = 32 << 20

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.deps.Library.List()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided", err.Error())
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}
	if !media.IsImage(header.Filename) {
		writeError(w, http.StatusBadRequest, "invalid file type", "allowed: png, jpg, jpeg, gif, webp, bmp, svg")
		return
	}

	img, err := s.deps.Library.Save(header.Filename, file)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	slog.Info("[api] image uploaded", "file", img.Filename, "size", img.Size)
	writeJSON(w, http.StatusCreated, img)
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Library.Delete(r.PathValue("name")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse())
}

// handleAsset serves a file from the assets directory. The placeholder and
// any missing file get the generated placeholder SVG so the overlay never
// shows a broken image.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if media.Ref(name) == hotkey.Placeholder {
		servePlaceholder(w)
		return
	}

	path, err := s.deps.Library.Path(name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("[api] asset unreadable", "file", name, "error", err)
		} else {
			slog.Warn("[api] asset not found, serving placeholder", "file", name)
		}
		servePlaceholder(w)
		return
	}
	http.ServeFile(w, r, path)
}

func servePlaceholder(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(media.PlaceholderSVG))
}
