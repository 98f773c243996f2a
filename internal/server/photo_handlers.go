package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"sprout/internal/api"
	"sprout/internal/logging"
	"sprout/internal/photos"
	"sprout/internal/store"
)

func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caller, err := s.authenticate(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, photos.MaxUploadBytes+4096)
	if err := r.ParseMultipartForm(photos.MaxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "photo exceeds the maximum upload size")
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "photo form field is required")
		return
	}
	defer file.Close()

	data, contentType, err := photos.ReadUpload(file)
	if err != nil {
		switch {
		case errors.Is(err, photos.ErrTooLarge), errors.Is(err, photos.ErrUnsupportedType):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeServiceError(w, api.InternalError("read upload", err))
		}
		return
	}

	id := uuid.NewString()
	filename, err := s.library.Write(id, contentType, data)
	if err != nil {
		s.writeServiceError(w, api.InternalError("store photo", err))
		return
	}
	photo := &store.Photo{
		ID:          id,
		OwnerID:     caller.UserID,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}
	if plantIDStr := r.FormValue("plantId"); plantIDStr != "" {
		plantID, err := strconv.ParseInt(plantIDStr, 10, 64)
		if err != nil || plantID <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid plant id")
			return
		}
		owned, err := s.store.GetPlantForOwner(r.Context(), plantID, caller.UserID)
		if err != nil {
			s.writeServiceError(w, api.InternalError("load plant", err))
			return
		}
		if owned == nil {
			s.writeError(w, http.StatusNotFound, "plant not found")
			return
		}
		photo.PlantID = &plantID
	}
	if err := s.store.CreatePhoto(r.Context(), photo); err != nil {
		_ = s.library.Remove(filename)
		s.writeServiceError(w, api.InternalError("save photo metadata", err))
		return
	}

	s.logger.Info("photo uploaded",
		logging.String("photo_id", id),
		logging.Int64(logging.FieldUserID, caller.UserID),
		logging.Int64("size_bytes", photo.SizeBytes))
	s.writeJSON(w, http.StatusCreated, api.NewPhotoView(photo))
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	caller, err := s.authenticate(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/photos/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	photo, err := s.store.GetPhotoForOwner(r.Context(), id, caller.UserID)
	if err != nil {
		s.writeServiceError(w, api.InternalError("load photo", err))
		return
	}
	if photo == nil {
		s.writeError(w, http.StatusNotFound, "photo not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		blob, err := s.library.Read(photo.Filename)
		if err != nil {
			s.writeServiceError(w, api.InternalError("read photo", err))
			return
		}
		w.Header().Set("Content-Type", photo.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(blob)
	case http.MethodDelete:
		if _, err := s.store.DeletePhotoForOwner(r.Context(), id, caller.UserID); err != nil {
			s.writeServiceError(w, api.InternalError("delete photo", err))
			return
		}
		if err := s.library.Remove(photo.Filename); err != nil {
			s.logger.Warn("remove photo blob failed", logging.Error(err))
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
