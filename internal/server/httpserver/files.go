package httpserver

import (
	"errors"
	"net/http"

	"github.com/bridgeclub/clubhouse/internal/server/respond"
	"github.com/bridgeclub/clubhouse/internal/server/upload"
)

const (
	// multipartOverhead leaves room for boundaries and part headers on top
	// of the largest accepted file.
	multipartOverhead = 1 << 20
	// formMemory is how much of a multipart form is kept in memory; the
	// rest spills to temporary files.
	formMemory = 1 << 20
)

type uploadResponse struct {
	FilePath string `json:"filePath"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)
	groupID := r.URL.Query().Get("groupId")

	if err := s.deps.Files.Authorize(ctx, uid, groupID); err != nil {
		s.fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		respond.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	key, err := s.deps.Files.Upload(ctx, uid, groupID, header.Filename, header.Size, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "file uploaded", uploadResponse{FilePath: key})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	url, err := s.deps.Files.ResolveDownload(r.Context(), userID(r), r.PathValue("path"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := s.deps.Files.List(r.Context(), userID(r), q.Get("groupId"), q.Get("cursor"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", page)
}
