package controllers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/oskaz/oskaz-api/api/responses"
	"github.com/oskaz/oskaz-api/pkg/erp"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
	"github.com/oskaz/oskaz-api/pkg/logger"
)

// fileCacheControl marks file responses as immutable: ERP file paths are
// content-addressed, so a path never serves different bytes.
const fileCacheControl = "public, max-age=31536000, immutable"

const sniffLen = 3072

type fileOpener interface {
	OpenFile(ctx context.Context, path string) (*erp.File, error)
}

// FilesGet streams an ERP-hosted file, inferring the content type when the
// upstream omits it.
func FilesGet(opener fileOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if opener == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "file proxy unavailable"))
			return
		}

		path := chi.URLParam(r, "*")
		if strings.TrimSpace(path) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file path required"))
			return
		}
		for _, segment := range strings.Split(path, "/") {
			if segment == ".." {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file path must not traverse directories"))
				return
			}
		}

		file, err := opener.OpenFile(r.Context(), "files/"+path)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer func() { _ = file.Body.Close() }()

		contentType := file.ContentType
		body := file.Body
		if contentType == "" || contentType == "application/octet-stream" {
			head := make([]byte, sniffLen)
			n, readErr := io.ReadFull(body, head)
			if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "read file"))
				return
			}
			head = head[:n]
			contentType = mimetype.Detect(head).String()
			body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(head), file.Body), file.Body}
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", fileCacheControl)
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, body); err != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "path", path), "file stream interrupted")
		}
	}
}

var _ fileOpener = (*erp.Client)(nil)
