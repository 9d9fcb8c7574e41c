package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/services"
)

// maxMultipartMemory is the in-memory share of a multipart upload; the rest
// spills to temporary files.
const maxMultipartMemory = 8 << 20

type importResponse struct {
	services.ImportReport
	Message string `json:"message"`
}

// badRequest marks a request-decoding failure as invalid input.
func badRequest(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return fmt.Errorf("%w: %w", services.ErrInvalidInput, err)
}

// importBody returns the uploaded file: the multipart field "file" when the
// request is multipart, the raw body otherwise.
func importBody(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, badRequest(fmt.Errorf("parse multipart form: %w", err))
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest(fmt.Errorf("missing form field %q", "file"))
	}
	return file, nil
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	if format != services.FormatCSV && format != services.FormatJSON {
		NotFoundError(fmt.Sprintf("unsupported import format %q", format)).Write(w)
		return
	}

	body, err := importBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer body.Close()

	report, err := s.transfer.Import(r.Context(), format, body)
	// A failed import may still have appended categories.
	s.invalidateViews()
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentImport).WarnContext(r.Context(), "Import rejected",
			log.FieldFormat, format,
			log.FieldError, err)
		s.writeError(w, r, err)
		return
	}

	NewResponse().JSON(importResponse{
		ImportReport: report,
		Message:      report.Message(s.errorPreview),
	}).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	day := time.Now().UTC().Format("2006-01-02")

	var buf bytes.Buffer
	switch format {
	case services.FormatCSV:
		err := s.transfer.ExportCSV(r.Context(), &buf)
		if errors.Is(err, services.ErrNothingToExport) {
			NoContent().Write(w)
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.logExport(r, format, buf.Len())
		NewResponse().
			Body("text/csv; charset=utf-8", buf.Bytes()).
			Attachment(fmt.Sprintf("transactions_%s.csv", day)).
			Write(w)
	case services.FormatJSON:
		if err := s.transfer.ExportJSON(r.Context(), &buf); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.logExport(r, format, buf.Len())
		NewResponse().
			Body("application/json", buf.Bytes()).
			Attachment(fmt.Sprintf("fintrack_backup_%s.json", day)).
			Write(w)
	default:
		NotFoundError(fmt.Sprintf("unsupported export format %q", format)).Write(w)
	}
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	updated, err := s.transfer.ExportSheets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logExport(r, services.FormatSheets, 0)
	NewResponse().JSON(map[string]string{"updatedRange": updated}).Write(w)
}

func (s *Server) logExport(r *http.Request, format string, size int) {
	log.FromContext(r.Context()).WithComponent(log.ComponentExport).InfoContext(r.Context(), "Export served",
		log.FieldOperation, log.OpExport,
		log.FieldFormat, format,
		"bytes", size)
}
