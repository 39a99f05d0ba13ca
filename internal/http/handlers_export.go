package http

import (
	"bytes"
	"fmt"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/export"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// The file is rendered into memory first so an error can still produce a
// JSON error response instead of a truncated download.
func (s *Server) sendFile(w http.ResponseWriter, r *http.Request, name, contentType string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	filename := fmt.Sprintf("%s-%s", s.svc.Today().String(), name)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	s.sendFile(w, r, "transacciones.csv", contentTypeCSV, func(buf *bytes.Buffer) error {
		return s.svc.ExportTransactionsCSV(buf, f, export.Options{BOM: true})
	})
}

func (s *Server) handleExportTransactionsXLSX(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	s.sendFile(w, r, "transacciones.xlsx", contentTypeXLSX, func(buf *bytes.Buffer) error {
		return s.svc.ExportTransactionsXLSX(buf, f)
	})
}

func (s *Server) handleExportActivityCSV(w http.ResponseWriter, r *http.Request) {
	kind := core.ActivityKind(r.URL.Query().Get("kind"))
	s.sendFile(w, r, "actividad.csv", contentTypeCSV, func(buf *bytes.Buffer) error {
		return s.svc.ExportActivityCSV(buf, kind, export.Options{BOM: true})
	})
}
