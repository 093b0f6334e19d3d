package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/clientes/internal/domain"
)

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("La imagen supera el tamaño maximo permitido de %d bytes", s.maxUploadSize))
			return
		}
		writeMessage(w, http.StatusBadRequest, "Error al leer el formulario multipart")
		return
	}

	rawID := r.FormValue("id")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("ID de cliente invalido: %s", rawID))
		return
	}

	file, header, err := r.FormFile("archivo")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "El parametro 'archivo' es obligatorio")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "id", id, "error", err)
		writeFailure(w, "Error al subir imagen ", err)
		return
	}

	c, err := s.service.UploadPhoto(r.Context(), id, header.Filename, data)
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("El cliente ID %d no existe en la base de datos", id))
	case err != nil:
		s.logger.Error("upload photo failed", "id", id, "error", err)
		writeFailure(w, "Error al subir imagen ", err)
	case c == nil:
		writeJSON(w, http.StatusCreated, map[string]any{})
	default:
		writeJSON(w, http.StatusCreated, map[string]any{
			"cliente": c,
			"mensaje": "Has subido correctamente la imagen: " + c.PhotoName(),
		})
	}
}

// handleGetPhoto streams a stored photo as an attachment. A photo that cannot
// be loaded is a server fault and panics into the recovery middleware.
func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "nombreFoto")

	reader, err := s.service.LoadPhoto(r.Context(), name)
	if err != nil {
		panic(fmt.Errorf("no se pudo cargar la imagen %q: %w", name, err))
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "photo", name, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
