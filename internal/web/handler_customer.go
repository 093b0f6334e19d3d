package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/clientes/internal/domain"
)

const maxBodySize = 1 << 20

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.service.List(r.Context())
	if err != nil {
		s.logger.Error("list customers failed", "error", err)
		writeFailure(w, "Error al realizar la consulta en la base de datos", err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (s *Server) handleListCustomersPage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "page")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Numero de pagina invalido: %s", raw))
		return
	}

	p, err := s.service.ListPage(r.Context(), page)
	if err != nil {
		s.logger.Error("list customer page failed", "page", page, "error", err)
		writeFailure(w, "Error al realizar la consulta en la base de datos", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	c, err := s.service.Get(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("El cliente ID %d no existe en la base de datos", id))
	case err != nil:
		s.logger.Error("get customer failed", "id", id, "error", err)
		writeFailure(w, "Error al realizar la consulta en la base de datos", err)
	default:
		writeJSON(w, http.StatusOK, c)
	}
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeCustomer(w, r)
	if !ok {
		return
	}

	c, err := s.service.Create(r.Context(), in)
	if err != nil {
		if s.writeValidation(w, err) {
			return
		}
		s.logger.Error("create customer failed", "error", err)
		writeFailure(w, "Error al realizar el insert en la base de datos", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"mensaje": "El cliente ha sido creado con exito",
		"cliente": c,
	})
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	in, ok := s.decodeCustomer(w, r)
	if !ok {
		return
	}

	c, err := s.service.Update(r.Context(), id, in)
	if err != nil {
		if s.writeValidation(w, err) {
			return
		}
		if errors.Is(err, domain.ErrCustomerNotFound) {
			writeMessage(w, http.StatusNotFound,
				fmt.Sprintf("Error: no se pudo editar, el cliente ID %d no existe en la base de datos", id))
			return
		}
		s.logger.Error("update customer failed", "id", id, "error", err)
		writeFailure(w, "Error al actualizar la base de datos", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"mensaje": "El cliente ha sido actualizado con exito",
		"cliente": c,
	})
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete customer failed", "id", id, "error", err)
		writeFailure(w, "Error al eliminar la base de datos", err)
		return
	}
	writeMessage(w, http.StatusOK, "El cliente ha sido eliminado con exito")
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("ID de cliente invalido: %s", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

// decodeCustomer reads the JSON body. A malformed body is reported the same
// way as a validation failure.
func (s *Server) decodeCustomer(w http.ResponseWriter, r *http.Request) (*domain.Customer, bool) {
	var in domain.Customer
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&in); err != nil {
		writeErrors(w, http.StatusBadRequest, []string{"El cuerpo de la peticion no es un JSON valido: " + err.Error()})
		return nil, false
	}
	return &in, true
}

func (s *Server) writeValidation(w http.ResponseWriter, err error) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeErrors(w, http.StatusBadRequest, verr.Messages())
	return true
}
