package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/me/petms/pkg/model"
)

// listProbe is a minimal query used by the health check.
var listProbe = model.ListOptions{Limit: 1}

// parseListOptions reads limit/offset/search query parameters.
func parseListOptions(r *http.Request) model.ListOptions {
	opts := model.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	opts.Search = strings.TrimSpace(r.URL.Query().Get("search"))
	opts.Clamp()
	return opts
}

// handleListOwners returns a page of owners.
// GET /api/v1/owners?limit=&offset=&search=
func (s *Server) handleListOwners(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := parseListOptions(r)

	owners, total, err := s.store.ListOwners(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if owners == nil {
		owners = []*model.Owner{}
	}

	respondList(w, reqID, owners, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(owners) < total,
	})
}

// handleGetOwner returns one owner.
// GET /api/v1/owners/{id}
func (s *Server) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	owner, err := s.store.GetOwner(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if owner == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("owner", id))
		return
	}
	respondOK(w, reqID, owner)
}

type ownerRequest struct {
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	Gender                 string `json:"gender"`
	Birthdate              string `json:"birthdate"` // YYYY-MM-DD
	CivilStatus            string `json:"civil_status"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	Phone2                 string `json:"phone2"`
	Address                string `json:"address"`
	EmergencyContactPerson string `json:"emergency_contact_person"`
	EmergencyContactNumber string `json:"emergency_contact_number"`
	Status                 string `json:"status"`
}

func (req *ownerRequest) apply(o *model.Owner) *model.APIError {
	o.FirstName = req.FirstName
	o.LastName = req.LastName
	o.Gender = req.Gender
	o.CivilStatus = req.CivilStatus
	o.Email = req.Email
	o.Phone = req.Phone
	o.Phone2 = req.Phone2
	o.Address = req.Address
	o.EmergencyContactPerson = req.EmergencyContactPerson
	o.EmergencyContactNumber = req.EmergencyContactNumber
	if req.Status != "" {
		o.Status = model.OwnerStatus(req.Status)
	}
	if req.Birthdate != "" {
		t, err := time.Parse("2006-01-02", req.Birthdate)
		if err != nil {
			return model.NewValidationError("birthdate must be YYYY-MM-DD",
				model.FieldError{Field: "birthdate", Message: err.Error()})
		}
		o.Birthdate = &t
	} else {
		o.Birthdate = nil
	}

	o.Normalize()
	if errs := o.Validate(); len(errs) > 0 {
		return model.NewValidationError("invalid owner", errs...)
	}
	return nil
}

// handleCreateOwner creates an owner record.
// POST /api/v1/owners
func (s *Server) handleCreateOwner(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req ownerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body"))
		return
	}

	owner := &model.Owner{
		ID:       "owner_" + uuid.New().String(),
		OwnerRef: NewOwnerRef(),
	}
	if apiErr := req.apply(owner); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	existing, err := s.store.GetOwnerByEmail(r.Context(), owner.Email, "")
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if existing != nil {
		respondError(w, reqID, http.StatusConflict, model.NewConflictError("Email already exists"))
		return
	}

	now := time.Now().UTC()
	owner.CreatedAt = now
	owner.UpdatedAt = now
	owner.QRCode = owner.OwnerRef

	if err := s.store.CreateOwner(r.Context(), owner); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondCreated(w, reqID, owner)
}

// handleUpdateOwner updates an owner record.
// PUT /api/v1/owners/{id}
func (s *Server) handleUpdateOwner(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	owner, err := s.store.GetOwner(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if owner == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("owner", id))
		return
	}

	var req ownerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body"))
		return
	}
	if apiErr := req.apply(owner); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	existing, err := s.store.GetOwnerByEmail(r.Context(), owner.Email, owner.ID)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if existing != nil {
		respondError(w, reqID, http.StatusConflict, model.NewConflictError("Email already exists"))
		return
	}

	owner.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateOwner(r.Context(), owner); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, owner)
}

// handleDeleteOwner removes an owner record and its stored photo.
// DELETE /api/v1/owners/{id}
func (s *Server) handleDeleteOwner(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	owner, err := s.store.GetOwner(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if owner == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("owner", id))
		return
	}

	if err := s.store.DeleteOwner(r.Context(), id); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if s.photos != nil && owner.PhotoFile != "" {
		if err := s.photos.Delete(owner.PhotoFile); err != nil {
			s.logger.Warn("delete photo failed", "owner", id, "error", err)
		}
	}
	respondOK(w, reqID, map[string]string{"deleted": id})
}

// NewOwnerRef generates the short public id printed on owner cards.
func NewOwnerRef() string {
	return strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
}
