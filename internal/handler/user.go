package handler

import (
	"net/http"

	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/service"
)

type UserHandler struct {
	base
	users *service.UserService
}

func NewUserHandler(users *service.UserService, opts Options) *UserHandler {
	return &UserHandler{base: newBase(opts), users: users}
}

type createUserRequest struct {
	GoogleID       string `json:"googleId"`
	Email          string `json:"email" validate:"required,email"`
	Name           string `json:"name" validate:"required"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
	Medium         string `json:"medium"`
}

// HandleList returns every user, newest first.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// HTTP: GET /api/users/{userId}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), pathParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HTTP: GET /api/users/google/{googleId}
func (h *UserHandler) HandleGetByGoogleID(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByExternalAuthID(r.Context(), pathParam(r, "googleId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCreate stores a profile for a federated sign-in.
//
// HTTP: POST /api/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.Create(r.Context(), service.NewProfile{
		ExternalAuthID: req.GoogleID,
		Email:          req.Email,
		Name:           req.Name,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		Medium:         req.Medium,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleUpdate edits the caller's own profile. Absent fields are unchanged.
//
// HTTP: PUT /api/users/{userId}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var upd model.UserUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.Update(r.Context(), userID, pathParam(r, "userId"), upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes the caller's account and all of its content.
//
// HTTP: DELETE /api/users/{userId}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), userID, pathParam(r, "userId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
