package handler

import (
	"net/http"

	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/service"
)

type CommentHandler struct {
	base
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService, opts Options) *CommentHandler {
	return &CommentHandler{base: newBase(opts), comments: comments}
}

// commentRequest has no validate tag on Content: the service trims and
// checks it, and must do so only after the ownership check on updates.
type commentRequest struct {
	Content string `json:"content"`
}

// HTTP: POST /api/posts/{postId}/comments
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), userID, pathParam(r, "postId"), req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// HandleList returns a post's comments, newest first.
//
// HTTP: GET /api/posts/{postId}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListByPost(r.Context(), pathParam(r, "postId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(comments), "comments": comments})
}

// HTTP: PUT /api/comments/{id}
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), pathParam(r, "id"), userID, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// HTTP: DELETE /api/comments/{id}
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.comments.Delete(r.Context(), pathParam(r, "id"), userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
