package handler

import (
	"net/http"

	"github.com/AmanCrafts/CraftBook/internal/auth"
	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/service"
)

type LikeHandler struct {
	base
	likes *service.LikeService
}

func NewLikeHandler(likes *service.LikeService, opts Options) *LikeHandler {
	return &LikeHandler{base: newBase(opts), likes: likes}
}

type likeToggleResponse struct {
	Liked  bool   `json:"liked"`
	Action string `json:"action"`
}

// HandleToggle likes or unlikes a post as the caller.
//
// HTTP: POST /api/posts/{postId}/like
func (h *LikeHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.likes.Toggle(r.Context(), userID, pathParam(r, "postId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likeToggleResponse{Liked: res.Active, Action: res.Action})
}

// HTTP: GET /api/posts/{postId}/likes
func (h *LikeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	likes, err := h.likes.ListByPost(r.Context(), pathParam(r, "postId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if likes == nil {
		likes = []model.Like{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(likes), "likes": likes})
}

// HandleCheck reports whether a user liked a post. Without a {userId}
// segment it checks the caller, and an anonymous caller has liked nothing.
//
// HTTP: GET /api/posts/{postId}/likes/check/{userId}
// HTTP: GET /api/posts/{postId}/likes/check
func (h *LikeHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "userId")
	if userID == "" {
		id, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusOK, map[string]bool{"liked": false})
			return
		}
		userID = id
	}

	liked, err := h.likes.HasLiked(r.Context(), userID, pathParam(r, "postId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}
