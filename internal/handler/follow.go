package handler

import (
	"net/http"

	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/service"
)

type FollowHandler struct {
	base
	follows *service.FollowService
}

func NewFollowHandler(follows *service.FollowService, opts Options) *FollowHandler {
	return &FollowHandler{base: newBase(opts), follows: follows}
}

type followToggleResponse struct {
	IsFollowing bool   `json:"isFollowing"`
	Action      string `json:"action"`
}

type checkBatchRequest struct {
	FollowerID string   `json:"followerId" validate:"required"`
	UserIDs    []string `json:"userIds" validate:"required"`
}

// HandleToggle follows or unfollows {userId} as the caller.
//
// HTTP: POST /api/users/{userId}/follow
func (h *FollowHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	followerID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.follows.Toggle(r.Context(), followerID, pathParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, followToggleResponse{IsFollowing: res.Active, Action: res.Action})
}

// HTTP: GET /api/users/{userId}/follow/check/{followerId}
func (h *FollowHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ok, err := h.follows.IsFollowing(r.Context(), pathParam(r, "followerId"), pathParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isFollowing": ok})
}

// HandleCheckBatch answers "does followerId follow X" for many X at once.
//
// HTTP: POST /api/users/follow/check-batch
func (h *FollowHandler) HandleCheckBatch(w http.ResponseWriter, r *http.Request) {
	var req checkBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.follows.CheckBatch(r.Context(), req.FollowerID, req.UserIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HTTP: GET /api/users/{userId}/followers
func (h *FollowHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	users, err := h.follows.Followers(r.Context(), pathParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	users = nonNilSummaries(users)
	writeJSON(w, http.StatusOK, map[string]any{"count": len(users), "followers": users})
}

// HTTP: GET /api/users/{userId}/following
func (h *FollowHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	users, err := h.follows.Following(r.Context(), pathParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	users = nonNilSummaries(users)
	writeJSON(w, http.StatusOK, map[string]any{"count": len(users), "following": users})
}

// HTTP: GET /api/users/{userId}/follow-stats
func (h *FollowHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.follows.Stats(r.Context(), pathParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func nonNilSummaries(users []model.UserSummary) []model.UserSummary {
	if users == nil {
		return []model.UserSummary{}
	}
	return users
}
