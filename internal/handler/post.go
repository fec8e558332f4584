package handler

import (
	"context"
	"net/http"

	"github.com/AmanCrafts/CraftBook/internal/model"
	"github.com/AmanCrafts/CraftBook/internal/service"
)

type PostHandler struct {
	base
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService, opts Options) *PostHandler {
	return &PostHandler{base: newBase(opts), posts: posts}
}

// createPostRequest is the body of POST /posts. Any authorId in the body is
// ignored; the author is always the caller.
type createPostRequest struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"imageUrl" validate:"required"`
	Tags          []string `json:"tags"`
	Medium        string   `json:"medium"`
	IsProcessPost bool     `json:"isProcessPost"`
}

// HTTP: POST /api/posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	authorID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	post, err := h.posts.Create(r.Context(), authorID, service.NewPost{
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Tags:          req.Tags,
		Medium:        req.Medium,
		IsProcessPost: req.IsProcessPost,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HTTP: GET /api/posts/{postId}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), pathParam(r, "postId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleRecent serves the cursor-paginated recency feed.
//
// HTTP: GET /api/posts/recent?limit=10&cursor=<last post id>
func (h *PostHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.posts.Recent(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandlePopular serves the like-ordered feed. Pages start at 1.
//
// HTTP: GET /api/posts/popular?limit=10&page=1
func (h *PostHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.posts.Popular(r.Context(), page, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// The listing endpoints differ only in how they pick posts.

// HTTP: GET /api/posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.posts.All)
}

// HTTP: GET /api/posts/process
func (h *PostHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.posts.ProcessPosts)
}

// HTTP: GET /api/posts/following
func (h *PostHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.list(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.Following(ctx, userID)
	})
}

// HTTP: GET /api/posts/user/{userId}
func (h *PostHandler) HandleByUser(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "userId")
	h.list(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.ByAuthor(ctx, userID)
	})
}

// HTTP: GET /api/posts/tag/{tag}
func (h *PostHandler) HandleByTag(w http.ResponseWriter, r *http.Request) {
	tag := pathParam(r, "tag")
	h.list(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.ByTag(ctx, tag)
	})
}

// HTTP: GET /api/posts/medium/{medium}
func (h *PostHandler) HandleByMedium(w http.ResponseWriter, r *http.Request) {
	medium := pathParam(r, "medium")
	h.list(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.ByMedium(ctx, medium)
	})
}

// HTTP: GET /api/posts/tag/{tag}/medium/{medium}
func (h *PostHandler) HandleByTagAndMedium(w http.ResponseWriter, r *http.Request) {
	tag, medium := pathParam(r, "tag"), pathParam(r, "medium")
	h.list(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.ByTagAndMedium(ctx, tag, medium)
	})
}

// HTTP: GET /api/posts/search/title/{title}
func (h *PostHandler) HandleSearchTitle(w http.ResponseWriter, r *http.Request) {
	q := pathParam(r, "title")
	h.list(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.SearchTitle(ctx, q)
	})
}

// HTTP: GET /api/posts/search/description/{description}
func (h *PostHandler) HandleSearchDescription(w http.ResponseWriter, r *http.Request) {
	q := pathParam(r, "description")
	h.list(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.SearchDescription(ctx, q)
	})
}

// HandleUpdate edits a post the caller wrote. Absent fields are unchanged.
//
// HTTP: PUT /api/posts/{postId}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var upd model.PostUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		h.fail(w, r, err)
		return
	}

	post, err := h.posts.Update(r.Context(), userID, pathParam(r, "postId"), upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post the caller wrote, with its likes and comments.
//
// HTTP: DELETE /api/posts/{postId}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.posts.Delete(r.Context(), userID, pathParam(r, "postId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) list(w http.ResponseWriter, r *http.Request, load func(context.Context) ([]model.Post, error)) {
	posts, err := load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}
