package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmanCrafts/CraftBook/internal/config"
	"github.com/AmanCrafts/CraftBook/internal/server"
)

const publicBaseURL = "http://craftbook.test"

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testServer struct {
	t *testing.T
	h http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Port:           3000,
		Env:            "test",
		LogLevel:       "error",
		DBPath:         ":memory:",
		JWTSecret:      "test-secret-at-least-16",
		JWTTTL:         time.Hour,
		CORSOrigin:     "*",
		UploadDir:      t.TempDir(),
		PublicBaseURL:  publicBaseURL,
		MaxUploadBytes: 1 << 20,
	}
	srv, err := server.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return &testServer{t: t, h: srv.Handler()}
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.h.ServeHTTP(rr, req)
	return rr
}

// register signs up name@example.com and returns the user id and token.
func (ts *testServer) register(name string) (string, string) {
	ts.t.Helper()
	rr := ts.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    name + "@example.com",
		"password": "secret123",
		"name":     name,
	})
	require.Equal(ts.t, http.StatusCreated, rr.Code, rr.Body.String())
	var res struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	decode(ts.t, rr, &res)
	return res.User.ID, res.Token
}

func (ts *testServer) createPost(token, title string) string {
	ts.t.Helper()
	rr := ts.do(http.MethodPost, "/api/posts", token, map[string]any{
		"title":    title,
		"imageUrl": "https://img.example/" + title + ".png",
		"tags":     []string{"ink"},
		"medium":   "ink",
	})
	require.Equal(ts.t, http.StatusCreated, rr.Code, rr.Body.String())
	var post struct{ ID string }
	decode(ts.t, rr, &post)
	return post.ID
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	decode(t, rr, &body)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestStatusCodes(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.register("alice")
	bobID, bob := ts.register("bob")
	postID := ts.createPost(alice, "sunset")

	rr := ts.do(http.MethodPost, "/api/posts/"+postID+"/comments", bob, map[string]string{"content": "lovely"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var comment struct{ ID string }
	decode(t, rr, &comment)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		kind   string
	}{
		{"unknown post", http.MethodGet, "/api/posts/nope", "", nil, http.StatusNotFound, "not_found"},
		{"unknown user", http.MethodGet, "/api/users/nope", "", nil, http.StatusNotFound, "not_found"},
		{"create post without token", http.MethodPost, "/api/posts", "", map[string]string{"title": "x"}, http.StatusUnauthorized, "unauthorized"},
		{"garbage token", http.MethodGet, "/api/auth/me", "not-a-jwt", nil, http.StatusUnauthorized, "unauthorized"},
		{"post without title", http.MethodPost, "/api/posts", alice, map[string]string{"imageUrl": "u"}, http.StatusBadRequest, "validation"},
		{"follow self", http.MethodPost, "/api/users/" + aliceID + "/follow", alice, nil, http.StatusBadRequest, "invalid_operation"},
		{"follow unknown user", http.MethodPost, "/api/users/nope/follow", alice, nil, http.StatusNotFound, "not_found"},
		{"like unknown post", http.MethodPost, "/api/posts/nope/like", alice, nil, http.StatusNotFound, "not_found"},
		{"edit someone else's comment", http.MethodPut, "/api/comments/" + comment.ID, alice, map[string]string{"content": "mine now"}, http.StatusForbidden, "forbidden"},
		{"empty edit of someone else's comment", http.MethodPut, "/api/comments/" + comment.ID, alice, map[string]string{"content": ""}, http.StatusForbidden, "forbidden"},
		{"delete someone else's comment", http.MethodDelete, "/api/comments/" + comment.ID, alice, nil, http.StatusForbidden, "forbidden"},
		{"edit someone else's post", http.MethodPut, "/api/posts/" + postID, bob, map[string]string{"title": "mine"}, http.StatusForbidden, "forbidden"},
		{"update another user", http.MethodPut, "/api/users/" + bobID, alice, map[string]string{"name": "Bobby"}, http.StatusForbidden, "forbidden"},
		{"delete another user", http.MethodDelete, "/api/users/" + bobID, alice, nil, http.StatusForbidden, "forbidden"},
		{"duplicate registration", http.MethodPost, "/api/auth/register", "", map[string]string{"email": "alice@example.com", "password": "secret123", "name": "A"}, http.StatusConflict, "conflict"},
		{"wrong password", http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "nope-nope"}, http.StatusUnauthorized, "unauthorized"},
		{"unknown cursor", http.MethodGet, "/api/posts/recent?cursor=nope", "", nil, http.StatusBadRequest, "validation"},
		{"non-numeric limit", http.MethodGet, "/api/posts/popular?limit=ten", "", nil, http.StatusBadRequest, "validation"},
		{"upload without multipart", http.MethodPost, "/api/upload", alice, map[string]string{"image": "x"}, http.StatusBadRequest, "validation"},
		{"google sign-in not configured", http.MethodGet, "/api/auth/google/login", "", nil, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(tt.method, tt.path, tt.token, tt.body)

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			var body map[string]any
			decode(t, rr, &body)
			assert.Equal(t, tt.kind, body["error"])
			assert.NotEmpty(t, body["details"])
		})
	}
}

func TestLikeCommentAndFollowFlow(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.register("alice")
	bobID, bob := ts.register("bob")
	postID := ts.createPost(alice, "sunset")

	rr := ts.do(http.MethodPost, "/api/posts/"+postID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var liked map[string]any
	decode(t, rr, &liked)
	assert.Equal(t, true, liked["liked"])
	assert.Equal(t, "added", liked["action"])

	rr = ts.do(http.MethodGet, "/api/posts/"+postID+"/likes/check/"+bobID, "", nil)
	assert.JSONEq(t, `{"liked":true}`, rr.Body.String())

	rr = ts.do(http.MethodPost, "/api/posts/"+postID+"/comments", bob, map[string]string{"content": "  lovely  "})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(http.MethodGet, "/api/posts/"+postID, "", nil)
	var post struct {
		LikeCount    int `json:"likeCount"`
		CommentCount int `json:"commentCount"`
		Author       struct{ Name string }
	}
	decode(t, rr, &post)
	assert.Equal(t, 1, post.LikeCount)
	assert.Equal(t, 1, post.CommentCount)
	assert.Equal(t, "alice", post.Author.Name)

	rr = ts.do(http.MethodGet, "/api/posts/"+postID+"/comments", "", nil)
	var comments struct {
		Count    int `json:"count"`
		Comments []struct {
			Content string
			Author  struct{ ID string }
		} `json:"comments"`
	}
	decode(t, rr, &comments)
	require.Equal(t, 1, comments.Count)
	assert.Equal(t, "lovely", comments.Comments[0].Content)
	assert.Equal(t, bobID, comments.Comments[0].Author.ID)

	// unlike
	rr = ts.do(http.MethodPost, "/api/posts/"+postID+"/like", bob, nil)
	decode(t, rr, &liked)
	assert.Equal(t, false, liked["liked"])
	assert.Equal(t, "removed", liked["action"])

	rr = ts.do(http.MethodPost, "/api/users/"+aliceID+"/follow", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"isFollowing":true,"action":"added"}`, rr.Body.String())

	rr = ts.do(http.MethodGet, "/api/users/"+aliceID+"/follow-stats", "", nil)
	assert.JSONEq(t, `{"followers":1,"following":0}`, rr.Body.String())

	rr = ts.do(http.MethodPost, "/api/users/follow/check-batch", "", map[string]any{
		"followerId": bobID,
		"userIds":    []string{aliceID, "someone-else"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"`+aliceID+`":true,"someone-else":false}`, rr.Body.String())

	rr = ts.do(http.MethodGet, "/api/posts/following", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var feed []struct{ ID string }
	decode(t, rr, &feed)
	require.Len(t, feed, 1)
	assert.Equal(t, postID, feed[0].ID)
}

func TestLikeCheckForCaller(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.register("alice")
	_, bob := ts.register("bob")
	postID := ts.createPost(alice, "sunset")

	rr := ts.do(http.MethodPost, "/api/posts/"+postID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"caller liked", bob, `{"liked":true}`},
		{"caller did not like", alice, `{"liked":false}`},
		{"anonymous", "", `{"liked":false}`},
		{"bad token is anonymous", "not-a-jwt", `{"liked":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(http.MethodGet, "/api/posts/"+postID+"/likes/check", tt.token, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.JSONEq(t, tt.want, rr.Body.String())
		})
	}
}

func TestPostListingRoutes(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.register("alice")
	ts.createPost(alice, "harbour")
	ts.createPost(alice, "meadow")

	for _, path := range []string{
		"/api/posts",
		"/api/posts/user/" + aliceID,
		"/api/posts/tag/ink",
		"/api/posts/medium/ink",
		"/api/posts/tag/ink/medium/ink",
	} {
		rr := ts.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
		var posts []struct{ Title string }
		decode(t, rr, &posts)
		assert.Len(t, posts, 2, path)
		assert.Equal(t, "meadow", posts[0].Title, "newest first on %s", path)
	}

	rr := ts.do(http.MethodGet, "/api/posts/search/title/ARBO", "", nil)
	var found []struct{ Title string }
	decode(t, rr, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "harbour", found[0].Title)

	rr = ts.do(http.MethodGet, "/api/posts/recent?limit=1", "", nil)
	var page struct {
		Posts      []struct{ Title string } `json:"posts"`
		NextCursor *string                  `json:"nextCursor"`
		HasMore    bool                     `json:"hasMore"`
	}
	decode(t, rr, &page)
	require.Len(t, page.Posts, 1)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)

	rr = ts.do(http.MethodGet, "/api/posts/recent?limit=1&cursor="+*page.NextCursor, "", nil)
	decode(t, rr, &page)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "harbour", page.Posts[0].Title)
	assert.False(t, page.HasMore)
}

func TestDeleteAccountCascades(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.register("alice")
	bobID, bob := ts.register("bob")
	alicePost := ts.createPost(alice, "sunset")
	bobPost := ts.createPost(bob, "harbour")

	ts.do(http.MethodPost, "/api/posts/"+bobPost+"/like", alice, nil)
	ts.do(http.MethodPost, "/api/posts/"+bobPost+"/comments", alice, map[string]string{"content": "nice"})
	ts.do(http.MethodPost, "/api/users/"+bobID+"/follow", alice, nil)
	ts.do(http.MethodPost, "/api/posts/"+alicePost+"/like", bob, nil)

	rr := ts.do(http.MethodDelete, "/api/users/"+aliceID, alice, nil)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/users/"+aliceID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/posts/"+alicePost, "", nil).Code)

	rr = ts.do(http.MethodGet, "/api/posts/"+bobPost, "", nil)
	var post struct {
		LikeCount    int `json:"likeCount"`
		CommentCount int `json:"commentCount"`
	}
	decode(t, rr, &post)
	assert.Zero(t, post.LikeCount)
	assert.Zero(t, post.CommentCount)

	rr = ts.do(http.MethodGet, "/api/users/"+bobID+"/follow-stats", "", nil)
	assert.JSONEq(t, `{"followers":0,"following":0}`, rr.Body.String())

	// the token outlives the account but resolves to nobody
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/auth/me", alice, nil).Code)
}

func multipartImage(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) upload(token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	ts.h.ServeHTTP(rr, req)
	return rr
}

func TestUploadServeAndDelete(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.register("alice")

	body, ct := multipartImage(t, "my sketch.png", "image/png", pngHeader)
	rr := ts.upload(alice, body, ct)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		Success bool
		Image   struct {
			ID   string
			Name string
			URL  string
		}
	}
	decode(t, rr, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "my sketch.png", res.Image.Name)
	require.True(t, strings.HasPrefix(res.Image.URL, publicBaseURL+"/uploads/"), res.Image.URL)
	assert.True(t, strings.HasSuffix(res.Image.URL, "-my_sketch.png"), res.Image.URL)

	path := strings.TrimPrefix(res.Image.URL, publicBaseURL)
	served := ts.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, pngHeader, served.Body.Bytes())

	rr = ts.do(http.MethodDelete, "/api/upload/"+res.Image.ID, alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/upload/"+res.Image.ID, alice, nil).Code)
}

func TestUploadRejections(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.register("alice")

	tests := []struct {
		name        string
		filename    string
		contentType string
		content     []byte
		status      int
	}{
		{"declared non-image", "notes.txt", "text/plain", []byte("hello"), http.StatusBadRequest},
		{"text disguised as png", "fake.png", "image/png", []byte("just some text"), http.StatusBadRequest},
		{"too large", "big.png", "image/png", append(pngHeader, make([]byte, 1<<20)...), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartImage(t, tt.filename, tt.contentType, tt.content)
			rr := ts.upload(alice, body, ct)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}

	t.Run("no file", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("caption", "no image here"))
		require.NoError(t, mw.Close())

		rr := ts.upload(alice, &buf, mw.FormDataContentType())
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "no image file provided")
	})
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	ts.h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
