package web

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/database"
	"github.com/go-while/go-pugblog/internal/models"
)

func newTestServer(t *testing.T) *WebServer {
	t.Helper()
	dir := t.TempDir()

	dbConfig := database.DefaultDBConfig()
	dbConfig.DataDir = dir
	db, err := database.OpenDatabase(dbConfig)
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { db.Shutdown() })

	webConfig := &config.WebConfig{
		ListenPort:  11980,
		TemplateDir: "../../web/templates",
		StaticDir:   "../../web/static",
		UploadDir:   filepath.Join(dir, "uploads"),
	}

	srv := NewServer(db, webConfig)
	t.Cleanup(func() { srv.PageCache.Stop() })
	return srv
}

// postForm submits a form, optionally with a session cookie
func postForm(t *testing.T, srv *WebServer, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

// postMultipart submits a multipart form with an optional image file
func postMultipart(t *testing.T, srv *WebServer, path string, fields map[string]string, imageName string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("not really image data"))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func getPage(t *testing.T, srv *WebServer, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

// registerUser registers a new account and returns its session cookie
func registerUser(t *testing.T, srv *WebServer, username string) *http.Cookie {
	t.Helper()
	form := url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password1": {"secret123"},
		"password2": {"secret123"},
	}
	w := postForm(t, srv, "/register", form, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("register %s: code %d, body: %s", username, w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("register %s: no session cookie set", username)
	return nil
}

func TestRegisterLogin(t *testing.T) {
	srv := newTestServer(t)

	cookie := registerUser(t, srv, "alice")
	if cookie == nil {
		t.Fatal("no cookie")
	}

	// Logout
	w := getPage(t, srv, "/logout", cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("logout code %d", w.Code)
	}

	// Login again
	form := url.Values{"username": {"alice"}, "password": {"secret123"}}
	w = postForm(t, srv, "/login", form, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login code %d, body: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("login redirect = %q, want /", loc)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice")

	form := url.Values{"username": {"alice"}, "password": {"wrongpass"}}
	w := postForm(t, srv, "/login", form, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad password, got %d", w.Code)
	}
}

func TestLoginNextParam(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice")

	form := url.Values{"username": {"alice"}, "password": {"secret123"}, "next": {"/create/"}}
	w := postForm(t, srv, "/login", form, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/create/" {
		t.Errorf("login redirect = %q, want /create/", loc)
	}
}

func TestCreateRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	w := getPage(t, srv, "/create/", nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?next=/create/" {
		t.Errorf("redirect = %q, want /login?next=/create/", loc)
	}
}

func TestCreatePost(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerUser(t, srv, "alice")

	form := url.Values{"text": {"my first post"}}
	w := postForm(t, srv, "/create/", form, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create code %d, body: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/profile/alice/" {
		t.Errorf("create redirect = %q, want /profile/alice/", loc)
	}

	count, err := srv.DB.CountAllPosts()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("post count = %d, want 1", count)
	}

	post, err := srv.DB.GetPostByID(1)
	if err != nil {
		t.Fatal(err)
	}
	if post.Text != "my first post" {
		t.Errorf("post text = %q", post.Text)
	}
	if post.AuthorName != "alice" {
		t.Errorf("post author = %q, want alice", post.AuthorName)
	}
}

func TestCreatePostEmptyText(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerUser(t, srv, "alice")

	form := url.Values{"text": {"   "}}
	w := postForm(t, srv, "/create/", form, cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", w.Code)
	}

	count, _ := srv.DB.CountAllPosts()
	if count != 0 {
		t.Errorf("post count = %d, want 0", count)
	}
}

func TestEditPostByAuthor(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerUser(t, srv, "alice")

	postForm(t, srv, "/create/", url.Values{"text": {"original"}}, cookie)

	w := postForm(t, srv, "/posts/1/edit/", url.Values{"text": {"updated"}}, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("edit code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/posts/1/" {
		t.Errorf("edit redirect = %q, want /posts/1/", loc)
	}

	post, err := srv.DB.GetPostByID(1)
	if err != nil {
		t.Fatal(err)
	}
	if post.Text != "updated" {
		t.Errorf("post text = %q, want updated", post.Text)
	}
	if !post.IsEdited() {
		t.Error("edited post should have EditedAt set")
	}
}

func TestEditPostByNonAuthorSilentlyRedirects(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	postForm(t, srv, "/create/", url.Values{"text": {"alice post"}}, alice)

	bob := registerUser(t, srv, "bob")
	w := postForm(t, srv, "/posts/1/edit/", url.Values{"text": {"hijacked"}}, bob)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/posts/1/" {
		t.Errorf("redirect = %q, want /posts/1/", loc)
	}

	post, err := srv.DB.GetPostByID(1)
	if err != nil {
		t.Fatal(err)
	}
	if post.Text != "alice post" {
		t.Errorf("post text changed to %q, want unchanged", post.Text)
	}
	if post.IsEdited() {
		t.Error("post should not be marked edited")
	}
}

func TestEditReplacingImageRemovesOldFile(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")

	w := postMultipart(t, srv, "/create/", map[string]string{"text": "with image"}, "cat.png", alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create code %d, body: %s", w.Code, w.Body.String())
	}

	post, err := srv.DB.GetPostByID(1)
	if err != nil {
		t.Fatal(err)
	}
	if post.ImagePath == "" {
		t.Fatal("post has no stored image")
	}
	oldFile := filepath.Join(srv.Config.UploadDir, post.ImagePath)
	if _, err := os.Stat(oldFile); err != nil {
		t.Fatalf("uploaded image not on disk: %v", err)
	}

	w = postMultipart(t, srv, "/posts/1/edit/", map[string]string{"text": "with new image"}, "dog.png", alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("edit code %d, body: %s", w.Code, w.Body.String())
	}

	updated, err := srv.DB.GetPostByID(1)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ImagePath == "" || updated.ImagePath == post.ImagePath {
		t.Fatalf("image not replaced, path = %q", updated.ImagePath)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("replaced image left behind on disk")
	}
	newFile := filepath.Join(srv.Config.UploadDir, updated.ImagePath)
	if _, err := os.Stat(newFile); err != nil {
		t.Errorf("new image missing from disk: %v", err)
	}
}

func TestGuestCommentRedirectsToLogin(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	postForm(t, srv, "/create/", url.Values{"text": {"a post"}}, alice)

	w := postForm(t, srv, "/posts/1/comment/", url.Values{"text": {"guest comment"}}, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?next=/posts/1/comment/" {
		t.Errorf("redirect = %q", loc)
	}

	count, _ := srv.DB.CountCommentsByPost(1)
	if count != 0 {
		t.Errorf("comment count = %d, want 0", count)
	}
}

func TestAddComment(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	postForm(t, srv, "/create/", url.Values{"text": {"a post"}}, alice)

	bob := registerUser(t, srv, "bob")
	w := postForm(t, srv, "/posts/1/comment/", url.Values{"text": {"nice post"}}, bob)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("comment code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/posts/1/" {
		t.Errorf("redirect = %q, want /posts/1/", loc)
	}

	comments, err := srv.DB.GetCommentsByPost(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 {
		t.Fatalf("comment count = %d, want 1", len(comments))
	}
	if comments[0].AuthorName != "bob" {
		t.Errorf("comment author = %q, want bob", comments[0].AuthorName)
	}
}

func TestEmptyCommentSilentlyDropped(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	postForm(t, srv, "/create/", url.Values{"text": {"a post"}}, alice)

	w := postForm(t, srv, "/posts/1/comment/", url.Values{"text": {"   "}}, alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}

	count, _ := srv.DB.CountCommentsByPost(1)
	if count != 0 {
		t.Errorf("comment count = %d, want 0", count)
	}
}

func TestFollowIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	registerUser(t, srv, "bob")

	for i := 0; i < 2; i++ {
		w := getPage(t, srv, "/profile/bob/follow/", alice)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("follow code %d", w.Code)
		}
	}

	bob, _ := srv.DB.GetUserByUsername("bob")
	count, err := srv.DB.CountFollowers(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("follower count = %d, want 1 after double follow", count)
	}
}

func TestFollowViaPost(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	registerUser(t, srv, "bob")

	w := postForm(t, srv, "/profile/bob/follow/", url.Values{}, alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("follow via POST code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/profile/bob/" {
		t.Errorf("redirect = %q, want /profile/bob/", loc)
	}

	bob, _ := srv.DB.GetUserByUsername("bob")
	count, err := srv.DB.CountFollowers(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("follower count = %d, want 1", count)
	}
}

func TestSelfFollowIsNoop(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")

	w := getPage(t, srv, "/profile/alice/follow/", alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("self-follow code %d", w.Code)
	}

	user, _ := srv.DB.GetUserByUsername("alice")
	count, _ := srv.DB.CountFollowers(user.ID)
	if count != 0 {
		t.Errorf("follower count = %d, want 0 after self-follow", count)
	}
}

func TestUnfollowMissingEdgeIsNoop(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	registerUser(t, srv, "bob")

	w := getPage(t, srv, "/profile/bob/unfollow/", alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("unfollow code %d", w.Code)
	}
}

func TestFollowFeedShowsOnlyFollowedAuthors(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")
	carol := registerUser(t, srv, "carol")

	postForm(t, srv, "/create/", url.Values{"text": {"from bob"}}, bob)
	postForm(t, srv, "/create/", url.Values{"text": {"from carol"}}, carol)

	getPage(t, srv, "/profile/bob/follow/", alice)

	aliceUser, _ := srv.DB.GetUserByUsername("alice")
	count, err := srv.DB.CountFeedPosts(aliceUser.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("feed count = %d, want 1", count)
	}

	w := getPage(t, srv, "/follow/", alice)
	if w.Code != http.StatusOK {
		t.Fatalf("feed page code %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "from bob") {
		t.Error("feed missing followed author's post")
	}
	if strings.Contains(body, "from carol") {
		t.Error("feed contains unfollowed author's post")
	}
}

func TestPagination(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerUser(t, srv, "alice")

	user, _ := srv.DB.GetUserByUsername("alice")
	for i := 1; i <= 15; i++ {
		post := &models.Post{
			Text:     fmt.Sprintf("post number %d", i),
			AuthorID: user.ID,
		}
		if _, err := srv.DB.InsertPost(post); err != nil {
			t.Fatal(err)
		}
	}

	// Page 1 holds the 10 newest, page 2 the remaining 5
	page1, err := srv.DB.GetPostsPage(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page1) != 10 {
		t.Errorf("page 1 length = %d, want 10", len(page1))
	}
	if page1[0].Text != "post number 15" {
		t.Errorf("first post = %q, want newest", page1[0].Text)
	}

	page2, err := srv.DB.GetPostsPage(2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page2) != 5 {
		t.Errorf("page 2 length = %d, want 5", len(page2))
	}

	// HTTP level: out-of-range page lands on the last valid page
	w := getPage(t, srv, "/profile/alice/?page=99", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("profile page code %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "post number 1") {
		t.Error("clamped page should show the oldest posts")
	}
}

func TestPostDetailNotFound(t *testing.T) {
	srv := newTestServer(t)

	w := getPage(t, srv, "/posts/9999/", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv := newTestServer(t)

	w := getPage(t, srv, "/no/such/page/", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGroupPage(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerUser(t, srv, "alice")

	group := &models.Group{Title: "Cats", Slug: "cats", Description: "cat pictures"}
	if _, err := srv.DB.InsertGroup(group); err != nil {
		t.Fatal(err)
	}

	form := url.Values{"text": {"a cat post"}, "group": {fmt.Sprintf("%d", group.ID)}}
	w := postForm(t, srv, "/create/", form, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create code %d", w.Code)
	}

	w = getPage(t, srv, "/group/cats/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("group page code %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "a cat post") {
		t.Error("group page missing post")
	}

	w = getPage(t, srv, "/group/dogs/", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown group: expected 404, got %d", w.Code)
	}
}

func TestIndexPageCache(t *testing.T) {
	srv := newTestServer(t)

	w := getPage(t, srv, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("index code %d", w.Code)
	}
	if got := w.Header().Get("X-Page-Cache"); got != "MISS" {
		t.Errorf("first request X-Page-Cache = %q, want MISS", got)
	}

	w = getPage(t, srv, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("index code %d", w.Code)
	}
	if got := w.Header().Get("X-Page-Cache"); got != "HIT" {
		t.Errorf("second request X-Page-Cache = %q, want HIT", got)
	}
}

func TestIndexCacheBypassedForSessions(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")

	// A logged-in view must never be cached or served from cache
	w := getPage(t, srv, "/", alice)
	if w.Code != http.StatusOK {
		t.Fatalf("index code %d", w.Code)
	}
	if got := w.Header().Get("X-Page-Cache"); got != "" {
		t.Errorf("session request X-Page-Cache = %q, want no header", got)
	}
	if !strings.Contains(w.Body.String(), "alice") {
		t.Error("logged-in index should show the viewer's nav")
	}

	// The guest view is cached, and it is the guest rendering
	w = getPage(t, srv, "/", nil)
	if got := w.Header().Get("X-Page-Cache"); got != "MISS" {
		t.Errorf("guest request X-Page-Cache = %q, want MISS", got)
	}

	w = getPage(t, srv, "/", nil)
	if got := w.Header().Get("X-Page-Cache"); got != "HIT" {
		t.Errorf("second guest request X-Page-Cache = %q, want HIT", got)
	}
	body := w.Body.String()
	if strings.Contains(body, "alice") {
		t.Error("cached guest page contains another user's identity")
	}
	if !strings.Contains(body, "Login") {
		t.Error("cached guest page missing guest nav")
	}

	// And the cached guest page is never served to a session
	w = getPage(t, srv, "/", alice)
	if got := w.Header().Get("X-Page-Cache"); got != "" {
		t.Errorf("session request after caching X-Page-Cache = %q, want no header", got)
	}
	if !strings.Contains(w.Body.String(), "alice") {
		t.Error("session request was served the guest page")
	}
}

func TestIndexCacheVariesByPage(t *testing.T) {
	srv := newTestServer(t)

	getPage(t, srv, "/", nil)
	w := getPage(t, srv, "/?page=2", nil)
	if got := w.Header().Get("X-Page-Cache"); got != "MISS" {
		t.Errorf("different query should miss, got %q", got)
	}
}

func TestProfileNotFound(t *testing.T) {
	srv := newTestServer(t)

	w := getPage(t, srv, "/profile/ghost/", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAdminRequiresPermission(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice") // user ID 1, implicit admin
	bob := registerUser(t, srv, "bob")

	w := getPage(t, srv, "/admin/", bob)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
}

func TestAdminFirstUserHasAccess(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")

	w := getPage(t, srv, "/admin/", alice)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for first user, got %d, body: %s", w.Code, w.Body.String())
	}
}

func TestAdminCreateGroup(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")

	form := url.Values{"title": {"Dog Pictures"}}
	w := postForm(t, srv, "/admin/groups", form, alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create group code %d", w.Code)
	}

	group, err := srv.DB.GetGroupBySlug("dog-pictures")
	if err != nil {
		t.Fatalf("group not created: %v", err)
	}
	if group.Title != "Dog Pictures" {
		t.Errorf("group title = %q", group.Title)
	}
}

func TestRegistrationToggle(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")

	w := postForm(t, srv, "/admin/registration/disable", url.Values{}, alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("disable code %d", w.Code)
	}

	form := url.Values{
		"username":  {"bob"},
		"email":     {"bob@example.com"},
		"password1": {"secret123"},
		"password2": {"secret123"},
	}
	w = postForm(t, srv, "/register", form, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with registration disabled, got %d", w.Code)
	}

	w = postForm(t, srv, "/admin/registration/enable", url.Values{}, alice)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("enable code %d", w.Code)
	}

	registerUser(t, srv, "bob")
}
