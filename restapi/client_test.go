package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	authware "github.com/authware/authware-go"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recordedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   []byte
	header http.Header
}

func newRecordingServer(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestLogin(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK,
		`{"access_token":"t1","user":{"id":"user-1","email":"ada@example.com","role":"user"}}`)
	c := NewClient(srv.URL)

	res, err := c.Login(context.Background(), authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "secret123",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if rec.method != http.MethodPost || rec.path != "/api/auth/login" {
		t.Errorf("request = %s %s, want POST /api/auth/login", rec.method, rec.path)
	}
	var sent map[string]string
	if err := json.Unmarshal(rec.body, &sent); err != nil {
		t.Fatalf("request body not JSON: %v", err)
	}
	if sent["email"] != "ada@example.com" {
		t.Errorf("email field = %q, want %q", sent["email"], "ada@example.com")
	}
	if res.AccessToken != "t1" {
		t.Errorf("access token = %q, want %q", res.AccessToken, "t1")
	}
	if res.User == nil || res.User.ID != "user-1" {
		t.Errorf("user = %+v, want user-1", res.User)
	}
}

func TestLogin_ServerErrorMessage(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusUnauthorized,
		`{"message":"Invalid email or password"}`)
	c := NewClient(srv.URL)

	_, err := c.Login(context.Background(), authware.Credentials{
		Identifier: "ada@example.com",
		Password:   "wrong",
	})
	var apiErr *authware.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *authware.APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", apiErr.StatusCode, http.StatusUnauthorized)
	}
	if apiErr.Message != "Invalid email or password" {
		t.Errorf("message = %q, want the server's message", apiErr.Message)
	}
}

func TestGoogleLogin_SendsTokenID(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK,
		`{"user":{"email":"new@example.com"},"status_code":201}`)
	c := NewClient(srv.URL)

	res, err := c.GoogleLogin(context.Background(), "google-id-token")
	if err != nil {
		t.Fatalf("GoogleLogin() error = %v", err)
	}

	if rec.path != "/api/auth/googlelogin" {
		t.Errorf("path = %q, want /api/auth/googlelogin", rec.path)
	}
	var sent map[string]string
	if err := json.Unmarshal(rec.body, &sent); err != nil {
		t.Fatalf("request body not JSON: %v", err)
	}
	if sent["tokenId"] != "google-id-token" {
		t.Errorf("tokenId field = %q, want %q", sent["tokenId"], "google-id-token")
	}
	if res.StatusCode != 201 {
		t.Errorf("status_code = %d, want 201", res.StatusCode)
	}
	if res.AccessToken != "" {
		t.Errorf("access token = %q, want empty for needs-setup", res.AccessToken)
	}
}

func TestProfile(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK,
		`{"user":{"id":"user-1","username":"ada"}}`)
	c := NewClient(srv.URL)

	user, err := c.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if rec.method != http.MethodGet || rec.path != "/api/auth/profile" {
		t.Errorf("request = %s %s, want GET /api/auth/profile", rec.method, rec.path)
	}
	if user.Username != "ada" {
		t.Errorf("username = %q, want %q", user.Username, "ada")
	}
}

func TestUpdateProfile_Multipart(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK,
		`{"user":{"id":"user-1","fullname":"Ada King","avatar":"/uploads/ada.png"}}`)
	c := NewClient(srv.URL)

	user, err := c.UpdateProfile(context.Background(), authware.ProfileUpdate{
		FullName:   "Ada King",
		AvatarName: "ada.png",
		Avatar:     []byte{0x89, 0x50, 0x4e, 0x47},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.FullName != "Ada King" {
		t.Errorf("full name = %q, want %q", user.FullName, "Ada King")
	}

	if rec.method != http.MethodPut || rec.path != "/api/auth/profile" {
		t.Errorf("request = %s %s, want PUT /api/auth/profile", rec.method, rec.path)
	}
	mediaType, params, err := mime.ParseMediaType(rec.header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("Content-Type = %q, want multipart/form-data", rec.header.Get("Content-Type"))
	}

	mr := multipart.NewReader(bytes.NewReader(rec.body), params["boundary"])
	fields := map[string]string{}
	var imageName string
	var imageBytes []byte
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading multipart body: %v", err)
		}
		data, _ := io.ReadAll(part)
		if part.FormName() == "profileImage" {
			imageName = part.FileName()
			imageBytes = data
			continue
		}
		fields[part.FormName()] = string(data)
	}

	if fields["fullname"] != "Ada King" {
		t.Errorf("fullname field = %q, want %q", fields["fullname"], "Ada King")
	}
	if imageName != "ada.png" {
		t.Errorf("image filename = %q, want %q", imageName, "ada.png")
	}
	if len(imageBytes) != 4 {
		t.Errorf("image part is %d bytes, want 4", len(imageBytes))
	}
}

func TestVerifyEmail_QueryParams(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL)

	if err := c.VerifyEmail(context.Background(), "ada@example.com", "v-token"); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if rec.method != http.MethodGet || rec.path != "/api/auth/verify-email" {
		t.Errorf("request = %s %s, want GET /api/auth/verify-email", rec.method, rec.path)
	}
	if rec.query != "email=ada%40example.com&token=v-token" {
		t.Errorf("query = %q, want email and token params", rec.query)
	}
}

func TestRefreshToken(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{"access_token":"t2"}`)
	c := NewClient(srv.URL, WithTokenSource(staticToken("t1")))

	token, err := c.RefreshToken(context.Background())
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if token != "t2" {
		t.Errorf("token = %q, want %q", token, "t2")
	}
	if rec.method != http.MethodPost || rec.path != "/api/auth/refresh_token" {
		t.Errorf("request = %s %s, want POST /api/auth/refresh_token", rec.method, rec.path)
	}
	if rec.auth != "Bearer t1" {
		t.Errorf("Authorization = %q, want the failing credential", rec.auth)
	}
}

func TestRefreshToken_EmptyResponse(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL)

	if _, err := c.RefreshToken(context.Background()); err == nil {
		t.Error("RefreshToken() = nil, want error for empty access_token")
	}
}

func TestListUsers_QuerySurface(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK,
		`{"users":[{"id":"user-1"}],"totalUsers":41,"totalPages":5,"currentPage":2}`)
	c := NewClient(srv.URL)

	page, err := c.ListUsers(context.Background(), authware.ListOptions{
		Page:      2,
		Limit:     10,
		Search:    "ada",
		Role:      authware.RoleAdmin,
		Status:    "active",
		SortBy:    "createdAt",
		SortOrder: "desc",
	})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}

	if rec.path != "/api/auth/users" {
		t.Errorf("path = %q, want /api/auth/users", rec.path)
	}
	want := "limit=10&page=2&role=admin&search=ada&sortBy=createdAt&sortOrder=desc&status=active"
	if rec.query != want {
		t.Errorf("query = %q, want %q", rec.query, want)
	}
	if page.TotalUsers != 41 || page.CurrentPage != 2 {
		t.Errorf("page = %+v, want totalUsers 41 currentPage 2", page)
	}
}

func TestListUsers_NilUsersBecomesEmpty(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, `{"totalUsers":0}`)
	c := NewClient(srv.URL)

	page, err := c.ListUsers(context.Background(), authware.ListOptions{})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if page.Users == nil {
		t.Error("Users slice is nil, want empty")
	}
}

func TestDeleteUser(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL)

	if err := c.DeleteUser(context.Background(), "user-9"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if rec.method != http.MethodDelete || rec.path != "/api/auth/users/user-9" {
		t.Errorf("request = %s %s, want DELETE /api/auth/users/user-9", rec.method, rec.path)
	}
}

func TestLogout(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL)

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/api/auth/logout" {
		t.Errorf("request = %s %s, want POST /api/auth/logout", rec.method, rec.path)
	}
}
