package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shebashongskar/apiserver/internal/services"
	"github.com/shebashongskar/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret"
	testPassword = "password123!"
)

// pngHeader is a valid PNG magic number; DetectContentType sniffs it as
// image/png regardless of the padding that follows.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

type testEnv struct {
	router   *chi.Mux
	users    *fakeUserRepo
	reports  *fakeReportRepo
	messages *fakeMessageRepo
	images   *fakeImageStore
	events   *fakeEventSink
	auth     *AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserRepo()
	reports := newFakeReportRepo(users)
	messages := newFakeMessageRepo(users)
	images := newFakeImageStore()
	events := &fakeEventSink{}

	userService := services.NewUserService(users)
	reportService := services.NewReportService(reports, users, images, events)
	messageService := services.NewMessageService(messages, users)

	authMiddleware := RequireAuth(testSecret)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret)
	})
	router.Route("/posts", func(r chi.Router) {
		ReportRouter(r, reportService, userService, authMiddleware)
	})
	router.Route("/chat", func(r chi.Router) {
		ChatRouter(r, messageService, userService, authMiddleware)
	})

	return &testEnv{
		router:   router,
		users:    users,
		reports:  reports,
		messages: messages,
		images:   images,
		events:   events,
		auth:     NewAuthHandler(userService, testSecret),
	}
}

// addUser seeds a user directly in the repository (bypassing registration,
// so admin accounts can be provisioned) and returns a valid token for it.
func (e *testEnv) addUser(t *testing.T, firstName, lastName, email, nid, role string) (types.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user, err := e.users.Create(context.Background(), types.User{
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Phone:            "01700000000",
		PoliceStation:    "Dhanmondi",
		NID:              nid,
		Birthdate:        time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC),
		Age:              36,
		PresentAddress:   "House 1, Road 2, Dhaka",
		PermanentAddress: "Village A, District B",
		PasswordHash:     string(hashed),
		Role:             role,
		Active:           true,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	token, err := e.auth.issueToken(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return e.do(t, method, path, token, bytes.NewReader(body), "application/json")
}

func itoa(id int) string {
	return strconv.Itoa(id)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var value T
	if err := json.Unmarshal(rec.Body.Bytes(), &value); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return value
}

// reportForm builds a multipart form for report creation. Each entry in
// imageSizes produces one PNG attachment of that total size.
func reportForm(t *testing.T, text, category string, imageSizes ...int) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if text != "" {
		_ = writer.WriteField(formFieldText, text)
	}
	if category != "" {
		_ = writer.WriteField(formFieldCategory, category)
	}
	for i, size := range imageSizes {
		part, err := writer.CreateFormFile(formFieldImages, "photo.png")
		if err != nil {
			t.Fatalf("create form file %d: %v", i, err)
		}
		if size < len(pngHeader) {
			size = len(pngHeader)
		}
		data := make([]byte, size)
		copy(data, pngHeader)
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file %d: %v", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}
