package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/messagely/internal/auth"
	"github.com/crucial707/messagely/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-for-integration"

type loginLog struct {
	mu    sync.Mutex
	names []string
}

func (l *loginLog) Record(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, username)
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    testSecret,
		BcryptCost:   bcrypt.MinCost,
		MaxBodyBytes: 1 << 20,
	}
}

// call sends a JSON request and decodes a JSON response into out (when non-nil).
func call(t *testing.T, srv *httptest.Server, method, path, token string, in, out interface{}) int {
	t.Helper()
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// TestAPI_AliceMessagesBob drives register, login, send and mark-read
// through the full router against a sqlmock-backed DB.
func TestAPI_AliceMessagesBob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	detailCols := []string{
		"id", "body", "sent_at", "read_at",
		"f_username", "f_first_name", "f_last_name", "f_phone",
		"t_username", "t_first_name", "t_last_name", "t_phone",
	}

	// 1) register alice
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", sqlmock.AnyArg(), "Alice", "Smith", "555-0100").
		WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name", "phone", "join_at", "last_login_at"}).
			AddRow("alice", "Alice", "Smith", "555-0100", now, now))
	// 2) login alice
	mock.ExpectQuery(`SELECT password FROM users`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(string(hash)))
	// 3) alice -> bob
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs("alice", "bob", "hi").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_username", "to_username", "body", "sent_at"}).
			AddRow(1, "alice", "bob", "hi", now))
	// 4) bob marks read
	mock.ExpectQuery(`SELECT m.id, m.body`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(detailCols).
			AddRow(1, "hi", now, nil, "alice", "Alice", "Smith", "555-0100", "bob", "Bob", "Jones", "555-0101"))
	mock.ExpectQuery(`UPDATE messages`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "read_at"}).AddRow(1, now))
	// 5) alice tries to mark read: lookup only
	mock.ExpectQuery(`SELECT m.id, m.body`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(detailCols).
			AddRow(1, "hi", now, now, "alice", "Alice", "Smith", "555-0100", "bob", "Bob", "Jones", "555-0101"))

	logins := &loginLog{}
	srv := httptest.NewServer(newRouter(db, testConfig(), logins))
	defer srv.Close()

	var tok struct {
		Token string `json:"token"`
	}
	status := call(t, srv, "POST", "/register", "", map[string]string{
		"username": "alice", "password": "password", "first_name": "Alice", "last_name": "Smith", "phone": "555-0100",
	}, &tok)
	if status != http.StatusOK || tok.Token == "" {
		t.Fatalf("register: status %d token %q", status, tok.Token)
	}

	tok.Token = ""
	status = call(t, srv, "POST", "/login", "", map[string]string{"username": "alice", "password": "password"}, &tok)
	if status != http.StatusOK || tok.Token == "" {
		t.Fatalf("login: status %d token %q", status, tok.Token)
	}
	aliceToken := tok.Token

	var sent struct {
		ID     int       `json:"id"`
		SentAt time.Time `json:"sent_at"`
	}
	status = call(t, srv, "POST", "/messages", aliceToken,
		map[string]string{"from_username": "alice", "to_username": "bob", "body": "hi"}, &sent)
	if status != http.StatusOK || sent.ID != 1 || sent.SentAt.IsZero() {
		t.Fatalf("send: status %d message %+v", status, sent)
	}

	bobToken, err := auth.NewIssuer([]byte(testSecret)).Issue("bob")
	if err != nil {
		t.Fatalf("issue bob token: %v", err)
	}
	var read struct {
		Message struct {
			ID     int        `json:"id"`
			ReadAt *time.Time `json:"read_at"`
		} `json:"message"`
	}
	status = call(t, srv, "POST", "/messages/1/read", bobToken, nil, &read)
	if status != http.StatusOK || read.Message.ID != 1 || read.Message.ReadAt == nil {
		t.Fatalf("bob mark read: status %d body %+v", status, read)
	}

	status = call(t, srv, "POST", "/messages/1/read", aliceToken, nil, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("alice mark read: got %d, want 401", status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}

	logins.mu.Lock()
	defer logins.mu.Unlock()
	if len(logins.names) != 1 || logins.names[0] != "alice" {
		t.Errorf("recorded logins: %v", logins.names)
	}
}

// TestAPI_ProtectedRoutesRequireToken checks that anonymous or forged
// requests never reach the handlers (no queries are expected).
func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, testConfig(), nil))
	defer srv.Close()

	forged, _ := auth.NewIssuer([]byte("some-other-secret")).Issue("alice")

	tests := []struct {
		method, path, token string
	}{
		{"GET", "/messages/1", ""},
		{"POST", "/messages", ""},
		{"POST", "/messages/1/read", ""},
		{"GET", "/users", ""},
		{"GET", "/users/alice", ""},
		{"GET", "/messages/1", forged},
		{"GET", "/users/alice/to", forged},
	}
	for _, tc := range tests {
		status := call(t, srv, tc.method, tc.path, tc.token, nil, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d, want 401", tc.method, tc.path, status)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_UserRoutesOnlyForSelf checks /users/{username} rejects other users.
func TestAPI_UserRoutesOnlyForSelf(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`WHERE m.from_username = \$1`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "body", "sent_at", "read_at", "username", "first_name", "last_name", "phone"}))

	srv := httptest.NewServer(newRouter(db, testConfig(), nil))
	defer srv.Close()

	bobToken, _ := auth.NewIssuer([]byte(testSecret)).Issue("bob")

	for _, path := range []string{"/users/alice", "/users/alice/to", "/users/alice/from"} {
		if status := call(t, srv, "GET", path, bobToken, nil, nil); status != http.StatusUnauthorized {
			t.Errorf("GET %s as bob: got %d, want 401", path, status)
		}
	}

	var out struct {
		Messages []interface{} `json:"messages"`
	}
	if status := call(t, srv, "GET", "/users/bob/from", bobToken, nil, &out); status != http.StatusOK {
		t.Errorf("GET /users/bob/from as bob: got %d, want 200", status)
	}
	if out.Messages == nil || len(out.Messages) != 0 {
		t.Errorf("expected empty message list, got %#v", out.Messages)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, testConfig(), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

// TestAPI_Ready checks that /ready reflects database reachability.
func TestAPI_Ready(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	srv := httptest.NewServer(newRouter(db, testConfig(), nil))
	defer srv.Close()

	get := func() int {
		resp, err := http.Get(srv.URL + "/ready")
		if err != nil {
			t.Fatalf("ready request: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := get(); status != http.StatusOK {
		t.Errorf("GET /ready with open DB: got %d, want 200", status)
	}

	db.Close()
	if status := get(); status != http.StatusServiceUnavailable {
		t.Errorf("GET /ready with closed DB: got %d, want 503", status)
	}
}

// TestAPI_Metrics checks the Prometheus endpoint is mounted.
func TestAPI_Metrics(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, testConfig(), nil))
	defer srv.Close()

	// Generate one request so the HTTP series exist.
	if resp, err := http.Get(srv.URL + "/health"); err == nil {
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("http_requests_total")) {
		t.Errorf("metrics output missing http_requests_total")
	}
}
