package messages

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/messagely/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func loginAs(t *testing.T, username string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": username}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".messagely_token"), []byte(token), 0o600); err != nil {
		t.Fatal(err)
	}
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSend_UsesTokenUserAsSender(t *testing.T) {
	loginAs(t, "alice")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var in models.NewMessage
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.FromUsername != "alice" || in.ToUsername != "bob" || in.Body != "hi" {
			t.Errorf("unexpected payload: %+v", in)
		}
		_ = json.NewEncoder(w).Encode(models.Message{ID: 3, FromUsername: "alice", ToUsername: "bob", Body: "hi", SentAt: time.Now()})
	}))
	defer srv.Close()
	t.Setenv("MESSAGELY_API_URL", srv.URL)

	out, err := execute(sendCmd(), "--to", "bob", "--body", "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out, "Message 3 sent to bob") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestRead_PrintsReceipt(t *testing.T) {
	loginAs(t, "bob")
	readAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages/3/read" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": models.ReadReceipt{ID: 3, ReadAt: &readAt},
		})
	}))
	defer srv.Close()
	t.Setenv("MESSAGELY_API_URL", srv.URL)

	out, err := execute(readCmd(), "3")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(out, "Message 3 marked read at 2024-05-01 10:00:00") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestShow_Unauthorized(t *testing.T) {
	loginAs(t, "mallory")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()
	t.Setenv("MESSAGELY_API_URL", srv.URL)

	_, err := execute(showCmd(), "3")
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestShow_RejectsBadID(t *testing.T) {
	loginAs(t, "bob")

	_, err := execute(showCmd(), "abc")
	if err == nil || !strings.Contains(err.Error(), "invalid message id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}
