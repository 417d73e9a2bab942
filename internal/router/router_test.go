package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"time-ledger/internal/config"
	"time-ledger/internal/database"
	"time-ledger/internal/tracker"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{Path: filepath.Join(dir, "test.db")},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "time-ledger", ExpireHours: 1},
		Security: config.SecurityConfig{BcryptCost: 4, EncryptionKey: "test-key"},
		Backup:   config.BackupConfig{Dir: filepath.Join(dir, "backups")},
		App:      config.AppSubConfig{Timezone: "UTC"},
	}
	db, err := database.Init(cfg.Database)
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &testServer{t: t, engine: SetupRouter(cfg, db)}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

// login registers a user and returns a token.
func (s *testServer) login(username string) string {
	s.t.Helper()
	creds := gin.H{"username": username, "password": "password123"}
	if code, env := s.do(http.MethodPost, "/api/auth/register", "", creds); code != http.StatusOK {
		s.t.Fatalf("register = %d %s", code, env.Message)
	}
	code, env := s.do(http.MethodPost, "/api/auth/login", "", creds)
	if code != http.StatusOK {
		s.t.Fatalf("login = %d %s", code, env.Message)
	}
	return decode[struct {
		Token string `json:"token"`
	}](s.t, env.Data).Token
}

func (s *testServer) addClient(token, name string) tracker.Client {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/clients", token, gin.H{"name": name})
	if code != http.StatusOK {
		s.t.Fatalf("create client = %d %s", code, env.Message)
	}
	return decode[struct {
		Client tracker.Client `json:"client"`
	}](s.t, env.Data).Client
}

type entryData struct {
	Entry tracker.TimeEntry `json:"entry"`
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login("alice")

	code, env := s.do(http.MethodGet, "/api/me", token, nil)
	if code != http.StatusOK || env.Code != util.CodeOK {
		t.Fatalf("me = %d %+v", code, env)
	}

	// duplicate usernames are case insensitive
	code, env = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "ALICE", "password": "password123"})
	if code != http.StatusConflict || env.Code != util.CodeConflict {
		t.Errorf("duplicate register = %d %d", code, env.Code)
	}

	code, env = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong-password"})
	if code != http.StatusUnauthorized || env.Code != util.CodeAuth {
		t.Errorf("bad login = %d %d", code, env.Code)
	}

	if code, _ := s.do(http.MethodPost, "/api/auth/logout", token, nil); code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/me", token, nil); code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/me", "", nil); code != http.StatusUnauthorized {
		t.Errorf("me without token = %d, want 401", code)
	}
}

func TestClients(t *testing.T) {
	s := newTestServer(t)
	token := s.login("bob")

	acme := s.addClient(token, "Acme")
	if acme.Color != tracker.ClientColor("Acme") {
		t.Errorf("default color = %s, want %s", acme.Color, tracker.ClientColor("Acme"))
	}
	code, _ := s.do(http.MethodPost, "/api/clients", token, gin.H{"name": "Globex", "color": "red"})
	if code != http.StatusBadRequest {
		t.Errorf("bad color = %d, want 400", code)
	}
	s.addClient(token, "Globex")

	_, env := s.do(http.MethodGet, "/api/clients", token, nil)
	list := decode[struct {
		Items []tracker.Client `json:"items"`
	}](t, env.Data).Items
	if len(list) != 2 || list[0].Name != "Acme" {
		t.Errorf("clients = %+v, want creation order", list)
	}

	// clients are private
	other := s.login("carol")
	if code, _ := s.do(http.MethodDelete, "/api/clients/"+acme.ID, other, nil); code != http.StatusNotFound {
		t.Errorf("foreign delete = %d, want 404", code)
	}
}

// TestTimerLifecycle drives start, pause, resume and stop through PUT.
func TestTimerLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login("dave")
	client := s.addClient(token, "Acme")

	start := time.Now().Add(-time.Hour).UnixMilli()
	code, env := s.do(http.MethodPost, "/api/entries", token, gin.H{
		"task_name": "Design", "client_id": client.ID, "start_time": start,
		"target_duration": 7200, "comment": "  kickoff  ",
	})
	if code != http.StatusOK {
		t.Fatalf("start = %d %s", code, env.Message)
	}
	e := decode[entryData](t, env.Data).Entry
	if e.Comment != "kickoff" || e.Date != tracker.DateOf(start, time.UTC) {
		t.Errorf("created entry = %+v", e)
	}

	code, env = s.do(http.MethodPost, "/api/entries", token, gin.H{
		"task_name": "Other", "client_id": client.ID, "start_time": start,
	})
	if code != http.StatusConflict || env.Code != util.CodeConflict {
		t.Errorf("second active entry = %d %d, want 409", code, env.Code)
	}

	code, env = s.do(http.MethodGet, "/api/timer", token, nil)
	if code != http.StatusOK {
		t.Fatalf("timer = %d", code)
	}
	timer := decode[struct {
		State     string              `json:"state"`
		Effective int64               `json:"effective"`
		Goal      *tracker.GoalStatus `json:"goal"`
	}](t, env.Data)
	if timer.State != "running" || timer.Effective < 3599 || timer.Goal == nil || timer.Goal.Severity != tracker.SeverityWarning {
		t.Errorf("timer = %+v", timer)
	}

	// pause 10 minutes ago, resumed now: the interval folds into total pause
	e.IsPaused = true
	e.PausedAt = tracker.Int64(start + 50*60*1000)
	if code, env := s.do(http.MethodPut, "/api/entries/"+e.ID, token, e); code != http.StatusOK {
		t.Fatalf("pause = %d %s", code, env.Message)
	}
	e.IsPaused = false
	e.PausedAt = nil
	e.TotalPauseDuration = 600
	end := start + 60*60*1000
	e.EndTime = &end
	e.Duration = 1 // ignored, recomputed
	code, env = s.do(http.MethodPut, "/api/entries/"+e.ID, token, e)
	if code != http.StatusOK {
		t.Fatalf("stop = %d %s", code, env.Message)
	}
	stopped := decode[entryData](t, env.Data).Entry
	if stopped.Duration != 3000 || stopped.IsPaused {
		t.Errorf("stopped = %+v, want 3000s", stopped)
	}

	// completed entries cannot be reopened or lose pause time
	reopen := stopped
	reopen.EndTime = nil
	if code, _ := s.do(http.MethodPut, "/api/entries/"+e.ID, token, reopen); code != http.StatusBadRequest {
		t.Errorf("reopen = %d, want 400", code)
	}
	shrink := stopped
	shrink.TotalPauseDuration = 0
	if code, _ := s.do(http.MethodPut, "/api/entries/"+e.ID, token, shrink); code != http.StatusBadRequest {
		t.Errorf("pause decrease = %d, want 400", code)
	}

	_, env = s.do(http.MethodGet, "/api/timer", token, nil)
	if string(decode[map[string]json.RawMessage](t, env.Data)["entry"]) != "null" {
		t.Errorf("timer after stop = %s", env.Data)
	}

	// a new timer can start once the previous one stopped
	code, _ = s.do(http.MethodPost, "/api/entries", token, gin.H{
		"task_name": "Next", "client_id": client.ID, "start_time": time.Now().UnixMilli(),
	})
	if code != http.StatusOK {
		t.Errorf("start after stop = %d", code)
	}
}

func TestCreateEntry_Validation(t *testing.T) {
	s := newTestServer(t)
	token := s.login("erin")
	client := s.addClient(token, "Acme")
	start := time.Now().Add(-time.Hour).UnixMilli()

	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"blank task", gin.H{"task_name": " ", "client_id": client.ID, "start_time": start}, http.StatusBadRequest},
		{"no client", gin.H{"task_name": "x", "start_time": start}, http.StatusBadRequest},
		{"end before start", gin.H{"task_name": "x", "client_id": client.ID, "start_time": start, "end_time": start - 1}, http.StatusBadRequest},
		{"unknown client", gin.H{"task_name": "x", "client_id": "missing", "start_time": start, "end_time": start + 1000}, http.StatusNotFound},
		{"bad target", gin.H{"task_name": "x", "client_id": client.ID, "start_time": start, "target_duration": -5}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if code, env := s.do(http.MethodPost, "/api/entries", token, tc.body); code != tc.want {
			t.Errorf("%s: status = %d (%s), want %d", tc.name, code, env.Message, tc.want)
		}
	}
}

func TestBulkAndAnalytics(t *testing.T) {
	s := newTestServer(t)
	token := s.login("frank")
	acme := s.addClient(token, "Acme")
	globex := s.addClient(token, "Globex")

	day := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Hour).UnixMilli()
	entries := []gin.H{
		{"task_name": "Design", "client_id": acme.ID, "start_time": day, "end_time": day + 3600*1000},
		{"task_name": "Design", "client_id": acme.ID, "start_time": day + 2*3600*1000, "end_time": day + 3*3600*1000},
		{"task_name": "Support", "client_id": globex.ID, "start_time": day, "end_time": day + 1800*1000},
	}
	code, env := s.do(http.MethodPost, "/api/entries/bulk", token, gin.H{"entries": entries})
	if code != http.StatusOK {
		t.Fatalf("bulk = %d %s", code, env.Message)
	}

	// one bad record rejects the whole batch
	bad := append(entries[:1:1], gin.H{"task_name": "x", "client_id": "missing", "start_time": day, "end_time": day + 1})
	if code, _ := s.do(http.MethodPost, "/api/entries/bulk", token, gin.H{"entries": bad}); code != http.StatusNotFound {
		t.Errorf("bad bulk = %d, want 404", code)
	}

	code, env = s.do(http.MethodGet, "/api/analytics?filter=all", token, nil)
	if code != http.StatusOK {
		t.Fatalf("analytics = %d %s", code, env.Message)
	}
	got := decode[struct {
		Report      tracker.Report `json:"report"`
		RecentTasks []string       `json:"recent_tasks"`
	}](t, env.Data)
	if got.Report.Total != 9000 || len(got.Report.ClientGroups) != 2 || got.Report.ClientGroups[0].ClientID != acme.ID {
		t.Errorf("report = %+v", got.Report)
	}
	if len(got.RecentTasks) != 2 {
		t.Errorf("recent tasks = %v", got.RecentTasks)
	}

	if code, _ := s.do(http.MethodGet, "/api/analytics?filter=yesterday", token, nil); code != http.StatusBadRequest {
		t.Errorf("unknown filter = %d, want 400", code)
	}

	// deleting a client takes its entries along
	if code, _ := s.do(http.MethodDelete, "/api/clients/"+acme.ID, token, nil); code != http.StatusOK {
		t.Fatalf("delete client = %d", code)
	}
	_, env = s.do(http.MethodGet, "/api/entries", token, nil)
	list := decode[struct {
		Items []tracker.TimeEntry `json:"items"`
	}](t, env.Data).Items
	if len(list) != 1 || list[0].ClientID != globex.ID {
		t.Errorf("entries after client delete = %+v", list)
	}
}

func TestBackupRestoreAndHistory(t *testing.T) {
	s := newTestServer(t)
	token := s.login("grace")
	client := s.addClient(token, "Acme")
	start := time.Now().Add(-2 * time.Hour).UnixMilli()

	_, env := s.do(http.MethodPost, "/api/entries", token, gin.H{
		"task_name": "Design", "client_id": client.ID, "start_time": start,
		"end_time": start + 600*1000, "comment": "secret note",
	})
	e := decode[entryData](t, env.Data).Entry

	code, env := s.do(http.MethodPost, "/api/backups", token, nil)
	if code != http.StatusOK {
		t.Fatalf("backup = %d %s", code, env.Message)
	}
	backupID := decode[struct {
		Backup struct {
			ID uint `json:"id"`
		} `json:"backup"`
	}](t, env.Data).Backup.ID

	if code, _ := s.do(http.MethodDelete, "/api/entries/"+e.ID, token, nil); code != http.StatusOK {
		t.Fatalf("delete entry = %d", code)
	}
	if code, _ := s.do(http.MethodDelete, "/api/entries/"+e.ID, token, nil); code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", code)
	}

	if code, env := s.do(http.MethodPost, fmt.Sprintf("/api/backups/%d/restore", backupID), token, nil); code != http.StatusOK {
		t.Fatalf("restore = %d %s", code, env.Message)
	}
	_, env = s.do(http.MethodGet, "/api/entries", token, nil)
	list := decode[struct {
		Items []tracker.TimeEntry `json:"items"`
	}](t, env.Data).Items
	if len(list) != 1 || list[0].ID != e.ID || list[0].Comment != "secret note" || list[0].Duration != 600 {
		t.Errorf("restored entries = %+v", list)
	}

	_, env = s.do(http.MethodGet, "/api/history", token, nil)
	history := decode[struct {
		Items []struct {
			Operation string `json:"operation"`
			TaskName  string `json:"task_name"`
		} `json:"items"`
	}](t, env.Data).Items
	if len(history) != 3 {
		t.Fatalf("history = %+v, want add + 2 deletes", history)
	}
	if last := history[len(history)-1]; last.Operation != "add entry" || last.TaskName != "Design" {
		t.Errorf("oldest history item = %+v", last)
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	token := s.login("heidi")
	client := s.addClient(token, "Acme")
	start := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC).UnixMilli()
	s.do(http.MethodPost, "/api/entries", token, gin.H{
		"task_name": "Design", "client_id": client.ID, "start_time": start, "end_time": start + 5400*1000,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv?token="+token, nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Date,Client,Task") || !strings.Contains(body, "2025-06-18,Acme,Design,09:00,10:30,1:30:00,1.5") {
		t.Errorf("csv = %q", body)
	}
}
