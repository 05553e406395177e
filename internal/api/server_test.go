package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/blockenergy-core/internal/audit"
	"github.com/nerrad567/blockenergy-core/internal/auth"
	"github.com/nerrad567/blockenergy-core/internal/blockdata"
	"github.com/nerrad567/blockenergy-core/internal/capability"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/config"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/database"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/logging"
	"github.com/nerrad567/blockenergy-core/internal/world"
	"github.com/nerrad567/blockenergy-core/migrations"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type checker struct{ err error }

func (c checker) HealthCheck(context.Context) error { return c.err }

type fixture struct {
	srv     *Server
	banks   *capability.Registry[*energy.Bank]
	handler http.Handler
}

func newFixture(t *testing.T, health map[string]HealthChecker) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	require.NoError(t, db.Migrate(ctx, migrations.FS))

	regs := capability.NewRegistries(blockdata.NewSQLiteStore(db.DB), energy.DefaultCodec)
	srv, err := New(Deps{
		WS:         config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Security:   config.SecurityConfig{JWT: config.JWTConfig{Secret: testSecret}},
		Logger:     logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard),
		Registries: regs,
		Audit:      audit.NewSQLiteRepository(db.DB),
		Health:     health,
		Version:    "test",
	})
	require.NoError(t, err)

	banks, err := capability.Standard(regs)
	require.NoError(t, err)

	return &fixture{srv: srv, banks: banks, handler: srv.buildRouter()}
}

func (f *fixture) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) place(t *testing.T, loc world.Location, energyAmount int32) {
	t.Helper()
	bank, created, err := f.banks.Create(context.Background(), loc)
	require.NoError(t, err)
	require.True(t, created)
	bank.Generate(energyAmount)
}

func token(t *testing.T, role auth.Role) string {
	t.Helper()
	tok, err := auth.GenerateToken("tester", role, testSecret, time.Minute)
	require.NoError(t, err)
	return tok
}

func TestHealth(t *testing.T) {
	f := newFixture(t, map[string]HealthChecker{"database": checker{}})

	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Components["database"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealth_Degraded(t *testing.T) {
	f := newFixture(t, map[string]HealthChecker{
		"database": checker{},
		"mqtt":     checker{err: errors.New("not connected")},
	})

	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "not connected", resp.Components["mqtt"])
}

func TestGetCapability(t *testing.T) {
	f := newFixture(t, nil)
	loc := world.At("overworld", 1, 64, -3)
	f.place(t, loc, 750)

	rec := f.do(t, http.MethodGet, "/api/v1/capabilities/overworld/1/64/-3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Location world.Location `json:"location"`
		Type     string         `json:"type"`
		Cached   bool           `json:"cached"`
		Record   energy.Record  `json:"record"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, loc, resp.Location)
	assert.Equal(t, string(capability.StandardType), resp.Type)
	assert.True(t, resp.Cached)
	assert.Equal(t, int32(750), resp.Record.Stored())
}

func TestGetCapability_NotFound(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/capabilities/overworld/0/0/0", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body Error
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, ErrCodeNotFound, body.Code)
	assert.Zero(t, f.banks.Len(), "a miss must not populate the cache")
}

func TestGetCapability_BadCoordinate(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/capabilities/overworld/1/up/3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveWorld_Auth(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"viewer", token(t, auth.RoleViewer), http.StatusForbidden},
		{"operator", token(t, auth.RoleOperator), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/worlds/overworld/save", tt.token)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSaveWorld_FlushesOnlyThatWorld(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	over := world.At("overworld", 0, 0, 0)
	nether := world.At("nether", 0, 0, 0)
	f.place(t, over, 40)
	f.place(t, nether, 90)

	rec := f.do(t, http.MethodPost, "/api/v1/worlds/overworld/save", token(t, auth.RoleOperator))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SaveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, SaveResponse{World: "overworld", Written: 1}, resp)

	store := f.srv.regs.Store()
	c, err := store.Load(ctx, over)
	require.NoError(t, err)
	assert.Equal(t, int32(40), c.IntOr(energy.DefaultCodec.StoredKey, -1))

	c, err = store.Load(ctx, nether)
	require.NoError(t, err)
	assert.Equal(t, int32(0), c.IntOr(energy.DefaultCodec.StoredKey, -1), "nether is not flushed")
}

func TestExportWorld(t *testing.T) {
	f := newFixture(t, nil)
	f.place(t, world.At("overworld", 0, 0, 0), 10)
	f.place(t, world.At("overworld", 5, 0, 0), 20)
	f.place(t, world.At("nether", 0, 0, 0), 30)
	_, err := f.srv.regs.SaveAll(context.Background())
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/worlds/overworld/export", token(t, auth.RoleOperator))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zstd", rec.Header().Get("Content-Type"))

	dec, err := zstd.NewReader(rec.Body)
	require.NoError(t, err)
	defer dec.Close()

	got := map[world.Location]int32{}
	scanner := bufio.NewScanner(dec)
	for scanner.Scan() {
		var line ExportLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		got[line.Location] = line.Record.Stored()
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, map[world.Location]int32{
		world.At("overworld", 0, 0, 0): 10,
		world.At("overworld", 5, 0, 0): 20,
	}, got)
}

func TestExportWorld_ViewerForbidden(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/worlds/overworld/export", token(t, auth.RoleViewer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// flushAudit writes every queued audit entry before returning.
func (f *fixture) flushAudit() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.srv.drainAuditLog(ctx)
}

func TestAudit_RecordsSaveAndExport(t *testing.T) {
	f := newFixture(t, nil)
	f.place(t, world.At("overworld", 0, 0, 0), 10)
	op := token(t, auth.RoleOperator)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/worlds/overworld/save", op).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/worlds/overworld/export", op).Code)
	f.flushAudit()

	rec := f.do(t, http.MethodGet, "/api/v1/audit?world=overworld", op)
	require.Equal(t, http.StatusOK, rec.Code)

	var res audit.ListResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.Equal(t, 2, res.Total)

	byAction := map[string]audit.Entry{}
	for _, e := range res.Entries {
		byAction[e.Action] = e
	}
	save := byAction[audit.ActionSave]
	assert.Equal(t, world.ID("overworld"), save.World)
	assert.Equal(t, "tester", save.Subject)
	assert.Equal(t, "api", save.Source)
	assert.InDelta(t, 1, save.Details["written"], 0)

	export := byAction[audit.ActionExport]
	assert.Equal(t, "tester", export.Subject)
	assert.InDelta(t, 1, export.Details["exported"], 0)

	rec = f.do(t, http.MethodGet, "/api/v1/audit?action=export", op)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 1, res.Total)
}

func TestAudit_FailedRequestsNotRecorded(t *testing.T) {
	f := newFixture(t, nil)

	require.Equal(t, http.StatusForbidden,
		f.do(t, http.MethodPost, "/api/v1/worlds/overworld/save", token(t, auth.RoleViewer)).Code)
	f.flushAudit()

	rec := f.do(t, http.MethodGet, "/api/v1/audit", token(t, auth.RoleOperator))
	require.Equal(t, http.StatusOK, rec.Code)
	var res audit.ListResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 0, res.Total)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/v1/audit", token(t, auth.RoleViewer)).Code)
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	f.place(t, world.At("overworld", 0, 0, 0), 1)
	f.place(t, world.At("overworld", 0, 1, 0), 1)

	rec := f.do(t, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Cached[capability.StandardType])
	assert.Nil(t, resp.Network)
	assert.Nil(t, resp.Bridge)
	assert.Nil(t, resp.Autosave)
}

func TestCORS_Preflight(t *testing.T) {
	f := newFixture(t, nil)
	f.srv.cfg.CORS.AllowedOrigins = []string{"http://admin.local"}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stats", nil)
	req.Header.Set("Origin", "http://admin.local")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://admin.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/stats", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocket_RequiresToken(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/ws", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocket_ReceivesFlushEvents(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.srv.hub.Run(ctx)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?token=" + token(t, auth.RoleViewer)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    WSTypeSubscribe,
		"id":      "1",
		"payload": WSSubscribePayload{Channels: []string{ChannelFlush}},
	}))

	var ack WSMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, WSTypeResponse, ack.Type)
	assert.Equal(t, "1", ack.ID)

	f.srv.NotifyFlush("overworld", "saved", 3, nil)

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, WSTypeEvent, msg.Type)
	assert.Equal(t, ChannelFlush, msg.EventType)

	var ev FlushEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &ev))
	assert.Equal(t, FlushEvent{World: "overworld", Reason: "saved", Written: 3}, ev)
}

func TestWebSocket_UnknownChannel(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?token=" + token(t, auth.RoleViewer)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    WSTypeSubscribe,
		"payload": WSSubscribePayload{Channels: []string{"chunk.loaded"}},
	}))

	var msg WSMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, WSTypeError, msg.Type)
}
