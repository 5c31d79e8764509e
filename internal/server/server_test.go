package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsim/pkg/api"
	"github.com/joshuapare/memsim/pkg/memsim"
)

func newTestServer(t *testing.T, total int64) (*httptest.Server, *memsim.Manager) {
	t.Helper()
	mgr, err := memsim.New(memsim.Options{TotalMemory: total, Verify: true})
	require.NoError(t, err)
	ts := httptest.NewServer(New(mgr, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, mgr
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func decodeGeneral(t *testing.T, data []byte) api.GeneralResponse {
	t.Helper()
	var gr api.GeneralResponse
	require.NoError(t, json.Unmarshal(data, &gr))
	return gr
}

func TestStatus_Initial(t *testing.T) {
	ts, _ := newTestServer(t, 1000)

	code, body := do(t, ts, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{
		"memory_state": [{"start": 0, "end": 1000, "size": 1000, "status": "Unused", "process_id": null}],
		"total_memory": 1000
	}`, string(body))
}

func TestScenario(t *testing.T) {
	ts, _ := newTestServer(t, 1000)

	code, body := do(t, ts, http.MethodPost, "/request", `{"process_id":"P1","size":100,"strategy":"F"}`)
	require.Equal(t, http.StatusOK, code)
	gr := decodeGeneral(t, body)
	assert.True(t, gr.Success)
	assert.Equal(t, "Memory successfully allocated for P1", gr.Message)
	require.NotNil(t, gr.TotalMemory)
	assert.Equal(t, int64(1000), *gr.TotalMemory)

	code, _ = do(t, ts, http.MethodPost, "/request", `{"process_id":"P2","size":200,"strategy":"B"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, ts, http.MethodPost, "/release", `{"process_id":"P1"}`)
	require.Equal(t, http.StatusOK, code)
	gr = decodeGeneral(t, body)
	assert.Equal(t, "Memory successfully released for P1", gr.Message)
	require.Len(t, gr.MemoryState, 3)
	assert.Equal(t, "Unused", gr.MemoryState[0].Status)
	assert.Equal(t, "Process P2", gr.MemoryState[1].Status)

	code, body = do(t, ts, http.MethodPost, "/compact", "")
	require.Equal(t, http.StatusOK, code)
	gr = decodeGeneral(t, body)
	assert.Equal(t, "Memory successfully compacted.", gr.Message)
	require.Len(t, gr.MemoryState, 2)
	assert.Equal(t, api.BlockStatus{Start: 0, End: 200, Size: 200, Status: "Process P2", ProcessID: gr.MemoryState[0].ProcessID}, gr.MemoryState[0])
	assert.Equal(t, int64(200), gr.MemoryState[1].Start)

	code, body = do(t, ts, http.MethodPost, "/reset", "")
	require.Equal(t, http.StatusOK, code)
	gr = decodeGeneral(t, body)
	assert.Equal(t, "Memory manager successfully reset to initial state.", gr.Message)
	require.Len(t, gr.MemoryState, 1)
	assert.Nil(t, gr.MemoryState[0].ProcessID)
}

func TestRequest_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    []string
		body     string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "insufficient space",
			body:     `{"process_id":"P1","size":5000,"strategy":"F"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "insufficient contiguous memory",
		},
		{
			name:     "duplicate process",
			setup:    []string{`{"process_id":"P1","size":10,"strategy":"F"}`},
			body:     `{"process_id":"P1","size":10,"strategy":"W"}`,
			wantCode: http.StatusConflict,
			wantMsg:  "process already holds memory",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, mgr := newTestServer(t, 1000)
			for _, s := range tt.setup {
				code, _ := do(t, ts, http.MethodPost, "/request", s)
				require.Equal(t, http.StatusOK, code)
			}
			before := mgr.Status()

			code, body := do(t, ts, http.MethodPost, "/request", tt.body)
			require.Equal(t, tt.wantCode, code)
			gr := decodeGeneral(t, body)
			assert.False(t, gr.Success)
			assert.Contains(t, gr.Message, tt.wantMsg)
			assert.Empty(t, gr.MemoryState)
			assert.Nil(t, gr.TotalMemory)
			assert.Equal(t, before, mgr.Status())
		})
	}
}

func TestRequest_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLocs [][]string
	}{
		{"bad strategy", `{"process_id":"P1","size":10,"strategy":"Q"}`, [][]string{{"body", "strategy"}}},
		{"lower case strategy", `{"process_id":"P1","size":10,"strategy":"f"}`, [][]string{{"body", "strategy"}}},
		{"padded strategy", `{"process_id":"P1","size":10,"strategy":" W "}`, [][]string{{"body", "strategy"}}},
		{"long strategy name", `{"process_id":"P1","size":10,"strategy":"best"}`, [][]string{{"body", "strategy"}}},
		{"padded process id", `{"process_id":" P3 ","size":10,"strategy":"F"}`, [][]string{{"body", "process_id"}}},
		{"zero size", `{"process_id":"P1","size":0,"strategy":"F"}`, [][]string{{"body", "size"}}},
		{"missing everything", `{}`, [][]string{{"body", "process_id"}, {"body", "size"}, {"body", "strategy"}}},
		{"malformed json", `{"process_id":`, [][]string{{"body"}}},
		{"wrong type", `{"process_id":"P1","size":"big","strategy":"F"}`, [][]string{{"body"}}},
		{"unknown field", `{"process_id":"P1","size":1,"strategy":"F","color":"red"}`, [][]string{{"body"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, mgr := newTestServer(t, 1000)

			code, body := do(t, ts, http.MethodPost, "/request", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, code)

			var vr api.ValidationResponse
			require.NoError(t, json.Unmarshal(body, &vr))
			locs := make([][]string, 0, len(vr.Detail))
			for _, d := range vr.Detail {
				locs = append(locs, d.Loc)
				assert.NotEmpty(t, d.Msg)
			}
			assert.Equal(t, tt.wantLocs, locs)
			assert.Len(t, mgr.Status().Blocks, 1)
		})
	}
}

func TestRelease_Failures(t *testing.T) {
	ts, _ := newTestServer(t, 1000)

	code, body := do(t, ts, http.MethodPost, "/release", `{"process_id":"P9"}`)
	require.Equal(t, http.StatusNotFound, code)
	gr := decodeGeneral(t, body)
	assert.False(t, gr.Success)
	assert.Contains(t, gr.Message, "process not found")

	code, _ = do(t, ts, http.MethodPost, "/release", `{"process_id":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = do(t, ts, http.MethodPost, "/release", `{"process_id":" P9"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestProcessIDStoredAsSent(t *testing.T) {
	ts, mgr := newTestServer(t, 1000)

	code, _ := do(t, ts, http.MethodPost, "/request", `{"process_id":"job-7","size":10,"strategy":"F"}`)
	require.Equal(t, http.StatusOK, code)

	blk, held := mgr.Status().Lookup("job-7")
	require.True(t, held)
	assert.Equal(t, int64(10), blk.Size())
}

func TestStats(t *testing.T) {
	ts, _ := newTestServer(t, 1000)
	do(t, ts, http.MethodPost, "/request", `{"process_id":"P1","size":100,"strategy":"F"}`)
	do(t, ts, http.MethodPost, "/request", `{"process_id":"P2","size":100,"strategy":"F"}`)
	do(t, ts, http.MethodPost, "/release", `{"process_id":"P1"}`)

	code, body := do(t, ts, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, code)

	var sr api.StatsResponse
	require.NoError(t, json.Unmarshal(body, &sr))
	assert.Equal(t, int64(1000), sr.TotalMemory)
	assert.Equal(t, int64(100), sr.UsedMemory)
	assert.Equal(t, int64(900), sr.FreeMemory)
	assert.Equal(t, 2, sr.Holes)
	assert.Equal(t, int64(800), sr.LargestHole)
	assert.Equal(t, 2, sr.Operations.Allocs)
	assert.Equal(t, 1, sr.Operations.Releases)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, 1000)

	code, _ := do(t, ts, http.MethodGet, "/request", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	code, _ = do(t, ts, http.MethodPost, "/status", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	code, _ = do(t, ts, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mgr, err := memsim.New(memsim.Options{TotalMemory: 100})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	New(mgr, log).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/release", strings.NewReader(`{"process_id":"P1"}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "msg=\"http request\"")
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/release")
	assert.Contains(t, out, "status=404")
}
