package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/rpc/v2/json2"
	ws "github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	websocketjsonrpc2 "github.com/sourcegraph/jsonrpc2/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HMasataka/avgap/internal/analyzer"
	"github.com/HMasataka/avgap/internal/runstore"
	"github.com/HMasataka/avgap/internal/web"
	"github.com/HMasataka/avgap/payload/analyze"
)

const refuelData = "AV7\tFlight\tRefuel_Time\n" +
	"890100\t6E-101\t08:00:00\n" +
	"890103\t6E-104\t09:30:00\n"

const scheduleData = "Flight\tSTD\n" +
	"6E-555\t0845\n" +
	"AI-202\t2300\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	opts := analyzer.DefaultOptions()
	opts.ProgressInterval = time.Millisecond

	svc := analyzer.NewService(runstore.NewStore(10), opts)
	t.Cleanup(svc.Stop)

	srv, err := web.NewServer(svc, web.DefaultOptions())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(body)
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)

	t.Run("入力フォームを表示", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/")
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "AV7 Gap Analyzer (Enhanced)")
		assert.Contains(t, body, "Paste Refueling Data Here")
		assert.Contains(t, body, "Paste Schedule Data Here")
		assert.Contains(t, body, "Analyze Gaps")
		assert.Contains(t, body, "Max AV7 Jump Threshold")
	})

	t.Run("未知のパスは404", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAnalyzeForm(t *testing.T) {
	ts := newTestServer(t)

	t.Run("解析結果を表示", func(t *testing.T) {
		resp, err := http.PostForm(ts.URL+"/analyze", url.Values{
			"refuel_data":   {refuelData},
			"schedule_data": {scheduleData},
		})
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Found 2 missing receipts.")
		assert.Contains(t, body, "890101")
		assert.Contains(t, body, "890102")
		assert.Contains(t, body, "6E-555 (08:45)")
		assert.Contains(t, body, "/report.csv")
		assert.Contains(t, body, "Total Refueling Rows Read: 2")
	})

	t.Run("両方貼り付けていないとエラー", func(t *testing.T) {
		resp, err := http.PostForm(ts.URL+"/analyze", url.Values{
			"refuel_data": {refuelData},
		})
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Contains(t, body, "Please paste data into both boxes first.")
	})

	t.Run("列不足のメッセージを表示", func(t *testing.T) {
		resp, err := http.PostForm(ts.URL+"/analyze", url.Values{
			"refuel_data":   {"AV7\tFlight\n890100\tX\n"},
			"schedule_data": {scheduleData},
		})
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Contains(t, body, "missing required columns")
		assert.Contains(t, body, "Refuel_Time")
	})

	t.Run("抜けが無い場合の文言", func(t *testing.T) {
		resp, err := http.PostForm(ts.URL+"/analyze", url.Values{
			"refuel_data":   {"AV7\tFlight\tRefuel_Time\n890100\tA\t08:00:00\n890101\tB\t09:00:00\n"},
			"schedule_data": {scheduleData},
		})
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Contains(t, body, "No missing AV7s found.")
		assert.Contains(t, body, "The data is perfectly sequential.")
	})

	t.Run("GETはトップに戻す", func(t *testing.T) {
		client := &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}

		resp, err := client.Get(ts.URL + "/analyze")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})
}

func TestAPIAnalyze(t *testing.T) {
	ts := newTestServer(t)

	t.Run("JSONで解析結果を返す", func(t *testing.T) {
		payload, err := json.Marshal(analyze.Request{
			RefuelData:   refuelData,
			ScheduleData: scheduleData,
		})
		require.NoError(t, err)

		resp, err := http.Post(ts.URL+"/api/analyze", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res analyze.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))

		assert.NotEmpty(t, res.RunID)
		require.Len(t, res.Predictions, 2)
		assert.Equal(t, int64(890101), res.Predictions[0].MissingAV7)
	})

	t.Run("空のリクエストは400", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/analyze", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("列不足は422", func(t *testing.T) {
		payload, err := json.Marshal(analyze.Request{
			RefuelData:   "AV7\tFlight\n890100\tX\n",
			ScheduleData: scheduleData,
		})
		require.NoError(t, err)

		resp, err := http.Post(ts.URL+"/api/analyze", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("GETは405", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/analyze")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestRunReport(t *testing.T) {
	ts := newTestServer(t)

	payload, err := json.Marshal(analyze.Request{
		RefuelData:   refuelData,
		ScheduleData: scheduleData,
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)

	var res analyze.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()

	t.Run("CSVをダウンロード", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/runs/" + res.RunID + "/report.csv")
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "missing_av7_report.csv")

		lines := strings.Split(strings.TrimSpace(body), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Missing_AV7,Window_Logic,Window_Start,Window_End,POTENTIAL_FLIGHTS", lines[0])
		assert.Contains(t, lines[1], "890101")
		assert.Contains(t, lines[1], "Normal")
	})

	t.Run("保存済みの結果をHTMLで表示", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/runs/" + res.RunID)
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Found 2 missing receipts.")
	})

	t.Run("未知のrunは404", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/runs/ffffffffffffffff/report.csv")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRPC(t *testing.T) {
	ts := newTestServer(t)

	t.Run("GapAnalyzer.Analyze", func(t *testing.T) {
		buf, err := json2.EncodeClientRequest("GapAnalyzer.Analyze", []any{&analyze.Request{
			RefuelData:   refuelData,
			ScheduleData: scheduleData,
		}})
		require.NoError(t, err)

		resp, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewReader(buf))
		require.NoError(t, err)
		defer resp.Body.Close()

		var res analyze.Result
		require.NoError(t, json2.DecodeClientResponse(resp.Body, &res))

		require.Len(t, res.Predictions, 2)
		assert.Equal(t, int64(890101), res.Predictions[0].MissingAV7)
	})

	t.Run("GapAnalyzer.Health", func(t *testing.T) {
		buf, err := json2.EncodeClientRequest("GapAnalyzer.Health", []any{&analyze.HealthRequest{}})
		require.NoError(t, err)

		resp, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewReader(buf))
		require.NoError(t, err)
		defer resp.Body.Close()

		var res analyze.HealthResponse
		require.NoError(t, json2.DecodeClientResponse(resp.Body, &res))
		assert.Equal(t, "ok", res.Status)
	})

	t.Run("空のリクエストはエラー", func(t *testing.T) {
		buf, err := json2.EncodeClientRequest("GapAnalyzer.Analyze", []any{&analyze.Request{}})
		require.NoError(t, err)

		resp, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewReader(buf))
		require.NoError(t, err)
		defer resp.Body.Close()

		var res analyze.Result
		err = json2.DecodeClientResponse(resp.Body, &res)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Please paste data into both boxes first.")
	})
}

type progressRecorder struct {
	mu     sync.Mutex
	events []analyze.Progress
}

func (r *progressRecorder) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Method != "progress" || req.Params == nil {
		return
	}

	var p analyze.Progress
	if err := json.Unmarshal(*req.Params, &p); err != nil {
		return
	}

	r.mu.Lock()
	r.events = append(r.events, p)
	r.mu.Unlock()
}

func (r *progressRecorder) stages() []analyze.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]analyze.Stage, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Stage)
	}

	return out
}

func TestWebSocket(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	t.Run("analyzeの往復と進捗通知", func(t *testing.T) {
		wsConn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)

		recorder := &progressRecorder{}
		conn := jsonrpc2.NewConn(context.Background(), websocketjsonrpc2.NewObjectStream(wsConn), recorder)
		defer conn.Close()

		var res analyze.Result
		err = conn.Call(context.Background(), "analyze", &analyze.Request{
			RefuelData:   refuelData,
			ScheduleData: scheduleData,
		}, &res)
		require.NoError(t, err)

		require.Len(t, res.Predictions, 2)
		assert.Equal(t, int64(890101), res.Predictions[0].MissingAV7)

		stages := recorder.stages()
		assert.Contains(t, stages, analyze.StageParsing)
		assert.Contains(t, stages, analyze.StageDone)
	})

	t.Run("health", func(t *testing.T) {
		wsConn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)

		conn := jsonrpc2.NewConn(context.Background(), websocketjsonrpc2.NewObjectStream(wsConn), &progressRecorder{})
		defer conn.Close()

		var res analyze.HealthResponse
		require.NoError(t, conn.Call(context.Background(), "health", nil, &res))
		assert.Equal(t, "ok", res.Status)
	})

	t.Run("空のリクエストはエラー応答", func(t *testing.T) {
		wsConn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)

		conn := jsonrpc2.NewConn(context.Background(), websocketjsonrpc2.NewObjectStream(wsConn), &progressRecorder{})
		defer conn.Close()

		var res analyze.Result
		err = conn.Call(context.Background(), "analyze", &analyze.Request{}, &res)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Please paste data into both boxes first.")
	})
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)

	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
}

func TestStatic(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/static/style.css")
	require.NoError(t, err)

	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".sidebar")
}
