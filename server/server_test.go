package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juruen/inkmath/classifier"
	"github.com/juruen/inkmath/recognizer"
)

type sevens struct{}

func (sevens) Classify(ctx context.Context, img *image.Gray) (classifier.Prediction, error) {
	return classifier.Prediction{Label: 7, Probabilities: map[int]float64{7: 0.9, 1: 0.1}}, nil
}

func newTestServer(t *testing.T, c classifier.Classifier) *httptest.Server {
	cfg := recognizer.DefaultConfig()
	cfg.Workers = 2
	api := NewApiServer(recognizer.New(c, cfg), 20)
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		ts.Close()
		api.Close()
	})
	return ts
}

func bar(x float32) *Stroke {
	return &Stroke{X: []float32{x, x, x}, Y: []float32{20, 50, 80}, Size: 2}
}

type response struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func do(t *testing.T, method, url string, body interface{}) (int, response) {
	var rd bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&rd).Encode(body))
	}
	req, err := http.NewRequest(method, url, &rd)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func TestPredict(t *testing.T) {
	ts := newTestServer(t, sevens{})

	status, res := do(t, http.MethodPost, ts.URL+"/api/predict", InkInput{Strokes: []*Stroke{bar(200), bar(10)}})
	require.Equal(t, http.StatusOK, status)

	var p Prediction
	require.NoError(t, json.Unmarshal(res.Data, &p))
	require.NotNil(t, p.Value)
	assert.Equal(t, 77, *p.Value)
	assert.Equal(t, "77", p.Digits)
	require.Len(t, p.Result, 2)
	assert.Less(t, p.Result[0].Bounds.X, p.Result[1].Bounds.X)
	assert.Equal(t, 0.9, p.Result[0].Probabilities["7"])
}

func TestPredictEmptyInk(t *testing.T) {
	ts := newTestServer(t, sevens{})

	status, res := do(t, http.MethodPost, ts.URL+"/api/predict", InkInput{})
	require.Equal(t, http.StatusOK, status)

	var p Prediction
	require.NoError(t, json.Unmarshal(res.Data, &p))
	assert.Nil(t, p.Value)
	assert.Contains(t, p.Error, "no prediction")
}

func TestPredictBadInput(t *testing.T) {
	ts := newTestServer(t, sevens{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"mismatched columns", InkInput{Strokes: []*Stroke{{X: []float32{1, 2}, Y: []float32{1}}}}},
		{"bad pressure", InkInput{Strokes: []*Stroke{{X: []float32{1}, Y: []float32{1}, P: []float32{1, 2}}}}},
		{"bad id", InkInput{Strokes: []*Stroke{{ID: "nope", X: []float32{1}, Y: []float32{1}}}}},
		{"null stroke", InkInput{Strokes: []*Stroke{nil}}},
		{"not json", "strokes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := do(t, http.MethodPost, ts.URL+"/api/predict", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestPredictUnavailable(t *testing.T) {
	ts := newTestServer(t, nil)

	status, res := do(t, http.MethodPost, ts.URL+"/api/predict", InkInput{Strokes: []*Stroke{bar(10)}})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, res.Error, "unavailable")

	hr, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	hr.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, hr.StatusCode)
}

func TestSession(t *testing.T) {
	ts := newTestServer(t, sevens{})
	url := ts.URL + "/api/sessions/q1"

	status, _ := do(t, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, res := do(t, http.MethodPost, url+"/ink", InkInput{Strokes: []*Stroke{bar(10)}})
	require.Equal(t, http.StatusOK, status)
	var submitted struct{ Generation uint64 }
	require.NoError(t, json.Unmarshal(res.Data, &submitted))
	assert.Equal(t, uint64(1), submitted.Generation)

	status, _ = do(t, http.MethodPost, url+"/ink", InkInput{Strokes: []*Stroke{bar(200)}, Append: true})
	require.Equal(t, http.StatusOK, status)

	status, res = do(t, http.MethodGet, url+"?wait=true", nil)
	require.Equal(t, http.StatusOK, status)
	var st SessionState
	require.NoError(t, json.Unmarshal(res.Data, &st))
	assert.Equal(t, uint64(2), st.Generation)
	assert.False(t, st.Pending)
	require.NotNil(t, st.Answer)
	require.NotNil(t, st.Answer.Value)
	assert.Equal(t, 77, *st.Answer.Value)

	status, _ = do(t, http.MethodDelete, url+"/ink", nil)
	require.Equal(t, http.StatusOK, status)
	_, res = do(t, http.MethodGet, url, nil)
	require.NoError(t, json.Unmarshal(res.Data, &st))
	assert.Equal(t, uint64(3), st.Generation)
	assert.Nil(t, st.Answer)

	status, _ = do(t, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFilterSmallWithCanvas(t *testing.T) {
	dot := &Stroke{X: []float32{300}, Y: []float32{300}, Size: 1}
	in := InkInput{Width: 600, Height: 400, Strokes: []*Stroke{bar(10), dot}}
	strokes, err := in.Ink(20)
	require.NoError(t, err)
	assert.Len(t, strokes, 1)
}

func TestSessionWaitDuringSubmit(t *testing.T) {
	ts := newTestServer(t, sevens{})
	url := ts.URL + "/api/sessions/busy"

	status, _ := do(t, http.MethodPost, url+"/ink", InkInput{Strokes: []*Stroke{bar(10)}})
	require.Equal(t, http.StatusOK, status)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				res, err := http.Get(url + "?wait=true")
				if !assert.NoError(t, err) {
					return
				}
				res.Body.Close()
				assert.Equal(t, http.StatusOK, res.StatusCode)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		status, _ := do(t, http.MethodPost, url+"/ink", InkInput{Strokes: []*Stroke{bar(10)}, Append: true})
		assert.Equal(t, http.StatusOK, status)
	}
	wg.Wait()

	status, res := do(t, http.MethodGet, url+"?wait=true", nil)
	require.Equal(t, http.StatusOK, status)
	var st SessionState
	require.NoError(t, json.Unmarshal(res.Data, &st))
	assert.Equal(t, uint64(51), st.Generation)
	assert.False(t, st.Pending)
}
