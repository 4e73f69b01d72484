package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSDL = `
type Query {
  dog: Dog
}
type Dog {
  name: String
  nickname: String
}
`

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	h, err := New(opts...)
	require.NoError(t, err)
	return h
}

func postJSON(t *testing.T, h *Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestValidateEndpoint(t *testing.T) {
	h := newTestHandler(t)

	t.Run("clean document", func(t *testing.T) {
		w := postJSON(t, h, "/validate", AnalyzeRequest{
			Schema: testSDL,
			Query:  "{ dog { name } }",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var res ValidateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.True(t, res.Valid)
		require.Empty(t, res.Diagnostics)
	})

	t.Run("conflicting fields", func(t *testing.T) {
		w := postJSON(t, h, "/validate", AnalyzeRequest{
			Schema: testSDL,
			Query:  "{ dog { name name: nickname } }",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var res ValidateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.False(t, res.Valid)
		require.Len(t, res.Diagnostics, 1)
		require.Contains(t, res.Diagnostics[0].Message, `Fields "name" conflict`)
		require.NotEmpty(t, res.Diagnostics[0].Locations)
	})

	t.Run("invalid query", func(t *testing.T) {
		w := postJSON(t, h, "/validate", AnalyzeRequest{Schema: testSDL, Query: "{ dog"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid schema", func(t *testing.T) {
		w := postJSON(t, h, "/validate", AnalyzeRequest{Schema: "type {", Query: "{ dog { name } }"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPlanEndpoint(t *testing.T) {
	h := newTestHandler(t)

	t.Run("plan for a valid operation", func(t *testing.T) {
		w := postJSON(t, h, "/plan", AnalyzeRequest{
			Schema: testSDL,
			Query:  "{ pup: dog { name } }",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var res PlanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.NotNil(t, res.Plan)
		require.Equal(t, "query", res.Plan.Operation)
		require.Equal(t, "Query", res.Plan.RootType)
		require.Len(t, res.Plan.Selections, 1)
		require.Equal(t, "pup", res.Plan.Selections[0].Key)
		require.Equal(t, "dog", res.Plan.Selections[0].Field)
		require.Len(t, res.Plan.Selections[0].Selections, 1)
		require.Equal(t, "name", res.Plan.Selections[0].Selections[0].Key)
	})

	t.Run("unknown operation name", func(t *testing.T) {
		w := postJSON(t, h, "/plan", AnalyzeRequest{
			Schema:        testSDL,
			Query:         "query A { dog { name } }",
			OperationName: "B",
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestUnknownPath(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h, "/other", AnalyzeRequest{Schema: testSDL, Query: "{ dog { name } }"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("GET", "/validate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("*"))

	// simple request
	w := httptest.NewRecorder()
	b, _ := json.Marshal(AnalyzeRequest{Schema: testSDL, Query: "{ dog { name } }"})
	req := httptest.NewRequest("POST", "/validate", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	h.ServeHTTP(w, req)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/validate", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(10))
	w := postJSON(t, h, "/validate", AnalyzeRequest{Schema: testSDL, Query: "{ dog { name } }"})
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMissingFields(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(t, h, "/validate", AnalyzeRequest{Query: "{ dog { name } }"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, h, "/validate", AnalyzeRequest{Schema: testSDL})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
