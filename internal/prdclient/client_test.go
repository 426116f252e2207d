package prdclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"prdapi/internal/mcp"
	"prdapi/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers every request with the frame produced by respond.
func fakeServer(t *testing.T, respond func(req mcp.Request) mcp.Response) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sse", r.URL.Path)
		var req mcp.Request
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &req))
		frame, err := mcp.EncodeFrame(respond(req))
		require.NoError(t, err)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write(frame)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req mcp.Request
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, mcp.MethodCallTool, req.Method)
		assert.Equal(t, mcp.ToolSearch, req.Params.Name)
		assert.JSONEq(t, `{"query":"fitness"}`, string(req.Params.Arguments))

		resp, _ := mcp.TextResult(model.SearchResponse{Query: "fitness", Count: 1, Results: []model.SearchResult{{ID: "fitness_tracker_1"}}})
		frame, _ := mcp.EncodeFrame(resp)
		w.Write(frame)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("secret"), WithHTTPClient(srv.Client()))
	res, err := c.Search(context.Background(), "fitness")

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "fitness_tracker_1", res.Results[0].ID)
}

func TestSearch_EmptyResultsNeverNil(t *testing.T) {
	srv := fakeServer(t, func(mcp.Request) mcp.Response {
		resp, _ := mcp.TextResult(map[string]any{"query": "x", "results_count": 0})
		return resp
	})

	res, err := New(srv.URL, WithHTTPClient(srv.Client())).Search(context.Background(), "x")

	require.NoError(t, err)
	assert.NotNil(t, res.Results)
}

func TestGetAndStore(t *testing.T) {
	srv := fakeServer(t, func(req mcp.Request) mcp.Response {
		switch req.Params.Name {
		case mcp.ToolGet:
			resp, _ := mcp.TextResult(model.Document{ID: "a_1", Content: "# A"})
			return resp
		default:
			var args mcp.StoreArgs
			json.Unmarshal(req.Params.Arguments, &args)
			resp, _ := mcp.TextResult(model.StoreResult{ID: "a_2", ProductName: args.ProductName, Author: args.Author, HTMLURL: "https://x/a_2.html"})
			return resp
		}
	})
	c := New(srv.URL, WithHTTPClient(srv.Client()))

	doc, err := c.Get(context.Background(), "a_1")
	require.NoError(t, err)
	assert.Equal(t, "# A", doc.Content)

	res, err := c.Store(context.Background(), model.StoreInput{ProductName: "A", Content: "# A", Author: "PM Agent", Version: "1.0"})
	require.NoError(t, err)
	assert.Equal(t, "a_2", res.ID)
	assert.Equal(t, "PM Agent", res.Author)
	assert.Equal(t, "https://x/a_2.html", res.HTMLURL)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{mcp.CodeNotFound, ErrNotFound},
		{mcp.CodeValidation, ErrValidation},
		{mcp.CodeUnknownTool, ErrValidation},
		{mcp.CodeBackend, ErrBackend},
		{"", ErrBackend},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			srv := fakeServer(t, func(mcp.Request) mcp.Response {
				return mcp.Errorf(tt.code, "boom")
			})

			_, err := New(srv.URL, WithHTTPClient(srv.Client())).Get(context.Background(), "a_1")

			assert.ErrorIs(t, err, tt.want)
			assert.ErrorContains(t, err, "boom")
		})
	}
}

func TestTransportErrors(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := New(srv.URL, WithHTTPClient(srv.Client())).Search(context.Background(), "x")
		assert.ErrorIs(t, err, ErrBackend)
	})

	t.Run("no frame", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("hello"))
		}))
		defer srv.Close()

		_, err := New(srv.URL, WithHTTPClient(srv.Client())).Search(context.Background(), "x")
		assert.ErrorIs(t, err, ErrBackend)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url).Search(context.Background(), "x")
		assert.ErrorIs(t, err, ErrBackend)
	})
}

func TestListTools(t *testing.T) {
	srv := fakeServer(t, func(req mcp.Request) mcp.Response {
		assert.Equal(t, mcp.MethodListTools, req.Method)
		return mcp.Response{Tools: mcp.Tools()}
	})

	tools, err := New(srv.URL, WithHTTPClient(srv.Client())).ListTools(context.Background())

	require.NoError(t, err)
	assert.Len(t, tools, 3)
}

func TestCheckTools(t *testing.T) {
	t.Run("all tools present", func(t *testing.T) {
		srv := fakeServer(t, func(mcp.Request) mcp.Response { return mcp.Response{Tools: mcp.Tools()} })

		assert.NoError(t, New(srv.URL, WithHTTPClient(srv.Client())).CheckTools(context.Background()))
	})

	t.Run("missing store", func(t *testing.T) {
		srv := fakeServer(t, func(mcp.Request) mcp.Response {
			return mcp.Response{Tools: []mcp.Tool{{Name: mcp.ToolSearch}, {Name: mcp.ToolGet}}}
		})

		err := New(srv.URL, WithHTTPClient(srv.Client())).CheckTools(context.Background())
		assert.ErrorIs(t, err, ErrMissingTool)
		assert.ErrorContains(t, err, mcp.ToolStore)
	})

	t.Run("service down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := New(srv.URL, WithHTTPClient(srv.Client())).CheckTools(context.Background())
		assert.ErrorIs(t, err, ErrBackend)
	})
}
