package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatra-gate/backend/internal/models"
)

type fakeFinder struct {
	tickets  map[uuid.UUID]*models.Ticket
	results  []*models.Ticket
	err      error
	searches []string
	limits   []int
}

func (f *fakeFinder) GetByID(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeFinder) Search(_ context.Context, q string, limit int) ([]*models.Ticket, error) {
	f.searches = append(f.searches, q)
	f.limits = append(f.limits, limit)
	return f.results, f.err
}

func TestSearch_ShortQueryIssuesNoLookup(t *testing.T) {
	f := &fakeFinder{}
	svc := NewService(f, nil)

	for _, q := range []string{"", "ab", "  ab  ", "né", "日本"} {
		list, err := svc.Search(context.Background(), q)
		assert.ErrorIs(t, err, ErrQueryTooShort)
		assert.Empty(t, list)
	}
	assert.Empty(t, f.searches)
}

func TestSearch_TrimsAndLimits(t *testing.T) {
	f := &fakeFinder{results: []*models.Ticket{{Name: "Asha"}}}
	svc := NewService(f, nil)

	list, err := svc.Search(context.Background(), "  ash ")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, []string{"ash"}, f.searches)
	assert.Equal(t, []int{SearchLimit}, f.limits)
}

func TestSearch_CountsCharacters(t *testing.T) {
	f := &fakeFinder{}
	svc := NewService(f, nil)

	_, err := svc.Search(context.Background(), "Zoë")
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "東京大")
	require.NoError(t, err)
	assert.Equal(t, []string{"Zoë", "東京大"}, f.searches)
}

func TestSearch_Error(t *testing.T) {
	svc := NewService(&fakeFinder{err: errors.New("boom")}, nil)
	list, err := svc.Search(context.Background(), "asha")
	assert.Error(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	id := uuid.New()
	f := &fakeFinder{
		tickets: map[uuid.UUID]*models.Ticket{id: {ID: id, Name: "Asha", Code: "568789", QRToken: "secret-token", Category: 4}},
		results: []*models.Ticket{{ID: id, Name: "Asha", Code: "568789", QRToken: "secret-token", Category: 1}},
	}
	h := NewHandler(NewService(f, nil))
	r := gin.New()
	r.GET("/tickets/search", h.Search)
	r.GET("/tickets/:id", h.Get)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/tickets/search?q=as")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())

	w = get("/tickets/search?q=asha")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-token")
	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Institution Pass", body.Data[0]["category_name"])

	w = get("/tickets/" + id.String())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "General Combo")

	assert.Equal(t, http.StatusNotFound, get("/tickets/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusBadRequest, get("/tickets/nope").Code)
}
