package registrations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/yatra-gate/backend/internal/models"
)

type stubStore struct {
	regs      map[uuid.UUID]*models.Registration
	lastLimit int
	err       error
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	if r, ok := s.regs[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (s *stubStore) ListPending(_ context.Context, limit int) ([]models.Registration, error) {
	s.lastLimit = limit
	return []models.Registration{}, s.err
}

func newRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, nil)
	r := gin.New()
	r.GET("/registrations/pending", h.ListPending)
	r.GET("/registrations/:id", h.Get)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestListPending_Limit(t *testing.T) {
	store := &stubStore{}
	r := newRouter(store)

	assert.Equal(t, http.StatusOK, get(r, "/registrations/pending").Code)
	assert.Equal(t, defaultPendingLimit, store.lastLimit)

	assert.Equal(t, http.StatusOK, get(r, "/registrations/pending?limit=9000").Code)
	assert.Equal(t, maxPendingLimit, store.lastLimit)

	assert.Equal(t, http.StatusBadRequest, get(r, "/registrations/pending?limit=-1").Code)

	store.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, get(r, "/registrations/pending").Code)
}

func TestGet(t *testing.T) {
	id := uuid.New()
	r := newRouter(&stubStore{regs: map[uuid.UUID]*models.Registration{id: {ID: id, Name: "Asha"}}})

	w := get(r, "/registrations/"+id.String())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Asha"`)

	assert.Equal(t, http.StatusNotFound, get(r, "/registrations/"+uuid.New().String()).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/registrations/nope").Code)
}
