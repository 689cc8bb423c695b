package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmmini/core/internal/adapters/repository"
	"github.com/crmmini/core/internal/application/services"
	"github.com/crmmini/core/internal/infrastructure/logger"
)

const fixedMillis = int64(1700000000000)

func setupEcho(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	repo := repository.NewFileRepository(path, logger.NewNop())
	svc := services.NewCustomerService(repo, logger.NewNop()).
		WithClock(func() time.Time { return time.UnixMilli(fixedMillis) })

	e := echo.New()
	e.GET("/", Root)
	NewCustomerHandler(svc, logger.NewNop()).Register(e.Group("/customers"))
	return e, path
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	e, _ := setupEcho(t)

	rec := doRequest(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain)
	assert.Equal(t, Banner, rec.Body.String())
}

func TestCustomerScenario(t *testing.T) {
	e, _ := setupEcho(t)
	id := strconv.FormatInt(fixedMillis, 10)

	rec := doRequest(e, http.MethodGet, "/customers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doRequest(e, http.MethodPost, "/customers", `{"name":"Alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":`+id+`,"name":"Alice"}`, rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/customers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":`+id+`,"name":"Alice"}]`, rec.Body.String())

	rec = doRequest(e, http.MethodPut, "/customers/"+id, `{"name":"Alicia"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":`+id+`,"name":"Alicia"}`, rec.Body.String())

	rec = doRequest(e, http.MethodDelete, "/customers/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"`+MessageCustomerDeleted+`"}`, rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/customers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateCustomer(t *testing.T) {
	t.Run("keeps every body key and adds a numeric id", func(t *testing.T) {
		e, _ := setupEcho(t)

		rec := doRequest(e, http.MethodPost, "/customers", `{"name":"Bob","age":31,"address":{"city":"Hue"},"tags":["a"],"vip":true,"note":null}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, float64(fixedMillis), got["id"])
		assert.Equal(t, "Bob", got["name"])
		assert.Equal(t, float64(31), got["age"])
		assert.Equal(t, map[string]interface{}{"city": "Hue"}, got["address"])
		assert.Equal(t, []interface{}{"a"}, got["tags"])
		assert.Equal(t, true, got["vip"])
		assert.Contains(t, got, "note")
	})

	t.Run("empty body creates a record with only an id", func(t *testing.T) {
		e, _ := setupEcho(t)

		rec := doRequest(e, http.MethodPost, "/customers", "")
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id":`+strconv.FormatInt(fixedMillis, 10)+`}`, rec.Body.String())
	})

	t.Run("large numbers are stored verbatim", func(t *testing.T) {
		e, path := setupEcho(t)

		rec := doRequest(e, http.MethodPost, "/customers", `{"account":12345678901234567890}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "12345678901234567890")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "12345678901234567890")
	})

	t.Run("rejects bodies that are not objects", func(t *testing.T) {
		e, _ := setupEcho(t)

		for _, body := range []string{`[1,2]`, `"text"`, `{"name":`, `{} {}`} {
			rec := doRequest(e, http.MethodPost, "/customers", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Contains(t, rec.Body.String(), `"message"`, body)
		}
	})
}

func TestGetCustomer(t *testing.T) {
	e, _ := setupEcho(t)
	id := strconv.FormatInt(fixedMillis, 10)

	rec := doRequest(e, http.MethodGet, "/customers/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"`+MessageCustomerNotFound+`"}`, rec.Body.String())

	doRequest(e, http.MethodPost, "/customers", `{"name":"Alice"}`)

	rec = doRequest(e, http.MethodGet, "/customers/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":`+id+`,"name":"Alice"}`, rec.Body.String())
}

func TestUpdateCustomer(t *testing.T) {
	t.Run("merges fields", func(t *testing.T) {
		e, _ := setupEcho(t)
		id := strconv.FormatInt(fixedMillis, 10)
		doRequest(e, http.MethodPost, "/customers", `{"name":"Alice","email":"a@example.com"}`)

		rec := doRequest(e, http.MethodPut, "/customers/"+id, `{"email":"alice@example.com","phone":"555"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":`+id+`,"name":"Alice","email":"alice@example.com","phone":"555"}`, rec.Body.String())
	})

	t.Run("body id neither renumbers nor replaces the record id", func(t *testing.T) {
		e, _ := setupEcho(t)
		id := strconv.FormatInt(fixedMillis, 10)

		rec := doRequest(e, http.MethodPost, "/customers", `{"id":5,"name":"A"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id":`+id+`,"name":"A"}`, rec.Body.String())

		rec = doRequest(e, http.MethodPut, "/customers/"+id, `{"id":7,"name":"B"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":`+id+`,"name":"B"}`, rec.Body.String())

		rec = doRequest(e, http.MethodGet, "/customers/7", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown id is 404 with a message", func(t *testing.T) {
		e, _ := setupEcho(t)

		rec := doRequest(e, http.MethodPut, "/customers/99999999", `{"name":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"`+MessageCustomerNotFound+`"}`, rec.Body.String())
	})

	t.Run("invalid id is 400", func(t *testing.T) {
		e, _ := setupEcho(t)

		rec := doRequest(e, http.MethodPut, "/customers/abc", `{"name":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid customer id")
	})
}

func TestDeleteCustomer(t *testing.T) {
	t.Run("unknown id still succeeds and keeps the collection", func(t *testing.T) {
		e, _ := setupEcho(t)
		doRequest(e, http.MethodPost, "/customers", `{"name":"Alice"}`)

		rec := doRequest(e, http.MethodDelete, "/customers/42", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"`+MessageCustomerDeleted+`"}`, rec.Body.String())

		rec = doRequest(e, http.MethodGet, "/customers", "")
		var customers []map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &customers))
		assert.Len(t, customers, 1)
	})

	t.Run("invalid id is 400", func(t *testing.T) {
		e, _ := setupEcho(t)

		rec := doRequest(e, http.MethodDelete, "/customers/1.5", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCorruptStore(t *testing.T) {
	e, path := setupEcho(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	rec := doRequest(e, http.MethodGet, "/customers", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer store is unreadable")

	rec = doRequest(e, http.MethodPost, "/customers", `{"name":"Alice"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "a corrupt file is never overwritten")
}
