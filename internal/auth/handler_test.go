package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/credential-service/internal/logging"
)

type envelopeJSON struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		User map[string]any `json:"user"`
	} `json:"data"`
}

func call(t *testing.T, fn http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, envelopeJSON) {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fn(rec, req)

	var env envelopeJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func newTestHandler(t *testing.T) (*Handler, *faultStore) {
	t.Helper()
	svc, fs := newTestService(t)
	return NewHandler(svc, logging.Discard()), fs
}

func TestHandler_RegisterAndLogin(t *testing.T) {
	h, _ := newTestHandler(t)

	rec, env := call(t, h.Register, http.MethodPost, `{"username":"alice","email":"alice@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, env.Success)
	assert.Equal(t, MsgRegisterSuccess, env.Message)
	require.NotNil(t, env.Data)
	assert.Equal(t, "alice", env.Data.User["username"])
	assert.Equal(t, "alice@x.com", env.Data.User["email"])
	assert.NotEmpty(t, env.Data.User["id"])
	assert.NotContains(t, env.Data.User, "password")
	assert.NotContains(t, rec.Body.String(), "c2VjcmV0MQ==")

	rec, env = call(t, h.Login, http.MethodPost, `{"username":"alice","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MsgLoginSuccess, env.Message)
	require.NotNil(t, env.Data)
	assert.Len(t, env.Data.User, 3)

	rec, env = call(t, h.Login, http.MethodPost, `{"username":"alice","password":"wrong12"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.NotContains(t, rec.Body.String(), `"data"`)
}

func TestHandler_MalformedBody(t *testing.T) {
	h, _ := newTestHandler(t)

	for name, fn := range map[string]http.HandlerFunc{
		"login":    h.Login,
		"register": h.Register,
		"update":   h.UpdateProfile,
		"delete":   h.DeleteProfile,
	} {
		t.Run(name, func(t *testing.T) {
			rec, env := call(t, fn, http.MethodPost, `{"username":`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, "Invalid data format", env.Message)
		})
	}
}

func TestHandler_EmptyBody(t *testing.T) {
	h, _ := newTestHandler(t)

	rec, env := call(t, h.Login, http.MethodPost, ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgAllFieldsRequired, env.Message)
}

func TestHandler_WrongFieldType(t *testing.T) {
	h, _ := newTestHandler(t)

	rec, env := call(t, h.Register, http.MethodPost, `{"username":42,"email":"a@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgInvalidDataFormat, env.Message)
}

func TestHandler_LookupFault(t *testing.T) {
	h, fs := newTestHandler(t)
	fs.findErr = errors.New("connection refused")

	rec, env := call(t, h.Login, http.MethodPost, `{"username":"alice","password":"secret1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Server error occurred", env.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	h, _ := newTestHandler(t)

	_, env := call(t, h.Register, http.MethodPost, `{"username":"alice","email":"alice@x.com","password":"secret1"}`)
	require.NotNil(t, env.Data)
	id, _ := env.Data.User["id"].(string)
	require.NotEmpty(t, id)

	rec, env := call(t, h.UpdateProfile, http.MethodPut,
		`{"userId":"`+id+`","currentPassword":"secret1","newUsername":"alicia"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MsgProfileUpdateSuccess, env.Message)
	require.NotNil(t, env.Data)
	assert.Equal(t, "alicia", env.Data.User["username"])

	rec, env = call(t, h.DeleteProfile, http.MethodDelete,
		`{"userId":"`+id+`","currentPassword":"secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MsgProfileDeleteSuccess, env.Message)
	assert.Nil(t, env.Data)

	rec, env = call(t, h.DeleteProfile, http.MethodDelete,
		`{"userId":"`+id+`","currentPassword":"secret1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, MsgUserNotFound, env.Message)
}
