package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/recipe-backend/internal/logging"
	"github.com/iliyamo/recipe-backend/internal/middleware"
	"github.com/iliyamo/recipe-backend/internal/model"
	"github.com/iliyamo/recipe-backend/internal/service"
	"github.com/iliyamo/recipe-backend/internal/utils"
)

// call runs h against a JSON request.  claims, when non-nil, are attached
// the way RequireBearer would.
func call(t *testing.T, h echo.HandlerFunc, method, body string, claims *utils.SessionClaims) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set(middleware.CtxUserID, claims.User.ID)
		c.Set(middleware.CtxEmail, claims.User.Email)
		c.Set(middleware.CtxClaims, claims)
	}
	require.NoError(t, h(c))
	return rec
}

func session(id uint64) *utils.SessionClaims {
	return &utils.SessionClaims{
		User: utils.SessionUser{ID: id, Email: "cook@example.com"},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

// ----- auth -----

type stubAuth struct {
	registerErr error
	token       utils.AccessToken
	loginErr    error
	profile     service.Profile
	profileErr  error
	logoutErr   error
	gotEmail    string
	gotUserID   uint64
}

func (s *stubAuth) Register(_ context.Context, email, _ string) error {
	s.gotEmail = email
	return s.registerErr
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (utils.AccessToken, error) {
	s.gotEmail = email
	return s.token, s.loginErr
}

func (s *stubAuth) Profile(_ context.Context, id uint64) (service.Profile, error) {
	s.gotUserID = id
	return s.profile, s.profileErr
}

func (s *stubAuth) Logout(context.Context, *utils.SessionClaims) error { return s.logoutErr }

func TestRegister(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		want   string
	}{
		{"created", `{"email":"a@b.co","password":"secret1"}`, nil, http.StatusCreated, `{"message":"User registered successfully"}`},
		{"duplicate", `{"email":"a@b.co","password":"secret1"}`, service.ErrEmailExists, http.StatusBadRequest, `{"message":"User already exists"}`},
		{"bad json", `{"email":`, nil, http.StatusBadRequest, `{"message":"Invalid request body"}`},
		{"store down", `{"email":"a@b.co","password":"secret1"}`, errors.New("conn reset"), http.StatusInternalServerError, `{"message":"Server error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuth{registerErr: tc.err}, logging.Discard())
			rec := call(t, h.Register, http.MethodPost, tc.body, nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}
}

func TestRegister_ValidationError(t *testing.T) {
	ve := &service.ValidationError{Fields: []service.FieldError{
		{Field: "email", Message: "Please enter a valid email"},
		{Field: "password", Message: "Password must be at least 6 characters long"},
	}}
	h := NewAuthHandler(&stubAuth{registerErr: ve}, logging.Discard())

	rec := call(t, h.Register, http.MethodPost, `{"email":"x","password":"1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{
		"message":"Please enter a valid email",
		"errors":[
			{"field":"email","message":"Please enter a valid email"},
			{"field":"password","message":"Password must be at least 6 characters long"}
		]}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &stubAuth{token: utils.AccessToken{Token: "tok", ID: "j", Exp: exp}}
	h := NewAuthHandler(stub, logging.Discard())

	rec := call(t, h.Login, http.MethodPost, `{"email":"cook@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"tok","expires_at":"2030-01-02T03:04:05Z"}`, rec.Body.String())
	assert.Equal(t, "cook@example.com", stub.gotEmail)

	stub.loginErr = service.ErrInvalidCredentials
	rec = call(t, h.Login, http.MethodPost, `{"email":"cook@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, rec.Body.String())
}

func TestProfile(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	stub := &stubAuth{profile: service.Profile{ID: 4, Email: "cook@example.com", CreatedAt: created}}
	h := NewAuthHandler(stub, logging.Discard())

	rec := call(t, h.Profile, http.MethodGet, "", session(4))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":4,"email":"cook@example.com","created_at":"2024-05-06T07:08:09Z"}}`, rec.Body.String())
	assert.Equal(t, uint64(4), stub.gotUserID)
	assert.NotContains(t, rec.Body.String(), "password")

	stub.profileErr = service.ErrUserNotFound
	rec = call(t, h.Profile, http.MethodGet, "", session(4))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"User not found"}`, rec.Body.String())

	rec = call(t, h.Profile, http.MethodGet, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	stub := &stubAuth{}
	h := NewAuthHandler(stub, logging.Discard())

	rec := call(t, h.Logout, http.MethodPost, "", session(1))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stub.logoutErr = service.ErrRevocationUnavailable
	rec = call(t, h.Logout, http.MethodPost, "", session(1))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ----- recipes -----

type stubRecipes struct {
	saveID  uint64
	saveErr error
	list    []model.SavedRecipe
	listErr error
	gotUser uint64
	gotName string
}

func (s *stubRecipes) Save(_ context.Context, uid uint64, name string, _ []string, _ string) (uint64, error) {
	s.gotUser, s.gotName = uid, name
	return s.saveID, s.saveErr
}

func (s *stubRecipes) List(_ context.Context, uid uint64) ([]model.SavedRecipe, error) {
	s.gotUser = uid
	return s.list, s.listErr
}

func TestSaveRecipe(t *testing.T) {
	stub := &stubRecipes{saveID: 12}
	h := NewRecipeHandler(stub, logging.Discard())

	rec := call(t, h.Save, http.MethodPost, `{"name":"Soup","ingredients":["water"],"instructions":"boil"}`, session(3))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Recipe saved successfully","id":12}`, rec.Body.String())
	assert.Equal(t, uint64(3), stub.gotUser)
	assert.Equal(t, "Soup", stub.gotName)

	stub.saveErr = &service.ValidationError{Fields: []service.FieldError{
		{Field: "recipe", Message: "Recipe name, ingredients, and instructions are required"},
	}}
	rec = call(t, h.Save, http.MethodPost, `{"name":""}`, session(3))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Recipe name, ingredients, and instructions are required"`)

	stub.saveErr = errors.New("disk full")
	rec = call(t, h.Save, http.MethodPost, `{"name":"Soup","ingredients":["water"],"instructions":"boil"}`, session(3))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestListRecipes(t *testing.T) {
	stub := &stubRecipes{list: []model.SavedRecipe{}}
	h := NewRecipeHandler(stub, logging.Discard())

	rec := call(t, h.List, http.MethodGet, "", session(8))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"savedRecipes":[]}`, rec.Body.String())
	assert.Equal(t, uint64(8), stub.gotUser)

	stub.list = []model.SavedRecipe{{ID: 1, UserID: 8, RecipeName: "Soup", Ingredients: []string{"water"}, Instructions: "boil"}}
	rec = call(t, h.List, http.MethodGet, "", session(8))
	assert.Contains(t, rec.Body.String(), `"recipe_name":"Soup"`)

	stub.listErr = errors.New("boom")
	rec = call(t, h.List, http.MethodGet, "", session(8))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ----- generate -----

type stubGenerator struct {
	rec model.GeneratedRecipe
	err error
}

func (s stubGenerator) Generate(context.Context, []string, []string) (model.GeneratedRecipe, error) {
	return s.rec, s.err
}

func TestGenerate(t *testing.T) {
	raw := `{"name":"Salad","description":"d","ingredients":["kale"],"instructions":["toss"]}`
	ok := model.GeneratedRecipe{Name: "Salad", Description: "d", Ingredients: []string{"kale"}, Instructions: []string{"toss"}, Raw: raw}
	body := `{"tags":["vegan"],"ingredients":["kale"]}`

	rec := call(t, NewGenerateHandler(stubGenerator{rec: ok}, logging.Discard()).Generate, http.MethodPost, body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":{"name":"Salad"`)
	assert.Contains(t, rec.Body.String(), `"recipe":`)

	otherShape := `{"title":"Soup","ingredients":["water"],"instructions":["boil"]}`
	unparsed := stubGenerator{rec: model.GeneratedRecipe{Raw: otherShape}, err: service.ErrMalformedUpstream}
	rec = call(t, NewGenerateHandler(unparsed, logging.Discard()).Generate, http.MethodPost, body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, otherShape, got["recipe"])
	assert.NotContains(t, got, "result")

	empty := stubGenerator{err: service.ErrMalformedUpstream}
	rec = call(t, NewGenerateHandler(empty, logging.Discard()).Generate, http.MethodPost, body, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"message":"Upstream returned no recipe"}`, rec.Body.String())

	down := stubGenerator{err: errors.Join(service.ErrUpstream, errors.New("401"))}
	rec = call(t, NewGenerateHandler(down, logging.Discard()).Generate, http.MethodPost, body, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to generate recipe"}`, rec.Body.String())

	missing := stubGenerator{err: &service.ValidationError{Fields: []service.FieldError{
		{Field: "tags", Message: "Tags and ingredients are required"},
	}}}
	rec = call(t, NewGenerateHandler(missing, logging.Discard()).Generate, http.MethodPost, `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tags and ingredients are required")
}

// ----- health -----

type stubProbe struct{ err error }

func (s stubProbe) SelectOne(context.Context) (int, error) { return 1, s.err }

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler(stubProbe{}, logging.Discard())

	rec := call(t, h.Root, http.MethodGet, "", nil)
	assert.Equal(t, "Hello from Recipe Backend!", rec.Body.String())

	rec = call(t, h.Health, http.MethodGet, "", nil)
	assert.Equal(t, "ok", rec.Body.String())

	rec = call(t, h.TestDB, http.MethodGet, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Database connection successful!","result":[{"1":1}]}`, rec.Body.String())

	h = NewHealthHandler(stubProbe{err: errors.New("refused")}, logging.Discard())
	rec = call(t, h.TestDB, http.MethodGet, "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Database connection failed"}`, rec.Body.String())
}
