package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"menu-app-go/internal/auth"
	"menu-app-go/internal/config"
	"menu-app-go/internal/db/dbtest"
	catalogdomain "menu-app-go/internal/domain/catalog"
	userdomain "menu-app-go/internal/domain/user"
	"menu-app-go/internal/media"
	"menu-app-go/internal/metrics"
	catalogrepo "menu-app-go/internal/repository/postgres/catalog"
	userrepo "menu-app-go/internal/repository/postgres/user"
	"menu-app-go/internal/transport/httpserver"
	"menu-app-go/internal/transport/httpserver/handler"
	authmw "menu-app-go/internal/transport/httpserver/middleware"
	"menu-app-go/pkg/logger"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	users  *userdomain.Service
	tokens *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gormDB := dbtest.Open(t)
	log := logger.Nop()

	cfg := config.Config{
		CORSOrigins: []string{"http://localhost:5173"},
		Media:       config.MediaConfig{Backend: "local", LocalDir: t.TempDir(), PublicBaseURL: "/media"},
		Metrics:     config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	users := userdomain.NewService(userrepo.NewPostgres(gormDB)).WithCost(bcrypt.MinCost)
	tokens := auth.NewIssuer("test-secret", time.Hour)
	handlers := handler.New(handler.Options{
		Catalog: catalogdomain.NewService(catalogrepo.NewPostgres(gormDB)),
		Users:   users,
		Tokens:  tokens,
		Photos:  media.NewPhotos(media.NewLocalStore(cfg.Media.LocalDir, cfg.Media.PublicBaseURL), "photos"),
		Queries: catalogdomain.NewQueryParser(time.UTC),
	}, log)

	router := httpserver.NewRouter(cfg, handlers, authmw.NewAuth(tokens, users, log), metrics.New(), log)
	return &testServer{t: t, router: router, users: users, tokens: tokens}
}

func (s *testServer) user(username string, staff bool) string {
	s.t.Helper()
	created, err := s.users.CreateUser(context.Background(), userdomain.CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret",
		IsStaff:  staff,
	})
	require.NoError(s.t, err)

	token, _, err := s.tokens.Issue(auth.Identity{UserID: created.ID, Username: created.Username, IsStaff: created.IsStaff})
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch value := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(value))
	default:
		payload, err := json.Marshal(value)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value), rec.Body.String())
	return value
}

type errorResponse struct {
	Error struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Fields  map[string][]string `json:"fields"`
	} `json:"error"`
}

type dishResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        string  `json:"price"`
	PrepTime     int     `json:"prep_time"`
	IsVegetarian bool    `json:"is_vegetarian"`
	Image        *string `json:"image"`
	Menus        []int64 `json:"menus"`
}

type nestedMenuResponse struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Dishes []dishResponse `json:"dishes"`
}

type idsMenuResponse struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Dishes []int64 `json:"dishes"`
}

func meatDish() map[string]any {
	return map[string]any{
		"name":          "Test Meat Dish 1",
		"description":   "Slow cooked beef",
		"price":         "10.50",
		"prep_time":     60,
		"is_vegetarian": false,
	}
}

func (s *testServer) createDish(token string) dishResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/private/dish/", token, meatDish())
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dishResponse](s.t, rec)
}

func (s *testServer) createMenu(token, name string, dishIDs ...int64) idsMenuResponse {
	s.t.Helper()
	if dishIDs == nil {
		dishIDs = []int64{}
	}
	rec := s.do(http.MethodPost, "/v1/private/menu/", token, map[string]any{
		"name":        name,
		"description": name + " description",
		"dishes":      dishIDs,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[idsMenuResponse](s.t, rec)
}

func TestPublicMenuScenario(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)

	dish := s.createDish(owner)
	assert.Equal(t, "10.50", dish.Price)
	assert.Equal(t, []int64{}, dish.Menus)

	menu := s.createMenu(owner, "Test Menu 1", dish.ID)
	assert.Equal(t, []int64{dish.ID}, menu.Dishes)

	rec := s.do(http.MethodGet, "/v1/public/menu/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	menus := decode[[]nestedMenuResponse](t, rec)
	require.Len(t, menus, 1)
	assert.Equal(t, "Test Menu 1", menus[0].Name)
	require.Len(t, menus[0].Dishes, 1)
	assert.Equal(t, "Test Meat Dish 1", menus[0].Dishes[0].Name)
	assert.Equal(t, "10.50", menus[0].Dishes[0].Price)
	assert.Equal(t, 60, menus[0].Dishes[0].PrepTime)
	assert.False(t, menus[0].Dishes[0].IsVegetarian)
	assert.Nil(t, menus[0].Dishes[0].Image)

	rec = s.do(http.MethodGet, fmt.Sprintf("/v1/private/dish/%d", dish.ID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{menu.ID}, decode[dishResponse](t, rec).Menus)
}

func TestPublicMenuFilters(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)
	staff := s.user("staff", true)
	dish := s.createDish(owner)
	s.createMenu(owner, "Test Menu 1", dish.ID)
	s.createMenu(owner, "Empty Menu")

	rec := s.do(http.MethodGet, "/v1/public/menu", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]nestedMenuResponse](t, rec), 1)

	rec = s.do(http.MethodGet, "/v1/public/menu", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]nestedMenuResponse](t, rec), 2)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	rec = s.do(http.MethodGet, "/v1/public/menu/?cgte="+tomorrow, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]nestedMenuResponse](t, rec))

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	rec = s.do(http.MethodGet, "/v1/public/menu/?cgte="+yesterday+"&fn=menu+1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]nestedMenuResponse](t, rec), 1)

	rec = s.do(http.MethodGet, "/v1/public/menu/?cgte=soon&sn=UP", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, []string{"Enter a valid date/time."}, body.Error.Fields["cgte"])
	assert.Contains(t, body.Error.Fields, "sn")
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/v1/private/menu/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decode[errorResponse](t, rec).Error.Code)

	rec = s.do(http.MethodGet, "/v1/public/menu/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/v1/cards/", "", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/v1/cards/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMenuWritePermissions(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)
	stranger := s.user("stranger", false)
	staff := s.user("staff", true)
	menu := s.createMenu(owner, "Lunch")
	path := fmt.Sprintf("/v1/private/menu/%d", menu.ID)

	rec := s.do(http.MethodGet, path, stranger, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPatch, path, stranger, map[string]any{"name": "Dinner"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "permission_denied", decode[errorResponse](t, rec).Error.Code)

	rec = s.do(http.MethodPatch, "/v1/private/menu/999", stranger, map[string]any{"name": "Dinner"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "menu_not_found", decode[errorResponse](t, rec).Error.Code)

	rec = s.do(http.MethodPatch, path, staff, map[string]any{"name": "Dinner"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Dinner", decode[idsMenuResponse](t, rec).Name)

	rec = s.do(http.MethodPut, path, owner, map[string]any{"name": "Supper"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"This field is required."}, decode[errorResponse](t, rec).Error.Fields["description"])

	rec = s.do(http.MethodDelete, path, stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMenuValidation(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)
	s.createMenu(owner, "Lunch")

	rec := s.do(http.MethodPost, "/v1/private/menu/", owner, map[string]any{
		"name":        "Lunch",
		"description": "again",
		"dishes":      []int64{42},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode[errorResponse](t, rec).Error.Fields
	assert.Equal(t, []string{"Menu with this name already exists."}, fields["name"])
	assert.Equal(t, []string{"Invalid dish id 42."}, fields["dishes"])

	rec = s.do(http.MethodPost, "/v1/private/menu/", owner, `{"name": "x", "colour": "red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[errorResponse](t, rec).Error.Code)
}

func TestPutAcceptsFetchedRecord(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)
	dish := s.createDish(owner)
	path := fmt.Sprintf("/v1/private/dish/%d", dish.ID)

	rec := s.do(http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[map[string]any](t, rec)
	require.Contains(t, fetched, "created_at")
	fetched["id"] = 999
	fetched["name"] = "Renamed"

	rec = s.do(http.MethodPut, path, owner, fetched)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dishResponse](t, rec)
	assert.Equal(t, dish.ID, updated.ID)
	assert.Equal(t, "Renamed", updated.Name)

	menu := s.createMenu(owner, "Lunch")
	menuPath := fmt.Sprintf("/v1/private/menu/%d", menu.ID)
	rec = s.do(http.MethodPatch, menuPath, owner, map[string]any{
		"id":          1234,
		"description": "Midday",
		"created_at":  "2020-01-01T00:00:00Z",
		"updated_at":  "2020-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPatch, menuPath, owner, map[string]any{"image": "x.jpg"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDishValidation(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)

	cases := map[string]string{
		"0":        "Ensure this value is greater than or equal to 0.01.",
		"1.005":    "Ensure that there are no more than 2 decimal places.",
		"12345.67": "Ensure that there are no more than 6 digits in total.",
	}
	for price, message := range cases {
		body := meatDish()
		body["price"] = price
		rec := s.do(http.MethodPost, "/v1/private/dish/", owner, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, price)
		assert.Contains(t, decode[errorResponse](t, rec).Error.Fields["price"], message, price)
	}

	body := meatDish()
	body["prep_time"] = "soon"
	rec := s.do(http.MethodPost, "/v1/private/dish/", owner, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error.Fields, "prep_time")

	body = meatDish()
	body["price"] = 7.25
	rec = s.do(http.MethodPost, "/v1/private/dish/", owner, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "7.25", decode[dishResponse](t, rec).Price)
}

func TestStrictDishViewset(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)
	stranger := s.user("stranger", false)
	dish := s.createDish(owner)
	path := fmt.Sprintf("/v1/dishes/%d", dish.ID)

	rec := s.do(http.MethodGet, path, stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPatch, path, owner, map[string]any{"is_vegetarian": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dishResponse](t, rec).IsVegetarian)

	rec = s.do(http.MethodGet, "/v1/dishes/?is_vegetarian=false", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]dishResponse](t, rec))
}

func TestCardsViewset(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)
	dish := s.createDish(owner)

	rec := s.do(http.MethodPost, "/v1/cards/", owner, map[string]any{
		"name":        "Card",
		"description": "Daily card",
		"dishes":      []int64{dish.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s.createMenu(owner, "Empty")

	rec = s.do(http.MethodGet, "/v1/cards/?ordering=-name", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	menus := decode[[]nestedMenuResponse](t, rec)
	require.Len(t, menus, 1)
	assert.Equal(t, "Card", menus[0].Name)

	rec = s.do(http.MethodGet, "/v1/cards/?ordering=price", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"Invalid ordering field: price."}, decode[errorResponse](t, rec).Error.Fields["ordering"])

	rec = s.do(http.MethodGet, "/v1/private/menu/?ordering=dish_count", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]nestedMenuResponse](t, rec)
	require.Len(t, all, 2)
	assert.Equal(t, "Empty", all[0].Name)
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadDishImage(t *testing.T) {
	s := newTestServer(t)
	owner := s.user("owner", false)
	stranger := s.user("stranger", false)
	dish := s.createDish(owner)
	path := fmt.Sprintf("/v1/private/dish/%d/image", dish.ID)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "dish.png")
	require.NoError(t, err)
	_, err = part.Write(pngImage(t))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+owner)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[dishResponse](t, rec)
	require.NotNil(t, updated.Image)
	assert.True(t, strings.HasPrefix(*updated.Image, "/media/photos/dish-"), *updated.Image)

	rec = s.do(http.MethodGet, *updated.Image, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPut, path, bytes.NewReader(pngImage(t)))
	req.Header.Set("Authorization", "Bearer "+owner)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	replaced := decode[dishResponse](t, rec)
	require.NotNil(t, replaced.Image)
	require.NotEqual(t, *updated.Image, *replaced.Image)

	rec = s.do(http.MethodGet, *replaced.Image, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, *updated.Image, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "previous photo is removed")

	req = httptest.NewRequest(http.MethodPut, path, bytes.NewReader([]byte("not an image")))
	req.Header.Set("Authorization", "Bearer "+owner)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error.Fields, "image")

	req = httptest.NewRequest(http.MethodPut, path, bytes.NewReader(pngImage(t)))
	req.Header.Set("Authorization", "Bearer "+stranger)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.user("owner", false)

	rec := s.do(http.MethodPost, "/v1/auth/token", "", map[string]string{"username": "owner", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[errorResponse](t, rec).Error.Code)

	rec = s.do(http.MethodPost, "/v1/auth/token", "", map[string]string{"username": "owner", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[struct {
		Token string `json:"token"`
	}](t, rec).Token
	require.NotEmpty(t, token)

	rec = s.do(http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "owner", me["username"])

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.SetBasicAuth("owner", "secret")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(http.MethodGet, "/v1/public/menu", "", nil)
	rec = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/public/menu")
}
