package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"kitchen-ledger/internal/api/handlers"
	"kitchen-ledger/internal/api/routes"
	"kitchen-ledger/internal/middleware"
	"kitchen-ledger/internal/testdb"
	"kitchen-ledger/internal/utils"
	"kitchen-ledger/pkg/ingredient"
	"kitchen-ledger/pkg/jwt"
	"kitchen-ledger/pkg/recipe"
	"kitchen-ledger/pkg/user"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body map[string]interface{}

func newApp(t *testing.T) *fiber.App {
	db := testdb.New(t)
	utils.InitValidator()

	jwtService := jwt.NewJWTServiceWithSecret("test-secret")
	userRepository := user.NewUserRepository(db)
	ingredientRepository := ingredient.NewIngredientRepository(db)

	ingredientService := ingredient.NewIngredientService(ingredientRepository, userRepository, nil, nil)

	app := fiber.New()
	cfg := routes.Config{
		App:               app,
		UserHandler:       handlers.NewUserHandler(user.NewUserService(userRepository, jwtService), utils.Validate),
		IngredientHandler: handlers.NewIngredientHandler(ingredientService, utils.Validate),
		RecipeHandler: handlers.NewRecipeHandler(
			recipe.NewRecipeService(recipe.NewRecipeRepository(db), ingredientRepository, ingredientService),
			utils.Validate,
		),
		Middleware: middleware.NewMiddleware(),
		JWTService: jwtService,
	}
	cfg.Setup()
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, payload interface{}, token string) (int, body) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	out := body{}
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return res.StatusCode, out
}

func login(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	status, _ := call(t, app, http.MethodPost, "/api/v1/users/register", body{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, fiber.StatusCreated, status)

	status, res := call(t, app, http.MethodPost, "/api/v1/users/login", body{
		"username": username,
		"password": "password123",
	}, "")
	require.Equal(t, fiber.StatusOK, status)
	return res["token"].(string)
}

func data(t *testing.T, res body) body {
	t.Helper()
	d, ok := res["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", res)
	return d
}

func createIngredient(t *testing.T, app *fiber.App, token, name string, quantity float64, cost string) string {
	t.Helper()

	status, res := call(t, app, http.MethodPost, "/api/v1/ingredients", body{
		"name":     name,
		"quantity": quantity,
		"unit":     "grams",
		"cost":     cost,
	}, token)
	require.Equal(t, fiber.StatusCreated, status, res)
	return data(t, res)["id"].(string)
}

func TestPing(t *testing.T) {
	app := newApp(t)

	status, res := call(t, app, http.MethodGet, "/api/ping", nil, "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pong", res["message"])
}

func TestRegisterAndLogin(t *testing.T) {
	app := newApp(t)
	token := login(t, app, "testuser")

	status, res := call(t, app, http.MethodPost, "/api/v1/users/register", body{
		"username": "another",
		"email":    "TestUser@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "A user with this email already exists.", res["error"])

	status, res = call(t, app, http.MethodPost, "/api/v1/users/login", body{
		"username": "testuser",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid Credentials", res["error"])

	status, res = call(t, app, http.MethodGet, "/api/v1/users/me", nil, token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "testuser", data(t, res)["username"])
}

func TestLoginResponse(t *testing.T) {
	app := newApp(t)
	login(t, app, "testuser")

	_, res := call(t, app, http.MethodPost, "/api/v1/users/login", body{
		"username": "testuser",
		"password": "password123",
	}, "")

	assert.Equal(t, "Login successful", res["message"])
	assert.Equal(t, "testuser", res["username"])
	assert.NotEmpty(t, res["token"])
}

func TestAuthRequired(t *testing.T) {
	app := newApp(t)

	status, res := call(t, app, http.MethodGet, "/api/v1/ingredients", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, false, res["status"])

	status, _ = call(t, app, http.MethodGet, "/api/v1/recipes", nil, "not-a-token")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestStockAdjustmentEndpoints(t *testing.T) {
	app := newApp(t)
	token := login(t, app, "testuser")
	salt := createIngredient(t, app, token, "Salt", 50, "0.99")

	status, res := call(t, app, http.MethodPost, "/api/v1/ingredients/"+salt+"/add-stock", body{"amount": "25"}, token)
	require.Equal(t, fiber.StatusOK, status, res)
	assert.Equal(t, 75.0, data(t, res)["new_quantity"])

	status, res = call(t, app, http.MethodPost, "/api/v1/ingredients/"+salt+"/deduct-stock", body{"amount": 25}, token)
	require.Equal(t, fiber.StatusOK, status, res)
	assert.Equal(t, 50.0, data(t, res)["new_quantity"])

	status, res = call(t, app, http.MethodPost, "/api/v1/ingredients/"+salt+"/deduct-stock", body{"amount": 500}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "insufficient_stock", res["code"])

	for _, amount := range []interface{}{"abc", -3, 0, nil} {
		status, res = call(t, app, http.MethodPost, "/api/v1/ingredients/"+salt+"/add-stock", body{"amount": amount}, token)
		assert.Equal(t, fiber.StatusBadRequest, status, amount)
		assert.Equal(t, "invalid_amount", res["code"], amount)
	}

	status, res = call(t, app, http.MethodGet, "/api/v1/ingredients/"+salt, nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 50.0, data(t, res)["quantity"])
}

func TestAddStock_OverflowIsRejected(t *testing.T) {
	app := newApp(t)
	token := login(t, app, "testuser")
	salt := createIngredient(t, app, token, "Salt", 1e308, "0.99")

	status, res := call(t, app, http.MethodPost, "/api/v1/ingredients/"+salt+"/add-stock", body{"amount": 1e308}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_amount", res["code"])

	status, res = call(t, app, http.MethodGet, "/api/v1/ingredients/"+salt, nil, token)
	require.Equal(t, fiber.StatusOK, status, res)
	assert.Equal(t, 1e308, data(t, res)["quantity"])

	status, _ = call(t, app, http.MethodGet, "/api/v1/ingredients", nil, token)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestStockAdjustment_NotFound(t *testing.T) {
	app := newApp(t)
	token := login(t, app, "testuser")

	for _, id := range []string{"3", uuid.NewString()} {
		status, res := call(t, app, http.MethodPost, "/api/v1/ingredients/"+id+"/deduct-stock", body{"amount": "abc"}, token)
		assert.Equal(t, fiber.StatusNotFound, status, id)
		assert.Equal(t, "not_found", res["code"], id)
	}
}

func TestIngredientsAreScopedToOwner(t *testing.T) {
	app := newApp(t)
	owner := login(t, app, "owner")
	other := login(t, app, "other")
	salt := createIngredient(t, app, owner, "Salt", 50, "0.99")

	status, _ := call(t, app, http.MethodGet, "/api/v1/ingredients/"+salt, nil, other)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, res := call(t, app, http.MethodGet, "/api/v1/ingredients", nil, other)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, data(t, res)["items"])
}

func TestCreateIngredient_Validation(t *testing.T) {
	app := newApp(t)
	token := login(t, app, "testuser")

	status, _ := call(t, app, http.MethodPost, "/api/v1/ingredients", body{"quantity": 1, "unit": "g", "cost": 1}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	for _, cost := range []interface{}{-1, "1000000"} {
		status, res := call(t, app, http.MethodPost, "/api/v1/ingredients", body{"name": "Salt", "quantity": 1, "unit": "g", "cost": cost}, token)
		assert.Equal(t, fiber.StatusBadRequest, status, cost)
		assert.Equal(t, "invalid_cost", res["code"], cost)
	}
}

func TestRecipeDetailEndpoint(t *testing.T) {
	app := newApp(t)
	token := login(t, app, "testuser")
	flour := createIngredient(t, app, token, "Flour", 1000, "3.00")
	sugar := createIngredient(t, app, token, "Sugar", 1000, "2.50")

	status, res := call(t, app, http.MethodPost, "/api/v1/recipes", body{
		"name":        "Test Cake",
		"description": "A cake that tests!",
		"servings":    12,
		"ingredients": []body{
			{"ingredient": flour, "amount": 350, "unit": "grams"},
			{"ingredient": sugar, "amount": 150, "unit": "grams"},
		},
	}, token)
	require.Equal(t, fiber.StatusCreated, status, res)
	cake := data(t, res)["id"].(string)

	status, res = call(t, app, http.MethodGet, "/api/v1/recipes/"+cake, nil, token)
	require.Equal(t, fiber.StatusOK, status)
	detail := data(t, res)
	assert.Equal(t, 1.42, detail["total_cost"])
	assert.Equal(t, 0.12, detail["cost_per_serving"])
	assert.NotContains(t, detail, "warnings")
	assert.NotContains(t, detail, "suggested_price")
	assert.Len(t, detail["ingredients"], 2)

	_, res = call(t, app, http.MethodGet, "/api/v1/recipes/"+cake+"?margin=0.3", nil, token)
	assert.Equal(t, 1.85, data(t, res)["suggested_price"])

	_, res = call(t, app, http.MethodGet, "/api/v1/recipes/"+cake+"?margin=abc", nil, token)
	assert.Equal(t, "Invalid margin", data(t, res)["suggested_price"])
}

func TestRecipeEndpoints_Validation(t *testing.T) {
	app := newApp(t)
	token := login(t, app, "testuser")

	status, _ := call(t, app, http.MethodPost, "/api/v1/recipes", body{"servings": 4}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, res := call(t, app, http.MethodPost, "/api/v1/recipes", body{
		"name":        "Ghost Cake",
		"servings":    4,
		"ingredients": []body{{"ingredient": uuid.NewString(), "amount": 1, "unit": "g"}},
	}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_recipe_ingredient", res["code"])

	status, _ = call(t, app, http.MethodGet, "/api/v1/recipes/"+uuid.NewString(), nil, token)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestBakeEndpoint(t *testing.T) {
	app := newApp(t)
	token := login(t, app, "testuser")
	flour := createIngredient(t, app, token, "Flour", 1000, "3.00")

	_, res := call(t, app, http.MethodPost, "/api/v1/recipes", body{
		"name":        "Bread",
		"servings":    2,
		"ingredients": []body{{"ingredient": flour, "amount": 400, "unit": "grams"}},
	}, token)
	bread := data(t, res)["id"].(string)

	status, res := call(t, app, http.MethodPost, "/api/v1/recipes/"+bread+"/bake", nil, token)
	require.Equal(t, fiber.StatusOK, status, res)
	assert.Equal(t, 1.0, data(t, res)["scale"])

	status, res = call(t, app, http.MethodPost, "/api/v1/recipes/"+bread+"/bake", body{"scale": "2"}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "insufficient_stock", res["code"])

	status, res = call(t, app, http.MethodPost, "/api/v1/recipes/"+bread+"/bake", body{"scale": 0}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_scale", res["code"])

	_, res = call(t, app, http.MethodGet, "/api/v1/ingredients/"+flour, nil, token)
	assert.Equal(t, 600.0, data(t, res)["quantity"])
}
