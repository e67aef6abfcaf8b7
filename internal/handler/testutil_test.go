package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"maintenance-service/internal/middleware"
	"maintenance-service/internal/model"
	"maintenance-service/internal/permission"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/config"
	"maintenance-service/pkg/database"
	"maintenance-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testPassword = "correct-horse"

// stubPresigner records the last presigned key and returns a fixed URL.
type stubPresigner struct {
	lastKey string
}

func (s *stubPresigner) PresignPut(_ context.Context, key, _ string) (string, error) {
	s.lastKey = key
	return "https://uploads.test/" + key, nil
}

// testServer wires the full route table over an in-memory database, the
// same way the entrypoint does.
type testServer struct {
	echo      *echo.Echo
	repos     *repository.Repositories
	presigner *stubPresigner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationTime: time.Hour})

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(
		&model.Tenant{}, &model.User{}, &model.Machine{},
		&model.MachineDocument{}, &model.WorkOrder{}, &model.PreventivePlan{},
	))

	repos := repository.New(database.NewFromGorm(gdb))
	presigner := &stubPresigner{}

	authHandler := NewAuthHandler(repos)
	userHandler := NewUserHandler(repos)
	machineHandler := NewMachineHandler(repos)
	documentHandler := NewDocumentHandler(repos, presigner)
	workOrderHandler := NewWorkOrderHandler(repos)
	planHandler := NewPlanHandler(repos)
	metricsHandler := NewMetricsHandler(repos, nil)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler

	e.POST("/api/signup", authHandler.Signup)
	e.POST("/api/auth/login", authHandler.Login)

	machines := e.Group("/api/machines")
	machines.GET("", machineHandler.List, middleware.RequireAuth)
	machines.POST("", machineHandler.Create, middleware.RequirePermission(permission.MachinesCreate))
	machines.GET("/:id", machineHandler.Get, middleware.RequireAuth)
	machines.PUT("/:id", machineHandler.Update, middleware.RequirePermission(permission.MachinesUpdate))
	machines.DELETE("/:id", machineHandler.Delete, middleware.RequirePermission(permission.MachinesDelete))
	machines.GET("/:id/documents", documentHandler.List, middleware.RequireAuth)
	machines.POST("/:id/documents/prepare-upload", documentHandler.PrepareUpload,
		middleware.RequirePermission(permission.DocumentsUpload))
	machines.POST("/:id/documents/confirm-upload", documentHandler.ConfirmUpload,
		middleware.RequirePermission(permission.DocumentsUpload))

	plans := e.Group("/api/preventive-plans")
	plans.GET("", planHandler.List, middleware.RequireAuth)
	plans.POST("", planHandler.Create, middleware.RequirePermission(permission.PreventivePlansCreate))
	plans.GET("/:id", planHandler.Get, middleware.RequireAuth)
	plans.PUT("/:id", planHandler.Update, middleware.RequirePermission(permission.PreventivePlansUpdate))
	plans.DELETE("/:id", planHandler.Delete, middleware.RequirePermission(permission.PreventivePlansDelete))

	workOrders := e.Group("/api/work-orders")
	workOrders.GET("", workOrderHandler.List, middleware.RequireAuth)
	workOrders.POST("", workOrderHandler.Create, middleware.RequirePermission(permission.WorkOrdersCreate))
	workOrders.GET("/:id", workOrderHandler.Get, middleware.RequireAuth)
	workOrders.PUT("/:id", workOrderHandler.Update, middleware.RequirePermission(permission.WorkOrdersUpdate))
	workOrders.DELETE("/:id", workOrderHandler.Delete, middleware.RequirePermission(permission.WorkOrdersDelete))
	workOrders.POST("/:id/assign", workOrderHandler.Assign, middleware.RequirePermission(permission.WorkOrdersAssign))
	workOrders.POST("/:id/start", workOrderHandler.Start, middleware.RequirePermission(permission.WorkOrdersStart))
	workOrders.POST("/:id/finish", workOrderHandler.Finish, middleware.RequirePermission(permission.WorkOrdersFinish))

	e.POST("/api/users", userHandler.Create, middleware.RequirePermission(permission.UsersCreate))
	e.GET("/api/metrics", metricsHandler.Overview, middleware.RequirePermission(permission.MetricsRead))

	return &testServer{echo: e, repos: repos, presigner: presigner}
}

// seedTenant creates a tenant with its general supervisor and returns both.
func (s *testServer) seedTenant(t *testing.T, slug string) (*model.Tenant, *model.User) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	tenant := &model.Tenant{Slug: slug, Name: slug, Active: true, Plan: "free"}
	admin := &model.User{Email: "admin@" + slug + ".test", PasswordHash: string(hash)}
	require.NoError(t, s.repos.Tenants.Signup(context.Background(), tenant, admin))
	return tenant, admin
}

func (s *testServer) seedUser(t *testing.T, tenantID uint, email string, role permission.Role) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{Email: email, PasswordHash: string(hash), Role: string(role), Active: true}
	require.NoError(t, s.repos.Users.Create(context.Background(), tenantID, user))
	return user
}

func (s *testServer) seedMachine(t *testing.T, tenantID uint, code string) *model.Machine {
	t.Helper()

	machine := &model.Machine{Code: code, Name: code, Status: model.MachineStatusOperational}
	require.NoError(t, s.repos.Machines.Create(context.Background(), tenantID, machine))
	return machine
}

func (s *testServer) seedWorkOrder(t *testing.T, tenantID, machineID uint, title string) *model.WorkOrder {
	t.Helper()

	wo := &model.WorkOrder{MachineID: machineID, Title: title, Type: model.WorkOrderTypeCorrective}
	require.NoError(t, s.repos.WorkOrder.Create(context.Background(), tenantID, wo))
	return wo
}

func (s *testServer) tokenFor(t *testing.T, user *model.User) string {
	t.Helper()

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.TenantID, user.Role)
	require.NoError(t, err)
	return token
}

// do performs a request against the wired routes and returns the recorder.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

// envelope decodes a response body into a generic map.
func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// errEnvelope decodes the uniform error body.
type errEnvelope struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errEnvelope {
	t.Helper()

	var out errEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
