package guard_test

import (
	"context"
	"sync"
	"time"

	guard "github.com/goliatone/go-guard"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// stubIdentity is a plain Identity value for tests
type stubIdentity struct {
	id       string
	username string
	email    string
	role     string
	active   bool
}

func (s stubIdentity) ID() string       { return s.id }
func (s stubIdentity) Username() string { return s.username }
func (s stubIdentity) Email() string    { return s.email }
func (s stubIdentity) Role() string     { return s.role }
func (s stubIdentity) Active() bool     { return s.active }

// MockDirectory implements guard.UserDirectory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindByID(ctx context.Context, id string) (guard.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(guard.Identity)
	return identity, args.Error(1)
}

func (m *MockDirectory) FindByEmail(ctx context.Context, email string) (guard.Identity, error) {
	args := m.Called(ctx, email)
	identity, _ := args.Get(0).(guard.Identity)
	return identity, args.Error(1)
}

// MockVerifier implements guard.CredentialVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyCredentials(ctx context.Context, identifier, password string) (guard.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(guard.Identity)
	return identity, args.Error(1)
}

// MockSessionStore implements guard.LoginSessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Open(ctx context.Context, session *guard.LoginSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Close(ctx context.Context, fingerprint string, at time.Time) (*guard.LoginSession, error) {
	args := m.Called(ctx, fingerprint, at)
	session, _ := args.Get(0).(*guard.LoginSession)
	return session, args.Error(1)
}

func (m *MockSessionStore) Revoke(ctx context.Context, fingerprint string) error {
	args := m.Called(ctx, fingerprint)
	return args.Error(0)
}

func (m *MockSessionStore) FindByFingerprint(ctx context.Context, fingerprint string) (*guard.LoginSession, error) {
	args := m.Called(ctx, fingerprint)
	session, _ := args.Get(0).(*guard.LoginSession)
	return session, args.Error(1)
}

// capturingStore records every activity write for later inspection.
type capturingStore struct {
	mu      sync.Mutex
	records []*guard.ActivityRecord
}

func (c *capturingStore) CreateRecord(ctx context.Context, record *guard.ActivityRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
	return nil
}

func (c *capturingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *capturingStore) last() *guard.ActivityRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return nil
	}
	return c.records[len(c.records)-1]
}

// failingStore injects storage faults into the recorder.
type failingStore struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *failingStore) CreateRecord(ctx context.Context, record *guard.ActivityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *failingStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingStore holds writes until released, to fill the recorder queue.
// entered is signaled once per write so tests can synchronize with the
// worker.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) CreateRecord(ctx context.Context, record *guard.ActivityRecord) error {
	if b.entered != nil {
		select {
		case b.entered <- struct{}{}:
		default:
		}
	}
	<-b.release
	return nil
}

// nopLogger silences component logging in tests.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func testConfig() guard.SimpleConfig {
	return guard.SimpleConfig{
		SigningKey:             "0123456789abcdef0123456789abcdef",
		SigningMethod:          "HS256",
		TokenExpiration:        24,
		RefreshTokenExpiration: 168,
		Issuer:                 "guard-test",
		Audience:               []string{"guard-test-suite"},
	}
}

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
