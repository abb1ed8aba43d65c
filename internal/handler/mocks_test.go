package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/EgonMoreau/VivesBike/internal/domain"
	"github.com/EgonMoreau/VivesBike/internal/handler"
)

// ---- mock BikeServicer -----------------------------------------------------

// mockBikeServicer is a test double for handler.BikeServicer.
// Set only the method fields your test needs.
type mockBikeServicer struct {
	register      func(ctx context.Context, b domain.Bike) (int64, error)
	changeStatus  func(ctx context.Context, id int64, status domain.BikeStatus) error
	markInRepair  func(ctx context.Context, id int64) error
	markRetired   func(ctx context.Context, id int64) error
	markActive    func(ctx context.Context, id int64) error
	changeNote    func(ctx context.Context, id int64, note *string) error
	find          func(ctx context.Context, id int64) (*domain.Bike, error)
	listAvailable func(ctx context.Context) ([]domain.Bike, error)
	list          func(ctx context.Context) ([]domain.Bike, error)
}

func (m *mockBikeServicer) Register(ctx context.Context, b domain.Bike) (int64, error) {
	return m.register(ctx, b)
}
func (m *mockBikeServicer) ChangeStatus(ctx context.Context, id int64, s domain.BikeStatus) error {
	return m.changeStatus(ctx, id, s)
}
func (m *mockBikeServicer) MarkInRepair(ctx context.Context, id int64) error {
	return m.markInRepair(ctx, id)
}
func (m *mockBikeServicer) MarkRetired(ctx context.Context, id int64) error {
	return m.markRetired(ctx, id)
}
func (m *mockBikeServicer) MarkActive(ctx context.Context, id int64) error {
	return m.markActive(ctx, id)
}
func (m *mockBikeServicer) ChangeNote(ctx context.Context, id int64, note *string) error {
	return m.changeNote(ctx, id, note)
}
func (m *mockBikeServicer) Find(ctx context.Context, id int64) (*domain.Bike, error) {
	return m.find(ctx, id)
}
func (m *mockBikeServicer) ListAvailable(ctx context.Context) ([]domain.Bike, error) {
	return m.listAvailable(ctx)
}
func (m *mockBikeServicer) List(ctx context.Context) ([]domain.Bike, error) {
	return m.list(ctx)
}

// ---- mock MemberServicer ---------------------------------------------------

type mockMemberServicer struct {
	enroll       func(ctx context.Context, m *domain.Member) (domain.Member, error)
	edit         func(ctx context.Context, m *domain.Member) error
	correctStart func(ctx context.Context, id string, start *time.Time) error
	unsubscribe  func(ctx context.Context, id string) error
	find         func(ctx context.Context, id string) (*domain.Member, error)
	list         func(ctx context.Context) ([]domain.Member, error)
}

func (m *mockMemberServicer) Enroll(ctx context.Context, mem *domain.Member) (domain.Member, error) {
	return m.enroll(ctx, mem)
}
func (m *mockMemberServicer) Edit(ctx context.Context, mem *domain.Member) error {
	return m.edit(ctx, mem)
}
func (m *mockMemberServicer) CorrectStart(ctx context.Context, id string, start *time.Time) error {
	return m.correctStart(ctx, id, start)
}
func (m *mockMemberServicer) Unsubscribe(ctx context.Context, id string) error {
	return m.unsubscribe(ctx, id)
}
func (m *mockMemberServicer) Find(ctx context.Context, id string) (*domain.Member, error) {
	return m.find(ctx, id)
}
func (m *mockMemberServicer) List(ctx context.Context) ([]domain.Member, error) {
	return m.list(ctx)
}

// ---- mock RideServicer -----------------------------------------------------

type mockRideServicer struct {
	open          func(ctx context.Context, req domain.Ride) (int64, error)
	close         func(ctx context.Context, id int64) (domain.Ride, error)
	find          func(ctx context.Context, id int64) (*domain.Ride, error)
	firstOfMember func(ctx context.Context, memberID string) (*domain.Ride, error)
	openOfMember  func(ctx context.Context, memberID string) ([]domain.Ride, error)
	openOfBike    func(ctx context.Context, bikeID int64) ([]domain.Ride, error)
	list          func(ctx context.Context) ([]domain.Ride, error)
}

func (m *mockRideServicer) Open(ctx context.Context, req domain.Ride) (int64, error) {
	return m.open(ctx, req)
}
func (m *mockRideServicer) Close(ctx context.Context, id int64) (domain.Ride, error) {
	return m.close(ctx, id)
}
func (m *mockRideServicer) Find(ctx context.Context, id int64) (*domain.Ride, error) {
	return m.find(ctx, id)
}
func (m *mockRideServicer) FirstOfMember(ctx context.Context, memberID string) (*domain.Ride, error) {
	return m.firstOfMember(ctx, memberID)
}
func (m *mockRideServicer) OpenOfMember(ctx context.Context, memberID string) ([]domain.Ride, error) {
	return m.openOfMember(ctx, memberID)
}
func (m *mockRideServicer) OpenOfBike(ctx context.Context, bikeID int64) ([]domain.Ride, error) {
	return m.openOfBike(ctx, bikeID)
}
func (m *mockRideServicer) List(ctx context.Context) ([]domain.Ride, error) {
	return m.list(ctx)
}

// ---- mock Exporter ---------------------------------------------------------

type mockExporter struct {
	export func(ctx context.Context) ([]domain.RideExportRow, error)
}

func (m *mockExporter) Export(ctx context.Context) ([]domain.RideExportRow, error) {
	return m.export(ctx)
}

// compile-time checks: every mock must satisfy its handler interface.
var (
	_ handler.BikeServicer   = (*mockBikeServicer)(nil)
	_ handler.MemberServicer = (*mockMemberServicer)(nil)
	_ handler.RideServicer   = (*mockRideServicer)(nil)
	_ handler.Exporter       = (*mockExporter)(nil)
)

// ---- helpers ---------------------------------------------------------------

// services bundles the mocks of one test. Nil entries are replaced with empty
// mocks so an unexpected call panics instead of hitting a nil interface.
type services struct {
	bikes   *mockBikeServicer
	members *mockMemberServicer
	rides   *mockRideServicer
	export  *mockExporter
}

// newHTTPHandler wires a Server with the given mocks into a chi router.
// This mirrors how main.go wires it in production, minus the middleware.
func newHTTPHandler(s services) http.Handler {
	if s.bikes == nil {
		s.bikes = &mockBikeServicer{}
	}
	if s.members == nil {
		s.members = &mockMemberServicer{}
	}
	if s.rides == nil {
		s.rides = &mockRideServicer{}
	}
	if s.export == nil {
		s.export = &mockExporter{}
	}
	srv := handler.NewServer(s.bikes, s.members, s.rides, s.export, nil)
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// do sends one request through h and returns the recorder.
func do(h http.Handler, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeError decodes an error envelope and returns its code.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func moneyPtr(m domain.Money) *domain.Money { return &m }

func timePtr(t time.Time) *time.Time { return &t }
