package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"budgetpricing/collections"
	"budgetpricing/pricing"
	"budgetpricing/services"
	"budgetpricing/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// apiFixture is a seeded app with a session registry on zero-latency
// collaborators.
type apiFixture struct {
	app      *pocketbase.PocketBase
	sessions *pricing.Registry
	orders   services.OrderStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	sessions := pricing.NewRegistry(pricing.Deps{
		Intake:       services.BudgetIntake{},
		Recalculator: services.PassThroughRecalculator{},
		Searcher:     services.CatalogueSearch{App: app},
		Exporter:     services.SpreadsheetExporter{},
		Logger:       zap.NewNop(),
		TaskTimeout:  5 * time.Second,
	}, time.Hour)
	return &apiFixture{app: app, sessions: sessions, orders: services.OrderStore{App: app}}
}

// orderID returns the record id of a seeded order by its code.
func (f *apiFixture) orderID(t *testing.T, code string) string {
	t.Helper()
	rec, err := f.app.FindFirstRecordByData("orders", "code", code)
	if err != nil {
		t.Fatalf("order %s not found: %v", code, err)
	}
	return rec.Id
}

// openSession creates a session directly through the registry.
func (f *apiFixture) openSession(t *testing.T, code string) *pricing.Session {
	t.Helper()
	var order *pricing.Order
	if code != "" {
		o, err := f.orders.GetOrder(t.Context(), f.orderID(t, code))
		if err != nil {
			t.Fatalf("GetOrder(%s) error: %v", code, err)
		}
		order = o
	}
	s, err := f.sessions.Create(t.Context(), order)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return s
}

// call runs handler against a request built from method, target and a JSON
// body. pathValues are name/value pairs.
func (f *apiFixture) call(t *testing.T, handler func(*core.RequestEvent) error, method, target, body string, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.serve(t, handler, req, pathValues...)
}

func (f *apiFixture) serve(t *testing.T, handler func(*core.RequestEvent) error, req *http.Request, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d\nbody: %s", want, rec.Code, rec.Body.String())
	}
}

// expectBanner asserts an error banner response and returns it.
func expectBanner(t *testing.T, rec *httptest.ResponseRecorder, status int) Banner {
	t.Helper()
	expectStatus(t, rec, status)
	var body errorResponse
	decodeBody(t, rec, &body)
	if body.Error.Type != "error" || body.Error.Message == "" {
		t.Errorf("expected an error banner, got %+v", body.Error)
	}
	return body.Error
}

// waitForTask polls until the task slot leaves in_flight.
func waitForTask(t *testing.T, s *pricing.Session, key pricing.TaskKey) pricing.TaskState {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if st := s.Task(key); st.Status != pricing.TaskInFlight {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s still in flight", key)
	return pricing.TaskState{}
}

// findRow returns the view of a row by id.
func findRow(t *testing.T, v pricing.SessionView, id string) pricing.RowView {
	t.Helper()
	for _, r := range v.Rows {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("row %s not in view", id)
	return pricing.RowView{}
}

// workbookUpload builds a multipart request carrying a small workbook.
func workbookUpload(t *testing.T, target, fileName string) *http.Request {
	t.Helper()
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Rozpočet")
	var xlsx bytes.Buffer
	if err := f.Write(&xlsx); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(xlsx.Bytes())
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
