package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budgetpricing/pricing"
)

func TestHandleUpload(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "089N")

	req := workbookUpload(t, "/api/sessions/"+s.ID()+"/upload", "Pelhřimov_Budget_v1.xlsx")
	rec := f.serve(t, HandleUpload(f.sessions), req, "sessionId", s.ID())
	expectStatus(t, rec, http.StatusAccepted)

	var body taskResponse
	decodeBody(t, rec, &body)
	if body.Task != "upload" {
		t.Errorf("task = %q, want upload", body.Task)
	}

	st := waitForTask(t, s, pricing.TaskKey{Action: pricing.ActionUpload})
	if st.Status != pricing.TaskSucceeded {
		t.Fatalf("upload status = %s (%s)", st.Status, st.Reason)
	}

	view := s.View()
	if view.Step != pricing.StepPrice {
		t.Errorf("expected price step after upload, got %d", view.Step)
	}
	if view.FileName != "Pelhřimov_Budget_v1.xlsx" {
		t.Errorf("fileName = %q", view.FileName)
	}
	if len(view.Rows) != 8 {
		t.Errorf("expected 8 rows, got %d", len(view.Rows))
	}
}

func TestHandleUpload_RejectsExtension(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "")

	req := workbookUpload(t, "/api/sessions/"+s.ID()+"/upload", "budget.csv")
	rec := f.serve(t, HandleUpload(f.sessions), req, "sessionId", s.ID())
	expectBanner(t, rec, http.StatusBadRequest)

	if s.Task(pricing.TaskKey{Action: pricing.ActionUpload}).Status != pricing.TaskIdle {
		t.Error("no upload task should have started")
	}
}

func TestHandleUpload_MissingFile(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID()+"/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := f.serve(t, HandleUpload(f.sessions), req, "sessionId", s.ID())
	expectBanner(t, rec, http.StatusBadRequest)
}

func TestHandleUpload_WrongStep(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "088N")

	req := workbookUpload(t, "/api/sessions/"+s.ID()+"/upload", "budget.xlsx")
	rec := f.serve(t, HandleUpload(f.sessions), req, "sessionId", s.ID())
	expectBanner(t, rec, http.StatusConflict)
}
