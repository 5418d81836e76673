package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"budgetpricing/pricing"
)

func TestFieldValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"20"`, "20"},
		{`20`, "20"},
		{`2.5`, "2.5"},
		{`"Daikin"`, "Daikin"},
		{`""`, ""},
	}
	for _, tt := range tests {
		if got := fieldValue(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("fieldValue(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestHandleRowUpdate_Discount(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "088N")

	rec := f.call(t, HandleRowUpdate(f.sessions), http.MethodPatch, "/api/sessions/"+s.ID()+"/rows/1",
		`{"field":"discount","value":"20"}`, "sessionId", s.ID(), "rowId", "1")
	expectStatus(t, rec, http.StatusOK)

	var view pricing.SessionView
	decodeBody(t, rec, &view)
	row := findRow(t, view, "1")
	if !row.Dirty {
		t.Error("edited row should be dirty")
	}
	if row.FinalPriceUnit == nil || !row.FinalPriceUnit.Equal(decimal.NewFromInt(39500)) {
		t.Errorf("finalPriceUnit = %v, want 39500", row.FinalPriceUnit)
	}
	if !view.GrandTotal.Equal(decimal.NewFromInt(109225)) {
		t.Errorf("grandTotal = %s, want 109225", view.GrandTotal)
	}
	if view.DirtyRows != 1 {
		t.Errorf("dirtyRows = %d, want 1", view.DirtyRows)
	}
}

func TestHandleRowUpdate_NumericValue(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "088N")

	rec := f.call(t, HandleRowUpdate(f.sessions), http.MethodPatch, "/api/sessions/"+s.ID()+"/rows/2",
		`{"field":"quantity","value":3}`, "sessionId", s.ID(), "rowId", "2")
	expectStatus(t, rec, http.StatusOK)

	var view pricing.SessionView
	decodeBody(t, rec, &view)
	row := findRow(t, view, "2")
	if row.LineTotal == nil || !row.LineTotal.Equal(decimal.NewFromInt(39375)) {
		t.Errorf("lineTotal = %v, want 39375", row.LineTotal)
	}
}

func TestHandleRowUpdate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		rowID  string
		body   string
		status int
		field  string
	}{
		{"negative quantity", "1", `{"field":"quantity","value":"-1"}`, http.StatusBadRequest, "quantity"},
		{"discount above 100", "1", `{"field":"discount","value":"150"}`, http.StatusBadRequest, "discount"},
		{"not a number", "1", `{"field":"deliveryPrice","value":"abc"}`, http.StatusBadRequest, "deliveryPrice"},
		{"huge exponent", "1", `{"field":"quantity","value":"1e20000000"}`, http.StatusBadRequest, "quantity"},
		{"unknown field", "1", `{"field":"vat","value":"21"}`, http.StatusBadRequest, ""},
		{"header row", "h1", `{"field":"discount","value":"5"}`, http.StatusBadRequest, ""},
		{"unknown row", "99", `{"field":"discount","value":"5"}`, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			s := f.openSession(t, "088N")

			rec := f.call(t, HandleRowUpdate(f.sessions), http.MethodPatch, "/api/sessions/"+s.ID()+"/rows/"+tt.rowID,
				tt.body, "sessionId", s.ID(), "rowId", tt.rowID)
			banner := expectBanner(t, rec, tt.status)
			if banner.Field != tt.field {
				t.Errorf("banner field = %q, want %q", banner.Field, tt.field)
			}
			if got := s.View().GrandTotal; !got.Equal(decimal.NewFromInt(111475)) {
				t.Errorf("rejected edit changed the grand total to %s", got)
			}
		})
	}
}

func TestHandleRowUpdate_WrongStep(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "085N")

	rec := f.call(t, HandleRowUpdate(f.sessions), http.MethodPatch, "/api/sessions/"+s.ID()+"/rows/1",
		`{"field":"discount","value":"20"}`, "sessionId", s.ID(), "rowId", "1")
	expectBanner(t, rec, http.StatusConflict)
}

func TestHandleRowReset(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "088N")
	if err := s.SetField("1", pricing.FieldDiscount, "50"); err != nil {
		t.Fatalf("SetField() error: %v", err)
	}

	rec := f.call(t, HandleRowReset(f.sessions), http.MethodPost, "/api/sessions/"+s.ID()+"/rows/1/reset", "",
		"sessionId", s.ID(), "rowId", "1")
	expectStatus(t, rec, http.StatusOK)

	var view pricing.SessionView
	decodeBody(t, rec, &view)
	if row := findRow(t, view, "1"); row.Dirty {
		t.Error("reset row should not be dirty")
	}
	if !view.GrandTotal.Equal(decimal.NewFromInt(111475)) {
		t.Errorf("grandTotal = %s, want 111475", view.GrandTotal)
	}
}

func TestHandleRecompute(t *testing.T) {
	f := newAPIFixture(t)
	s := f.openSession(t, "088N")
	if err := s.SetField("4", pricing.FieldQuantity, "50"); err != nil {
		t.Fatalf("SetField() error: %v", err)
	}

	rec := f.call(t, HandleRecompute(f.sessions), http.MethodPost, "/api/sessions/"+s.ID()+"/recompute", "",
		"sessionId", s.ID())
	expectStatus(t, rec, http.StatusAccepted)

	st := waitForTask(t, s, pricing.TaskKey{Action: pricing.ActionRecompute})
	if st.Status != pricing.TaskSucceeded {
		t.Fatalf("recompute status = %s (%s)", st.Status, st.Reason)
	}

	view := s.View()
	if view.DirtyRows != 0 {
		t.Errorf("dirtyRows = %d after recompute, want 0", view.DirtyRows)
	}
	// Row 4: 50 x 400 replaces 45 x 400.
	if !view.GrandTotal.Equal(decimal.NewFromInt(113475)) {
		t.Errorf("grandTotal = %s, want 113475", view.GrandTotal)
	}
}
