package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/auth"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/models"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Role{}, &models.User{}, &models.Client{},
		&models.DQE{}, &models.Lot{}, &models.Chapter{}, &models.Item{},
		&models.Project{}, &models.ProjectStage{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

// authedRequest builds a request already carrying an authenticated user, the
// way the session middleware would hand it to the handlers.
func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return r.WithContext(auth.WithUserID(r.Context(), 1))
}

const createBody = `{
	"name": "Villa Duplex Cocody",
	"taux_tva": 18,
	"lots": [
		{"code": "LOT-A", "name": "Gros oeuvre", "chapters": [
			{"code": "CH-1", "name": "Fondations", "items": [
				{"code": "IT-1", "designation": "Béton de propreté", "unit": "m3", "quantity": 10, "unit_price_ht": 1000, "debourse_sec": 500}
			]}
		]},
		{"code": "LOT-B", "name": "Second oeuvre", "chapters": [
			{"code": "CH-2", "name": "Cloisons", "items": [
				{"code": "IT-2", "designation": "Cloison placo", "unit": "m2", "quantity": 5, "unit_price_ht": 2000, "debourse_sec": 800}
			]}
		]}
	]
}`

func TestDQECreateAndGet(t *testing.T) {
	conn := setupTestDB(t)
	h := NewDQEHandler(conn)

	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/dqes", createBody))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var created map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	ref, _ := created["Reference"].(string)
	wantRef := fmt.Sprintf("DQE-%d-001", time.Now().UTC().Year())
	if ref != wantRef {
		t.Fatalf("reference = %q, expected %q", ref, wantRef)
	}
	if created["TotalTTC"].(float64) != 23600 {
		t.Fatalf("TTC = %v, expected 23600", created["TotalTTC"])
	}
	id := uint(created["ID"].(float64))

	w = httptest.NewRecorder()
	h.Get(w, authedRequest(http.MethodGet, fmt.Sprintf("/dqes/get?id=%d", id), ""))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", w.Code, w.Body.String())
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if lots, _ := doc["Lots"].([]any); len(lots) != 2 {
		t.Fatalf("expected 2 lots in response, got %v", doc["Lots"])
	}
}

func TestDQECreateRequiresAuth(t *testing.T) {
	conn := setupTestDB(t)
	h := NewDQEHandler(conn)

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/dqes", strings.NewReader(createBody)))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, expected 401", w.Code)
	}
}

func TestDQEGetNotFound(t *testing.T) {
	conn := setupTestDB(t)
	h := NewDQEHandler(conn)

	w := httptest.NewRecorder()
	h.Get(w, authedRequest(http.MethodGet, "/dqes/get?id=99", ""))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "not_found" {
		t.Fatalf("error = %v, expected not_found", body["error"])
	}
}

func TestConvertEndpointRejectsDraft(t *testing.T) {
	conn := setupTestDB(t)
	doc, err := services.NewDQEService(conn).Create(services.CreateDQEInput{
		Name:    "Brouillon",
		TauxTVA: 18,
		Lots: []services.LotInput{
			{Code: "LOT-A", Name: "Gros oeuvre", Chapters: []services.ChapterInput{
				{Code: "CH-1", Name: "Fondations", Items: []services.ItemInput{
					{Code: "IT-1", Designation: "Béton", Unit: "m3", Quantity: 1, UnitPriceHT: 100, DebourseSec: 50},
				}},
			}},
		},
	}, 1)
	if err != nil {
		t.Fatalf("create dqe: %v", err)
	}

	h := NewConversionHandler(conn)
	w := httptest.NewRecorder()
	body := `{"start_date": "2024-01-01", "duration_days": 30}`
	h.Convert(w, authedRequest(http.MethodPost, fmt.Sprintf("/dqes/convert?id=%d", doc.ID), body))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error != "invalid_operation" || resp.Details["reason"] != services.ReasonNotValidated {
		t.Fatalf("unexpected error body: %+v", resp)
	}
}

func TestConvertEndpointCreatesProject(t *testing.T) {
	conn := setupTestDB(t)
	dqeSvc := services.NewDQEService(conn)

	h := NewDQEHandler(conn)
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/dqes", createBody))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var created map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	id := uint(created["ID"].(float64))
	if err := dqeSvc.Validate(id, 1); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ch := NewConversionHandler(conn)
	w = httptest.NewRecorder()
	body := `{"start_date": "2024-01-01", "duration_days": 30}`
	ch.Convert(w, authedRequest(http.MethodPost, fmt.Sprintf("/dqes/convert?id=%d", id), body))
	if w.Code != http.StatusCreated {
		t.Fatalf("convert status = %d, body %s", w.Code, w.Body.String())
	}
	var project map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &project); err != nil {
		t.Fatalf("decode convert response: %v", err)
	}
	wantNumber := fmt.Sprintf("PRJ%d0001", time.Now().UTC().Year())
	if project["Number"] != wantNumber {
		t.Fatalf("project number = %v, expected %q", project["Number"], wantNumber)
	}
	if project["BudgetInitial"].(float64) != 20000 {
		t.Fatalf("budget = %v, expected 20000", project["BudgetInitial"])
	}
}

func TestConvertEndpointRejectsBadDate(t *testing.T) {
	conn := setupTestDB(t)
	h := NewConversionHandler(conn)

	w := httptest.NewRecorder()
	h.Convert(w, authedRequest(http.MethodPost, "/dqes/convert?id=1", `{"start_date": "01/02/2024"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "invalid_date" {
		t.Fatalf("error = %v, expected invalid_date", body["error"])
	}
}
