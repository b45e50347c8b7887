package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vet-clinic-api/internal/adapters/token/jwtauth"
	"vet-clinic-api/internal/platform/logger"
)

func newTestRouter() http.Handler {
	tokens := jwtauth.New("test-secret")
	return New(Options{
		Log:      logger.New(logger.Options{}),
		Verifier: tokens,
		Issuer:   tokens,
	})
}

// doReq ejecuta una request con identidad vía cabeceras de debug.
func doReq(t *testing.T, h http.Handler, method, path string, body any, userID, role string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
		req.Header.Set("X-Debug-Role", role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rec.Body.String())
	}
}

func TestBearerWithoutVerifier(t *testing.T) {
	// Sin verificador (modo desarrollo) un Bearer no debe tirar la request.
	h := New(Options{Log: logger.New(logger.Options{})})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health with stray bearer: status %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter()
	rec := doReq(t, h, http.MethodGet, "/health", nil, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
}

func TestClinicalFlow(t *testing.T) {
	h := newTestRouter()

	// El admin arma el catálogo.
	rec := doReq(t, h, http.MethodPost, "/catalog/types", map[string]any{"name": "Dog"}, "admin-1", "admin")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create type: status %d body=%s", rec.Code, rec.Body.String())
	}
	var typ struct {
		ID string `json:"id"`
	}
	decode(t, rec, &typ)

	rec = doReq(t, h, http.MethodPost, "/catalog/breeds",
		map[string]any{"type_id": typ.ID, "name": "Beagle"}, "admin-1", "admin")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create breed: status %d body=%s", rec.Code, rec.Body.String())
	}
	var breed struct {
		ID string `json:"id"`
	}
	decode(t, rec, &breed)

	// Alta del veterinario.
	rec = doReq(t, h, http.MethodPost, "/admin/users", map[string]any{
		"username":       "drgarcia",
		"email":          "garcia@clinic.com",
		"role":           "veterinarian",
		"license_number": "MV-1234",
	}, "admin-1", "admin")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vet: status %d body=%s", rec.Code, rec.Body.String())
	}
	var vet struct {
		ID string `json:"id"`
	}
	decode(t, rec, &vet)

	// El cliente se registra y da de alta su mascota.
	rec = doReq(t, h, http.MethodPost, "/auth/signup", map[string]any{
		"username": "carlos",
		"email":    "carlos@example.com",
		"password": "supersecret",
	}, "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body=%s", rec.Code, rec.Body.String())
	}
	var client struct {
		UserID string `json:"user_id"`
	}
	decode(t, rec, &client)

	rec = doReq(t, h, http.MethodPost, "/pets", map[string]any{
		"name":     "Firulais",
		"type_id":  typ.ID,
		"breed_id": breed.ID,
		"sex":      "male",
	}, client.UserID, "client")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create pet: status %d body=%s", rec.Code, rec.Body.String())
	}
	var pet struct {
		ID string `json:"id"`
	}
	decode(t, rec, &pet)

	// Agenda para pasado mañana.
	rec = doReq(t, h, http.MethodPost, "/appointments", map[string]any{
		"pet_id":       pet.ID,
		"vet_id":       vet.ID,
		"scheduled_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"type":         "checkup",
		"reason":       "annual checkup",
	}, client.UserID, "client")
	if rec.Code != http.StatusCreated {
		t.Fatalf("schedule: status %d body=%s", rec.Code, rec.Body.String())
	}
	var appt struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &appt)
	if appt.Status != "scheduled" {
		t.Fatalf("expected scheduled, got %s", appt.Status)
	}

	// Otro veterinario no la ve.
	rec = doReq(t, h, http.MethodPost, "/appointments/"+appt.ID+"/confirm", nil, "vet-other", "veterinarian")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign vet confirm: status %d", rec.Code)
	}

	// El vet asignado atiende y guarda el prontuario.
	rec = doReq(t, h, http.MethodPost, "/appointments/"+appt.ID+"/start", nil, vet.ID, "veterinarian")
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, h, http.MethodPut, "/appointments/"+appt.ID+"/record", map[string]any{
		"anamnesis":     "lethargy for two days",
		"physical_exam": "mild dehydration",
		"diagnosis":     "gastroenteritis",
		"treatment":     "fluids and bland diet",
	}, vet.ID, "veterinarian")
	if rec.Code != http.StatusOK {
		t.Fatalf("save record: status %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, h, http.MethodGet, "/appointments/"+appt.ID, nil, vet.ID, "veterinarian")
	decode(t, rec, &appt)
	if appt.Status != "completed" {
		t.Fatalf("expected completed after record, got %s", appt.Status)
	}

	// El historial registra cada paso.
	rec = doReq(t, h, http.MethodGet, "/appointments/"+appt.ID+"/history", nil, vet.ID, "veterinarian")
	var history []struct {
		Action string `json:"action"`
	}
	decode(t, rec, &history)
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	want := []string{"SCHEDULED", "TREATMENT_STARTED", "RECORD_CREATED"}
	for i, w := range want {
		if history[i].Action != w {
			t.Fatalf("history[%d] = %s, want %s", i, history[i].Action, w)
		}
	}

	// Con consultas vigentes el vet no se borra.
	rec = doReq(t, h, http.MethodDelete, "/admin/users/"+vet.ID, nil, "admin-1", "admin")
	if rec.Code != http.StatusConflict {
		t.Fatalf("delete vet with open appointments: status %d body=%s", rec.Code, rec.Body.String())
	}

	// El dueño ve la agenda de su mascota.
	rec = doReq(t, h, http.MethodGet, "/pets/"+pet.ID+"/appointments", nil, client.UserID, "client")
	var petAppts []struct {
		ID string `json:"id"`
	}
	decode(t, rec, &petAppts)
	if len(petAppts) != 1 {
		t.Fatalf("expected 1 appointment for pet, got %d", len(petAppts))
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	h := newTestRouter()

	rec := doReq(t, h, http.MethodPost, "/auth/signup", map[string]any{
		"username": "ana",
		"email":    "ana@example.com",
		"password": "supersecret",
	}, "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, h, http.MethodPost, "/auth/login", map[string]any{
		"login":    "ana",
		"password": "supersecret",
	}, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body=%s", rec.Code, rec.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	decode(t, rec, &session)
	if session.Token == "" {
		t.Fatalf("expected a token")
	}

	// El token sirve como Bearer.
	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("authenticated request: status %d body=%s", out.Code, out.Body.String())
	}
}

func TestCartFlow(t *testing.T) {
	h := newTestRouter()

	rec := doReq(t, h, http.MethodPost, "/store/products", map[string]any{
		"name":        "Dog food 10kg",
		"price_cents": 4550,
		"stock":       20,
	}, "staff-1", "staff")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: status %d body=%s", rec.Code, rec.Body.String())
	}
	var product struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	}
	decode(t, rec, &product)
	if product.Price != "45.50" {
		t.Fatalf("expected price 45.50, got %s", product.Price)
	}

	// Dos agregados del mismo producto se funden en una línea.
	rec = doReq(t, h, http.MethodPost, "/store/cart/items",
		map[string]any{"product_id": product.ID, "quantity": 2}, "client-1", "client")
	if rec.Code != http.StatusOK {
		t.Fatalf("add item: status %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doReq(t, h, http.MethodPost, "/store/cart/items",
		map[string]any{"product_id": product.ID, "quantity": 3}, "client-1", "client")
	if rec.Code != http.StatusOK {
		t.Fatalf("second add: status %d body=%s", rec.Code, rec.Body.String())
	}

	var cart struct {
		Items []struct {
			Quantity int    `json:"quantity"`
			Subtotal string `json:"subtotal"`
		} `json:"items"`
		Total string `json:"total"`
	}
	decode(t, rec, &cart)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected one merged line of 5, got %+v", cart.Items)
	}
	if cart.Total != "227.50" {
		t.Fatalf("expected total 227.50, got %s", cart.Total)
	}

	// El carrito de otro usuario arranca vacío.
	rec = doReq(t, h, http.MethodGet, "/store/cart", nil, "client-2", "client")
	decode(t, rec, &cart)
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart for client-2, got %d items", len(cart.Items))
	}
}

func TestSwaggerMounted(t *testing.T) {
	h := newTestRouter()
	rec := doReq(t, h, http.MethodGet, "/swagger/index.html", nil, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("swagger: status %d", rec.Code)
	}
}
