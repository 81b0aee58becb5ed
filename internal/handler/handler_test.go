package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

// ----- fakes -----

type fakeCustomers struct {
	mu      sync.Mutex
	byID    map[uint64]model.Customer
	next    uint64
	deleteE error
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{byID: map[uint64]model.Customer{}}
}

func (f *fakeCustomers) Create(_ context.Context, c *model.Customer, password string, cost int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	for _, existing := range f.byID {
		if existing.Email == c.Email {
			return repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	f.next++
	c.ID, c.PasswordHash, c.IsActive = f.next, hash, true
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCustomers) GetByEmail(_ context.Context, email string) (model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Email == strings.ToLower(email) {
			return c, nil
		}
	}
	return model.Customer{}, repository.ErrNotFound
}

func (f *fakeCustomers) GetByID(_ context.Context, id uint64) (model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return model.Customer{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCustomers) UpdateProfile(_ context.Context, id uint64, u repository.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.byID[id]
	if u.FirstName != nil {
		c.FirstName = *u.FirstName
	}
	if u.City != nil {
		c.City = u.City
	}
	f.byID[id] = c
	return nil
}

func (f *fakeCustomers) Delete(_ context.Context, id uint64) error {
	if f.deleteE != nil {
		return f.deleteE
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type fakeTokens struct {
	mu      sync.Mutex
	owner   map[string]uint64
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, id uint64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner[hash] = id
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.owner[hash]
	if !ok || f.revoked[hash] {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[hash] = true
	return nil
}

func (f *fakeTokens) RevokeAllForCustomer(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, owner := range f.owner {
		if owner == id {
			f.revoked[h] = true
		}
	}
	return nil
}

type fakePhones struct {
	mu     sync.Mutex
	phones []model.CustomerPhone
}

func (f *fakePhones) ListByCustomer(_ context.Context, id uint64) ([]model.CustomerPhone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.CustomerPhone{}
	for _, p := range f.phones {
		if p.CustomerID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePhones) Add(_ context.Context, p model.CustomerPhone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.phones {
		if q.CustomerID == p.CustomerID && q.PhoneNumber == p.PhoneNumber {
			return repository.ErrConflict
		}
	}
	f.phones = append(f.phones, p)
	return nil
}

func (f *fakePhones) Delete(_ context.Context, id uint64, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.phones {
		if p.CustomerID == id && p.PhoneNumber == phone {
			f.phones = append(f.phones[:i], f.phones[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeCatalog struct {
	hotels    map[uint64]model.Hotel
	rooms     []model.Room
	offers    []model.Offer
	reviews   []model.Review
	lastQuery repository.HotelSearchQuery
	searchErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{hotels: map[uint64]model.Hotel{
		1: {ID: 1, Name: "Harbour View", City: "Lisbon"},
	}}
}

func (f *fakeCatalog) Search(_ context.Context, q repository.HotelSearchQuery) ([]repository.HotelListItem, int64, error) {
	f.lastQuery = q
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	out := []repository.HotelListItem{}
	for _, h := range f.hotels {
		out = append(out, repository.HotelListItem{Hotel: h, Images: []model.RoomImage{}})
	}
	return out, int64(len(out)), nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id uint64) (model.Hotel, error) {
	h, ok := f.hotels[id]
	if !ok {
		return model.Hotel{}, repository.ErrNotFound
	}
	return h, nil
}

func (f *fakeCatalog) Create(_ context.Context, h *model.Hotel) error {
	h.ID = uint64(len(f.hotels) + 1)
	f.hotels[h.ID] = *h
	return nil
}

func (f *fakeCatalog) Facilities(_ context.Context, id uint64) ([]model.Facility, error) {
	return []model.Facility{{ID: 1, HotelID: id, Name: "Pool"}}, nil
}

type fakeRooms struct{ c *fakeCatalog }

func (f fakeRooms) Get(_ context.Context, hotelID uint64, n string) (model.Room, error) {
	for _, r := range f.c.rooms {
		if r.HotelID == hotelID && r.RoomNumber == n {
			return r, nil
		}
	}
	return model.Room{}, repository.ErrNotFound
}

func (f fakeRooms) ListByHotel(_ context.Context, hotelID uint64) ([]model.Room, error) {
	out := []model.Room{}
	for _, r := range f.c.rooms {
		if r.HotelID == hotelID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeRooms) Create(_ context.Context, rm model.Room) error {
	if _, err := f.Get(context.Background(), rm.HotelID, rm.RoomNumber); err == nil {
		return repository.ErrConflict
	}
	f.c.rooms = append(f.c.rooms, rm)
	return nil
}

func (f fakeRooms) Update(_ context.Context, hotelID uint64, n string, u repository.RoomUpdate) (model.Room, error) {
	for i, r := range f.c.rooms {
		if r.HotelID == hotelID && r.RoomNumber == n {
			if u.PriceCents != nil {
				r.PriceCents = *u.PriceCents
			}
			if u.Availability != nil {
				r.Availability = *u.Availability
			}
			f.c.rooms[i] = r
			return r, nil
		}
	}
	return model.Room{}, repository.ErrNotFound
}

type fakeOffers struct{ c *fakeCatalog }

func (f fakeOffers) ListByHotel(_ context.Context, id uint64) ([]model.Offer, error) {
	out := []model.Offer{}
	for _, o := range f.c.offers {
		if o.HotelID == id {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f fakeOffers) Create(_ context.Context, o *model.Offer) error {
	o.ID = uint64(len(f.c.offers) + 1)
	f.c.offers = append(f.c.offers, *o)
	return nil
}

type fakeReviews struct{ c *fakeCatalog }

func (f fakeReviews) Create(_ context.Context, rv *model.Review) error {
	rv.ID = uint64(len(f.c.reviews) + 1)
	f.c.reviews = append([]model.Review{*rv}, f.c.reviews...)
	return nil
}

func (f fakeReviews) ListByHotel(_ context.Context, id uint64) ([]model.Review, error) {
	return f.c.reviews, nil
}

type fakeHotelBookings struct{}

func (fakeHotelBookings) ListByHotel(context.Context, uint64) ([]model.BookingWithPayment, error) {
	return []model.BookingWithPayment{}, nil
}

func send(e *echo.Echo, method, path, body string, customer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if customer != "" {
		req.Header.Set(customerHeader, customer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// ----- auth -----

func newAuthEnv() (*echo.Echo, *fakeCustomers, *fakeTokens, *fakePhones) {
	customers, tokens, phones := newFakeCustomers(), newFakeTokens(), &fakePhones{}
	cfg := config.Config{JWTSecret: "secret", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
	h := NewAuthHandler(cfg, customers, tokens, phones, quietLog())
	e := newEcho()
	e.POST("/v1/auth/register", h.Register)
	e.POST("/v1/auth/login", h.Login)
	e.POST("/v1/auth/refresh", h.Refresh)
	e.POST("/v1/auth/refresh-access", h.RefreshAccess)
	e.POST("/v1/auth/logout", h.Logout)
	return e, customers, tokens, phones
}

func TestRegisterAndLogin(t *testing.T) {
	e, _, _, phones := newAuthEnv()
	body := `{"email":"Ana@Example.com","password":"s3cret-pass","first_name":"Ana","last_name":"Silva","phone":"5551234"}`

	rec := send(e, http.MethodPost, "/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	var resp authResp
	decode(t, rec, &resp)
	if resp.Customer.Email != "ana@example.com" || resp.Customer.Role != model.RoleCustomer || resp.Access.Token == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	claims, err := utils.ParseAccessToken("secret", resp.Access.Token)
	if err != nil || claims.Role != model.RoleCustomer {
		t.Fatalf("access token: %+v %v", claims, err)
	}
	if list, _ := phones.ListByCustomer(context.Background(), resp.Customer.ID); len(list) != 1 || !list[0].IsPrimary {
		t.Fatalf("phone not stored: %+v", list)
	}

	if rec := send(e, http.MethodPost, "/v1/auth/register", body, ""); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", rec.Code)
	}
	if rec := send(e, http.MethodPost, "/v1/auth/register", `{"email":"nope","password":"s3cret-pass","first_name":"A","last_name":"B"}`, ""); rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "email") {
		t.Fatalf("invalid email: %d %s", rec.Code, rec.Body.String())
	}

	if rec := send(e, http.MethodPost, "/v1/auth/login", `{"email":"ana@example.com","password":"wrong"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", rec.Code)
	}
	if rec := send(e, http.MethodPost, "/v1/auth/login", `{"email":"ghost@example.com","password":"whatever"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: %d", rec.Code)
	}
	if rec := send(e, http.MethodPost, "/v1/auth/login", `{"email":"ANA@example.com","password":"s3cret-pass"}`, ""); rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshRotationAndLogout(t *testing.T) {
	e, _, _, _ := newAuthEnv()
	rec := send(e, http.MethodPost, "/v1/auth/register", `{"email":"bo@example.com","password":"s3cret-pass","first_name":"Bo","last_name":"Li"}`, "")
	var first authResp
	decode(t, rec, &first)

	rec = send(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
	var second authResp
	decode(t, rec, &second)

	// the rotated token is revoked
	if rec := send(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("reuse of rotated token: %d", rec.Code)
	}
	if rec := send(e, http.MethodPost, "/v1/auth/refresh-access", `{"refresh_token":"`+second.Refresh.Token+`"}`, ""); rec.Code != http.StatusOK {
		t.Fatalf("refresh-access: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+second.Access.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body.String())
	}
	if rec := send(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+second.Refresh.Token+`"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: %d", rec.Code)
	}
	if rec := send(e, http.MethodPost, "/v1/auth/logout", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty logout: %d", rec.Code)
	}
}

// ----- hotels -----

func newCatalogEnv() (*echo.Echo, *fakeCatalog, *int) {
	cat := newFakeCatalog()
	now := func() time.Time { return time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC) }
	hh := NewHotelHandler(cat, fakeRooms{cat}, fakeOffers{cat}, fakeReviews{cat}, quietLog())
	hh.Now = now
	purges := 0
	purge := func(context.Context) error {
		purges++
		return nil
	}
	hh.Purge = purge
	sh := NewStaffHandler(cat, fakeRooms{cat}, fakeOffers{cat}, fakeHotelBookings{}, purge, quietLog())

	e := newEcho()
	e.GET("/v1/hotels", hh.ListHotels)
	e.GET("/v1/hotels/:id", hh.GetHotel)
	e.POST("/v1/hotels/:id/reviews", hh.CreateReview, asCustomer)
	s := e.Group("/v1/staff")
	s.POST("/hotels", sh.CreateHotel)
	s.POST("/hotels/:id/rooms", sh.CreateRoom)
	s.PATCH("/hotels/:id/rooms/:room", sh.UpdateRoom)
	s.POST("/hotels/:id/offers", sh.CreateOffer)
	s.GET("/hotels/:id/bookings", sh.HotelBookings)
	return e, cat, &purges
}

func TestListHotelsQuery(t *testing.T) {
	e, cat, _ := newCatalogEnv()
	rec := send(e, http.MethodGet, "/v1/hotels?q=lisbon&filter_offers=on&page=2&page_size=500", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	q := cat.lastQuery
	if q.Q != "lisbon" || !q.OnlyWithOffers || q.Page != 2 || q.PageSize != 100 {
		t.Fatalf("query %+v", q)
	}
	if !q.Today.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("today %v", q.Today)
	}

	send(e, http.MethodGet, "/v1/hotels?page=9223372036854775807", "", "")
	if cat.lastQuery.Page != repository.MaxSearchPage {
		t.Fatalf("huge page not clamped: %+v", cat.lastQuery)
	}

	send(e, http.MethodGet, "/v1/hotels", "", "")
	if cat.lastQuery.OnlyWithOffers || cat.lastQuery.Page != 1 || cat.lastQuery.PageSize != 20 {
		t.Fatalf("defaults %+v", cat.lastQuery)
	}

	cat.searchErr = errors.New("db down")
	if rec := send(e, http.MethodGet, "/v1/hotels", "", ""); rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("search failure: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetHotelDetail(t *testing.T) {
	e, cat, _ := newCatalogEnv()
	cat.rooms = []model.Room{{HotelID: 1, RoomNumber: "101", PriceCents: 10000, Availability: true}}
	day := func(m time.Month, d int) time.Time { return time.Date(2030, m, d, 0, 0, 0, 0, time.UTC) }
	cat.offers = []model.Offer{
		{ID: 1, HotelID: 1, StartDate: day(1, 1), EndDate: day(2, 1), DiscountPercent: 10},
		{ID: 2, HotelID: 1, StartDate: day(1, 1), EndDate: day(1, 20), DiscountPercent: 10},
		{ID: 3, HotelID: 1, StartDate: day(3, 1), EndDate: day(4, 1), DiscountPercent: 50},
	}

	rec := send(e, http.MethodGet, "/v1/hotels/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var d hotelDetail
	decode(t, rec, &d)
	if len(d.Rooms) != 1 || len(d.Facilities) != 1 || len(d.Offers) != 3 {
		t.Fatalf("detail %+v", d)
	}
	if d.ActiveOffer == nil || d.ActiveOffer.ID != 2 {
		t.Fatalf("active offer %+v", d.ActiveOffer)
	}

	if rec := send(e, http.MethodGet, "/v1/hotels/42", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing hotel: %d", rec.Code)
	}
	if rec := send(e, http.MethodGet, "/v1/hotels/abc", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", rec.Code)
	}
}

func TestCreateReview(t *testing.T) {
	e, cat, purges := newCatalogEnv()
	if rec := send(e, http.MethodPost, "/v1/hotels/1/reviews", `{"rating":4.5,"comment":"quiet"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous review: %d", rec.Code)
	}
	if rec := send(e, http.MethodPost, "/v1/hotels/1/reviews", `{"rating":7}`, "3"); rec.Code != http.StatusBadRequest {
		t.Fatalf("rating out of range: %d", rec.Code)
	}
	if rec := send(e, http.MethodPost, "/v1/hotels/9/reviews", `{"rating":4}`, "3"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown hotel: %d", rec.Code)
	}
	send(e, http.MethodPost, "/v1/hotels/1/reviews", `{"rating":3}`, "3")
	rec := send(e, http.MethodPost, "/v1/hotels/1/reviews", `{"rating":4.5,"comment":" quiet "}`, "3")
	if rec.Code != http.StatusCreated {
		t.Fatalf("review: %d %s", rec.Code, rec.Body.String())
	}
	if len(cat.reviews) != 2 || cat.reviews[0].Comment != "quiet" || cat.reviews[0].CustomerID != 3 {
		t.Fatalf("reviews %+v", cat.reviews)
	}
	if *purges != 2 {
		t.Fatalf("purges = %d, want one per posted review", *purges)
	}
}

// ----- staff -----

func TestStaffWritesPurgeCache(t *testing.T) {
	e, cat, purges := newCatalogEnv()

	rec := send(e, http.MethodPost, "/v1/staff/hotels", `{"name":"Dune Lodge","city":"Faro","rating":4.2}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create hotel: %d %s", rec.Code, rec.Body.String())
	}
	rec = send(e, http.MethodPost, "/v1/staff/hotels/1/rooms", `{"room_number":"201","room_type":"Suite","capacity":3,"price_cents":25000}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create room: %d %s", rec.Code, rec.Body.String())
	}
	if !cat.rooms[0].Availability {
		t.Fatal("new rooms default to available")
	}
	if rec := send(e, http.MethodPost, "/v1/staff/hotels/1/rooms", `{"room_number":"201","room_type":"Suite","capacity":3,"price_cents":25000}`, ""); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate room: %d", rec.Code)
	}
	rec = send(e, http.MethodPatch, "/v1/staff/hotels/1/rooms/201", `{"availability":false}`, "")
	if rec.Code != http.StatusOK || cat.rooms[0].Availability {
		t.Fatalf("patch room: %d %+v", rec.Code, cat.rooms[0])
	}
	if rec := send(e, http.MethodPatch, "/v1/staff/hotels/1/rooms/999", `{"availability":true}`, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("patch missing room: %d", rec.Code)
	}
	rec = send(e, http.MethodPost, "/v1/staff/hotels/1/offers", `{"description":"spring","start_date":"2030-03-01","end_date":"2030-04-01","discount_percent":15}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create offer: %d %s", rec.Code, rec.Body.String())
	}
	if *purges != 4 {
		t.Fatalf("purges = %d, want 4", *purges)
	}

	for _, body := range []string{
		`{"description":"bad","start_date":"2030-04-01","end_date":"2030-03-01","discount_percent":15}`,
		`{"description":"bad","start_date":"2030-03-01","end_date":"2030-04-01","discount_percent":0}`,
		`{"description":"bad","start_date":"2030-03-01","end_date":"2030-04-01","discount_percent":120}`,
	} {
		if rec := send(e, http.MethodPost, "/v1/staff/hotels/1/offers", body, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("offer %s: %d", body, rec.Code)
		}
	}
	if rec := send(e, http.MethodGet, "/v1/staff/hotels/1/bookings", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("hotel bookings: %d", rec.Code)
	}
}

// ----- profile -----

func TestProfileLifecycle(t *testing.T) {
	customers, phones, tokens := newFakeCustomers(), &fakePhones{}, newFakeTokens()
	c := model.Customer{Email: "kai@example.com", FirstName: "Kai"}
	if err := customers.Create(context.Background(), &c, "s3cret-pass", 4); err != nil {
		t.Fatal(err)
	}
	id := "1"
	h := NewProfileHandler(customers, phones, tokens, quietLog())
	e := newEcho()
	g := e.Group("/v1/profile", asCustomer)
	g.GET("", h.GetProfile)
	g.PUT("", h.UpdateProfile)
	g.DELETE("", h.DeleteProfile)
	g.POST("/phones", h.AddPhone)
	g.DELETE("/phones/:phone", h.DeletePhone)

	if rec := send(e, http.MethodPut, "/v1/profile", `{"first_name":" Kaito ","city":"Porto"}`, id); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"first_name":"Kaito"`) {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if rec := send(e, http.MethodPut, "/v1/profile", `{"date_of_birth":"31-12-1990"}`, id); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad dob: %d", rec.Code)
	}
	if rec := send(e, http.MethodPost, "/v1/profile/phones", `{"phone_number":"5550001"}`, id); rec.Code != http.StatusCreated {
		t.Fatalf("add phone: %d %s", rec.Code, rec.Body.String())
	}
	if rec := send(e, http.MethodPost, "/v1/profile/phones", `{"phone_number":"5550001"}`, id); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate phone: %d", rec.Code)
	}
	rec := send(e, http.MethodGet, "/v1/profile", "", id)
	var p profileResp
	decode(t, rec, &p)
	if len(p.Phones) != 1 || p.City == nil || *p.City != "Porto" {
		t.Fatalf("profile %+v", p)
	}
	if rec := send(e, http.MethodDelete, "/v1/profile/phones/5550001", "", id); rec.Code != http.StatusNoContent {
		t.Fatalf("delete phone: %d", rec.Code)
	}
	if rec := send(e, http.MethodDelete, "/v1/profile/phones/5550001", "", id); rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing phone: %d", rec.Code)
	}

	customers.deleteE = repository.ErrConflict
	if rec := send(e, http.MethodDelete, "/v1/profile", "", id); rec.Code != http.StatusConflict {
		t.Fatalf("delete with bookings: %d", rec.Code)
	}
	customers.deleteE = nil
	if rec := send(e, http.MethodDelete, "/v1/profile", "", id); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := send(e, http.MethodGet, "/v1/profile", "", id); rec.Code != http.StatusNotFound {
		t.Fatalf("profile after delete: %d", rec.Code)
	}
}

func TestErrorHandlerShape(t *testing.T) {
	e := newEcho()
	e.GET("/boom", func(echo.Context) error { return errors.New("secret detail") })

	rec := send(e, http.MethodGet, "/nowhere", "", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("unknown route: %d %s", rec.Code, rec.Body.String())
	}
	rec = send(e, http.MethodGet, "/boom", "", "")
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "secret detail") {
		t.Fatalf("unhandled error: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	e := newEcho()
	e.GET("/ok", Health(nil))
	e.GET("/down", Health(pingerFunc(func(context.Context) error { return errors.New("refused") })))
	if rec := send(e, http.MethodGet, "/ok", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthy: %d", rec.Code)
	}
	if rec := send(e, http.MethodGet, "/down", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded: %d", rec.Code)
	}
}

type pingerFunc func(context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }
