package clienttest

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mark3labs/contractkit/internal/auth"
	"github.com/mark3labs/contractkit/internal/client"
	"github.com/mark3labs/contractkit/internal/contract"
	"github.com/mark3labs/contractkit/internal/shape"
	"github.com/mark3labs/contractkit/internal/stub"
)

type accountsModule struct{}

func (accountsModule) Prefix() string { return "/accounts" }

type slotsModule struct{}

func (slotsModule) Prefix() string { return "/slots" }

type accountParams struct {
	AccountID string `json:"accountId"`
}

type account struct {
	ID    string  `json:"id"`
	Seats float64 `json:"seats"`
}

type newAccount struct {
	Seats float64 `json:"seats"`
}

var (
	getAccount     = contract.Endpoint[contract.Get, accountParams, contract.None, account]{Path: "/accounts/{accountId}"}
	createAccount  = contract.Endpoint[contract.Post, contract.None, newAccount, account]{Path: "/accounts"}
	replaceAccount = contract.Endpoint[contract.Put, accountParams, newAccount, account]{Path: "/accounts/{accountId}"}
	updateAccount  = contract.Endpoint[contract.Patch, accountParams, newAccount, account]{Path: "/accounts/{accountId}"}
	closeAccount   = contract.Endpoint[contract.Delete, accountParams, contract.None, contract.Void]{Path: "/accounts/{accountId}"}
	deleteSlot     = contract.Endpoint[contract.Delete, struct {
		SlotID float64 `json:"slotId"`
	}, contract.None, contract.Void]{Path: "/slots/{slotId}"}

	accounts = struct {
		Get     contract.Routed[accountsModule, contract.Get, accountParams, contract.None, account]
		Create  contract.Routed[accountsModule, contract.Post, contract.None, newAccount, account]
		Replace contract.Routed[accountsModule, contract.Put, accountParams, newAccount, account]
		Update  contract.Routed[accountsModule, contract.Patch, accountParams, newAccount, account]
		Close   contract.Routed[accountsModule, contract.Delete, accountParams, contract.None, contract.Void]
	}{
		Get:     contract.Route[accountsModule](getAccount),
		Create:  contract.Route[accountsModule](createAccount),
		Replace: contract.Route[accountsModule](replaceAccount),
		Update:  contract.Route[accountsModule](updateAccount),
		Close:   contract.Route[accountsModule](closeAccount),
	}
)

func registry() *contract.Map {
	acct := shape.Object(
		shape.Field{Name: "id", Type: shape.String()},
		shape.Field{Name: "seats", Type: shape.Number()},
	)
	acctID := shape.Object(shape.Field{Name: "accountId", Type: shape.String()})
	seats := shape.Object(shape.Field{Name: "seats", Type: shape.Number()})
	return contract.MustNew(
		contract.Entry{Path: "/accounts/{accountId}", Method: contract.GET, Params: acctID, Response: acct},
		contract.Entry{Path: "/accounts/{accountId}", Method: contract.PUT, Params: acctID, Body: seats, Response: acct},
		contract.Entry{Path: "/accounts/{accountId}", Method: contract.PATCH, Params: acctID, Body: seats, Response: acct},
		contract.Entry{Path: "/accounts/{accountId}", Method: contract.DELETE, Params: acctID, Response: shape.Void()},
		contract.Entry{Path: "/accounts", Method: contract.POST, Body: seats, Response: acct},
		contract.Entry{Path: "/slots/{slotId}", Method: contract.DELETE,
			Params: shape.Object(shape.Field{Name: "slotId", Type: shape.Number()}), Response: shape.Void()},
	)
}

func newStub(t *testing.T, opts ...stub.Option) *stub.Server {
	t.Helper()
	s, err := stub.New(registry(), opts...)
	if err != nil {
		t.Fatalf("stub: %v", err)
	}
	return s
}

func TestTypedCalls(t *testing.T) {
	t.Parallel()
	srv := newStub(t)
	if err := srv.Handle(contract.GET, "/accounts/{accountId}", 200, account{ID: "a1", Seats: 4}); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := srv.HandleFunc(contract.POST, "/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"new","seats":2}`))
	}); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := srv.Handle(contract.DELETE, "/slots/{slotId}", 204, nil); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	c := New(srv, WithContract(srv.Registry()))

	resp, err := Get(c, getAccount, accountParams{AccountID: "a1"}, client.WithExpectedStatus(200))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	s, ok := resp.Success()
	if !ok {
		t.Fatalf("expected success, status %d", resp.Status())
	}
	if diff := cmp.Diff(account{ID: "a1", Seats: 4}, s.Body); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}

	created, err := Post(c, createAccount, contract.None{}, newAccount{Seats: 2}, client.WithExpectedStatus(201))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if s, _ := created.Success(); s.Body.ID != "new" {
		t.Fatalf("created %+v", s)
	}

	del, err := Delete(c, deleteSlot, struct {
		SlotID float64 `json:"slotId"`
	}{SlotID: 9}, contract.None{})
	if err != nil || del.Status() != http.StatusNoContent || !del.OK() {
		t.Fatalf("delete: %v status %d", err, del.Status())
	}
}

func TestFailuresAreResponses(t *testing.T) {
	t.Parallel()
	srv := newStub(t)
	c := New(srv)

	// no fixture registered
	resp, err := Get(c, getAccount, accountParams{AccountID: "a1"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	f, ok := resp.Failure()
	if !ok || f.Status != http.StatusNotImplemented || f.Body.StatusCode != 501 {
		t.Fatalf("expected 501 failure, got %+v", f)
	}

	// without a client-side contract the server reports the validation error
	bad, err := c.Request("POST", "/accounts", nil, map[string]any{"seats": "lots"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	f, _ = bad.Failure()
	if f.Status != 400 || !f.Body.IsValidation() {
		t.Fatalf("expected validation failure, got %+v", f)
	}

	_, err = Get(c, getAccount, accountParams{AccountID: "a1"}, client.WithExpectedStatus(200))
	var se *client.StatusError
	if !errors.As(err, &se) || se.Got != 501 {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestAuth(t *testing.T) {
	t.Parallel()
	tokens, _ := auth.NewHMAC([]byte("secret"))
	srv := newStub(t, stub.WithAuth(tokens, "/accounts"))
	_ = srv.Handle(contract.GET, "/accounts/{accountId}", 200, account{ID: "a1"})
	c := New(srv)

	resp, err := Get(c, getAccount, accountParams{AccountID: "a1"})
	if err != nil || resp.Status() != http.StatusUnauthorized {
		t.Fatalf("anonymous: %v status %d", err, resp.Status())
	}
	tok, _ := tokens.Issue("coach", "a1")
	resp, err = AuthGet(c, tok, getAccount, accountParams{AccountID: "a1"})
	if err != nil || !resp.OK() {
		t.Fatalf("authenticated: %v status %d", err, resp.Status())
	}
	scoped := Scope[accountsModule](c)
	resp, err = ScopedAuthGet(scoped, tok, accounts.Get, accountParams{AccountID: "a1"})
	if err != nil || !resp.OK() {
		t.Fatalf("scoped authenticated: %v status %d", err, resp.Status())
	}
}

func TestScopedAuthWrites(t *testing.T) {
	t.Parallel()
	tokens, _ := auth.NewHMAC([]byte("secret"))
	srv := newStub(t, stub.WithAuth(tokens, "/accounts"))
	_ = srv.Handle(contract.PUT, "/accounts/{accountId}", 200, account{ID: "a1", Seats: 3})
	_ = srv.Handle(contract.PATCH, "/accounts/{accountId}", 200, account{ID: "a1", Seats: 5})
	_ = srv.Handle(contract.DELETE, "/accounts/{accountId}", 204, nil)
	scoped := Scope[accountsModule](New(srv, WithContract(srv.Registry())))
	tok, _ := tokens.Issue("coach", "a1")
	id := accountParams{AccountID: "a1"}

	put, err := ScopedPut(scoped, accounts.Replace, id, newAccount{Seats: 3})
	if err != nil || put.Status() != http.StatusUnauthorized {
		t.Fatalf("anonymous put: %v status %d", err, put.Status())
	}
	put, err = ScopedAuthPut(scoped, tok, accounts.Replace, id, newAccount{Seats: 3})
	if err != nil || !put.OK() {
		t.Fatalf("scoped auth put: %v status %d", err, put.Status())
	}
	if s, _ := put.Success(); s.Body.Seats != 3 {
		t.Fatalf("put body %+v", s.Body)
	}

	patch, err := ScopedAuthPatch(scoped, tok, accounts.Update, id, newAccount{Seats: 5})
	if err != nil || !patch.OK() {
		t.Fatalf("scoped auth patch: %v status %d", err, patch.Status())
	}
	if s, _ := patch.Success(); s.Body.Seats != 5 {
		t.Fatalf("patch body %+v", s.Body)
	}

	del, err := ScopedAuthDelete(scoped, tok, accounts.Close, id, contract.None{}, client.WithExpectedStatus(http.StatusNoContent))
	if err != nil || del.Status() != http.StatusNoContent {
		t.Fatalf("scoped auth delete: %v status %d", err, del.Status())
	}
}

func TestAuthLeavesCallerOptionsAlone(t *testing.T) {
	t.Parallel()
	var got []string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	c := New(h)
	opts := make([]client.RequestOption, 1, 4)
	opts[0] = client.WithHeader("X-Trace", "t1")

	if _, err := AuthDelete(c, "tok-1", closeAccount, accountParams{AccountID: "a1"}, contract.None{}, opts...); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if spare := opts[:cap(opts)]; spare[1] != nil {
		t.Fatalf("bearer option written into the caller's slice")
	}
	if _, err := Delete(c, closeAccount, accountParams{AccountID: "a1"}, contract.None{}, opts...); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if diff := cmp.Diff([]string{"Bearer tok-1", ""}, got); diff != "" {
		t.Fatalf("authorization (-want +got):\n%s", diff)
	}
}

func TestScope(t *testing.T) {
	t.Parallel()
	srv := newStub(t)
	_ = srv.Handle(contract.POST, "/accounts", 201, account{ID: "x", Seats: 1})
	c := New(srv, WithContract(srv.Registry()))
	scoped := Scope[accountsModule](c)

	// ScopedDelete(scoped, contract.Route[slotsModule](deleteSlot), ...) does not compile:
	// the endpoint is routed to another module.
	resp, err := ScopedPost(scoped, accounts.Create, contract.None{}, newAccount{Seats: 1})
	if err != nil || !resp.OK() {
		t.Fatalf("scoped post: %v status %d", err, resp.Status())
	}

	if diff := cmp.Diff([]string{"/accounts", "/accounts/{accountId}"}, scoped.Paths()); diff != "" {
		t.Fatalf("paths (-want +got):\n%s", diff)
	}
	if Scope[slotsModule](c).Prefix() != "/slots" {
		t.Fatalf("prefix")
	}

	_, err = scoped.Request("DELETE", "/slots/{slotId}", map[string]any{"slotId": 1}, nil)
	if !errors.Is(err, contract.ErrOutOfScope) {
		t.Fatalf("expected out of scope, got %v", err)
	}
	_, err = scoped.Request("BREW", "/accounts", nil, nil)
	if !errors.Is(err, contract.ErrInvalidMethod) {
		t.Fatalf("expected invalid method, got %v", err)
	}
}

func TestContractViolationBeforeDispatch(t *testing.T) {
	t.Parallel()
	called := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	c := New(h, WithContract(registry()))
	if _, err := c.Request("GET", "/accounts", nil, nil); !errors.Is(err, contract.ErrMethodNotAllowed) {
		t.Fatalf("expected method not allowed, got %v", err)
	}
	if _, err := c.Request("GET", "/nope", nil, nil); !errors.Is(err, contract.ErrUnknownPath) {
		t.Fatalf("expected unknown path, got %v", err)
	}
	if called {
		t.Fatalf("handler ran for a violating request")
	}
}

func TestTimeoutAndPanicAreErrors(t *testing.T) {
	t.Parallel()
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	_, err := Get(New(slow), getAccount, accountParams{AccountID: "a"}, client.WithTimeout(10*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	_, err = Get(New(boom), getAccount, accountParams{AccountID: "a"})
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "boom" {
		t.Fatalf("expected panic error, got %v", err)
	}
}

func TestRequestIDAndHeaders(t *testing.T) {
	t.Parallel()
	var got http.Header
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	})
	c := New(h, WithDefaultHeader("X-Tenant", "acme"))
	if _, err := c.Request("GET", "/x", nil, nil, client.WithHeaders(map[string]string{"X-Trace": "t1"})); err != nil {
		t.Fatalf("request: %v", err)
	}
	if got.Get("X-Tenant") != "acme" || got.Get("X-Trace") != "t1" || got.Get(client.RequestIDHeader) == "" {
		t.Fatalf("headers %v", got)
	}
	if _, err := c.Request("GET", "/x", nil, nil, client.WithHeader(client.RequestIDHeader, "fixed")); err != nil {
		t.Fatalf("request: %v", err)
	}
	if got.Get(client.RequestIDHeader) != "fixed" {
		t.Fatalf("caller request id replaced: %q", got.Get(client.RequestIDHeader))
	}
}
