package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rootzapp/storefront/internal/apperror"
)

// newTestClient points a Client at a stub upstream.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL, srv.Client())
}

func TestCompanies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/companies", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"_id": "c1", "title": "Amazon", "discount": "5%"},
			{"_id": "c2", "title": "Nike", "discount": "8%"}
		]`))
	})

	companies, err := client.Companies(context.Background())

	assert.NoError(t, err)
	assert.Len(t, companies, 2)
	assert.Equal(t, "c1", companies[0].ID)
	assert.Equal(t, "Nike", companies[1].Title)
}

func TestSearchCompanies_SendsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/search", r.URL.Path)
		assert.Equal(t, "running shoes", r.URL.Query().Get("searchQuery"))
		w.Write([]byte(`[{"_id": "c2", "title": "Nike"}]`))
	})

	companies, err := client.SearchCompanies(context.Background(), "running shoes")

	assert.NoError(t, err)
	assert.Len(t, companies, 1)
}

func TestLogin_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u1@example.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		w.Write([]byte(`{
			"token": "header.payload.signature",
			"user": {"_id": "u1", "name": "Test User", "email": "u1@example.com"}
		}`))
	})

	result, err := client.Login(context.Background(), "u1@example.com", "secret")

	assert.NoError(t, err)
	assert.Equal(t, "header.payload.signature", result.Credential)
	assert.Equal(t, "u1", result.Profile.ID)
}

func TestLogin_WrongPasswordStaysUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "invalid email or password"}`))
	})

	_, err := client.Login(context.Background(), "u1@example.com", "wrong")

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestRegister_ForwardsParentID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "referrer-1", body["parentId"])
		w.Write([]byte(`{"message": "verification code sent"}`))
	})

	msg, err := client.Register(context.Background(), RegisterRequest{
		Name:     "New User",
		Email:    "new@example.com",
		Password: "secret",
		ParentID: "referrer-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "verification code sent", msg)
}

func TestRegister_OmitsEmptyParentID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "parentId")
		w.Write([]byte(`{"message": "ok"}`))
	})

	_, err := client.Register(context.Background(), RegisterRequest{
		Name:     "New User",
		Email:    "new@example.com",
		Password: "secret",
	})

	assert.NoError(t, err)
}

func TestVerifyEmail_ReturnsSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/verify-email", r.URL.Path)
		w.Write([]byte(`{"token": "t1", "user": {"_id": "u1"}}`))
	})

	result, err := client.VerifyEmail(context.Background(), "u1@example.com", "123456")

	assert.NoError(t, err)
	assert.Equal(t, "t1", result.Credential)
}

func TestProfile_SendsBearerCredential(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer my-credential", r.Header.Get("Authorization"))
		w.Write([]byte(`{"user": {"_id": "u1", "name": "Test User"}}`))
	})

	profile, err := client.Profile(context.Background(), "my-credential")

	assert.NoError(t, err)
	assert.Equal(t, "u1", profile.ID)
}

func TestProfile_MissingUserIsContractViolation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.Profile(context.Background(), "my-credential")

	assert.ErrorIs(t, err, apperror.ErrContract)
}

func TestWallet_DecodesMongoAmounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"moneyEarned":   {"$numberDecimal": "150.5"},
			"moneyWaiting":  "20",
			"moneyApproved": 130.5,
			"cashWithdrawn": null
		}`))
	})

	wallet, err := client.Wallet(context.Background(), "cred")

	assert.NoError(t, err)
	assert.Equal(t, "150.50", wallet.MoneyEarned.Format())
	assert.Equal(t, "20.00", wallet.MoneyWaiting.Format())
	assert.Equal(t, "130.50", wallet.MoneyApproved.Format())
	assert.Equal(t, "0.00", wallet.CashWithdrawn.Format())
}

func TestTransactions_SendsPagination(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`{
			"items": [{"_id": "t1", "description": "Cashback", "amount": "3.25", "status": "completed"}],
			"page": 2,
			"totalPages": 5
		}`))
	})

	page, err := client.Transactions(context.Background(), "cred", 2, 10)

	assert.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, "3.25", page.Items[0].Amount.Format())
}

func TestSimulatePurchase_ReturnsOutboundURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/companies/c1/purchase", r.URL.Path)
		w.Write([]byte(`{"siteUrl": "https://shop.example.com"}`))
	})

	siteURL, err := client.SimulatePurchase(context.Background(), "cred", "c1")

	assert.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", siteURL)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request is validation", http.StatusBadRequest, apperror.ErrValidation},
		{"unauthorized keeps meaning", http.StatusUnauthorized, apperror.ErrUnauthorized},
		{"forbidden keeps meaning", http.StatusForbidden, apperror.ErrUnauthorized},
		{"not found keeps meaning", http.StatusNotFound, apperror.ErrNotFound},
		{"server error is upstream", http.StatusInternalServerError, apperror.ErrUpstream},
		{"bad gateway is upstream", http.StatusBadGateway, apperror.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"message": "remote says no"}`))
			})

			_, err := client.Companies(context.Background())

			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestTransportFailureIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	client := NewWithHTTPClient(srv.URL, http.DefaultClient)

	_, err := client.Companies(context.Background())

	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestMalformedResponseBodyIsUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.Wallet(context.Background(), "cred")

	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestErrorsNeverRetry(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Companies(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "a failed call must be surfaced once, not retried")
}

func TestRequestRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := client.Companies(ctx)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, apperror.ErrUpstream))
}
