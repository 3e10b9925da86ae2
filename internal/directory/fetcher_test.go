package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_FetchUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"username":"johndoe","first_name":"John","last_name":"Doe","email":"john@example.com"},
			{"username":"janedoe","first_name":"Jane","last_name":"Doe"}
		]`))
	}))
	defer srv.Close()

	users, err := NewHTTPFetcher(srv.URL, srv.Client()).FetchUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "johndoe", users[0].Username)
	assert.Equal(t, "john@example.com", users[0].Email)
	assert.Equal(t, "Jane Doe", users[1].FullName())
}

func TestHTTPFetcher_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, nil).FetchUsers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPFetcher_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, nil).FetchUsers(context.Background())
	assert.Error(t, err)
}

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{FirstName: "John", LastName: "Doe"}, "John Doe"},
		{User{FirstName: "John"}, "John"},
		{User{LastName: "Doe"}, "Doe"},
		{User{}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.user.FullName())
	}
}
