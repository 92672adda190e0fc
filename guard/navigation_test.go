package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		hasSession bool
		loading    bool
		want       string
	}{
		{"protected without session", "/dashboard", false, false, LoginPath},
		{"protected with session", "/dashboard", true, false, ""},
		{"login with session", "/login", true, false, DashboardPath},
		{"signup with session", "/signup", true, false, DashboardPath},
		{"root with session", "/", true, false, DashboardPath},
		{"login without session", "/login", false, false, ""},
		{"expired marker is still the login page", "/login?reason=expired", false, false, ""},
		{"loading never redirects", "/caretaker", false, true, ""},
		{"loading with session", "/login", true, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.path, tt.hasSession, tt.loading))
		})
	}
}

func TestIsPublic(t *testing.T) {
	assert.True(t, IsPublic("/"))
	assert.True(t, IsPublic("/signup"))
	assert.False(t, IsPublic("/sign_up"))
	assert.False(t, IsPublic("/medication"))
}
