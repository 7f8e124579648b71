package view

import (
	"bytes"
	"testing"

	"etuition/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Pages(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	for _, name := range []string{
		PageLoading, PageForbidden, PageNotFound, PageError, PageLogin, PageRegister,
		PageHome, PageStudentDashboard, PageTutorDashboard, PageAdminDashboard, PageProfile,
	} {
		assert.Contains(t, r.pages, name)
	}
}

func TestRenderer_NotFound(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, PageNotFound, Page{Data: NotFoundData{Seconds: 5, Home: "/"}}, nil))

	assert.Contains(t, buf.String(), `content="5;url=/"`)
	assert.Contains(t, buf.String(), "Redirecting to home in <span id=\"countdown\">5</span> seconds")
}

func TestRenderer_ForbiddenSignedIn(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	page := Page{
		Session: entity.Session{Identity: &entity.Identity{Email: "s@example.com", DisplayName: "Sam"}},
		Error:   "Access denied",
		Data:    ForbiddenData{Back: "/navigate/back", Home: "/"},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, PageForbidden, page, nil))

	assert.Contains(t, buf.String(), "Access denied")
	assert.Contains(t, buf.String(), `href="/navigate/back"`)
	assert.Contains(t, buf.String(), "Sam (s@example.com)")
}

func TestRenderer_UnknownPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	assert.Error(t, r.Render(&bytes.Buffer{}, "missing", Page{}, nil))
}
