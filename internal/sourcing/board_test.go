package sourcing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot-engine/internal/domain"
)

const searchPage = `<!DOCTYPE html>
<html><body>
<div data-qa="resume-card" data-applicant-id="a-100">
  <a data-qa="resume-title" href="https://board.example/resume/a-100">Go Developer</a>
  <span data-qa="resume-name">Sam Reyes</span>
  <p data-qa="resume-snippet">5 years of golang and postgres</p>
</div>
<div class="resume-search-item">
  <a class="resume-link" href="/resume/a-200?from=search">Java Developer</a>
  <span class="resume-name">Kim Soto</span>
  <p class="resume-snippet">spring, hibernate, 1C experience</p>
</div>
<div data-qa="resume-card">
  <span data-qa="resume-name">No Link Here</span>
</div>
</body></html>`

func TestSearchResumesParsesCards(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	b := NewBoard(BoardConfig{SearchURL: srv.URL, MaxResumes: 10}, nil)
	leads, err := b.SearchResumes(context.Background(), domain.Criteria{
		Position: "go developer",
		Keywords: []string{"golang", "postgres"},
	})
	require.NoError(t, err)

	require.Len(t, leads, 2, "card without an applicant id must be skipped")
	assert.Equal(t, "a-100", leads[0].ApplicantID)
	assert.Equal(t, "Sam Reyes", leads[0].Name)
	assert.Equal(t, "Go Developer", leads[0].Title)
	assert.Contains(t, leads[0].ResumeText, "golang")
	assert.Equal(t, "https://board.example/resume/a-100", leads[0].URL)

	// fallback id extraction from the profile link
	assert.Equal(t, "a-200", leads[1].ApplicantID)

	assert.Contains(t, gotQuery, "text=go+developer")
	assert.Contains(t, gotQuery, "skills=golang%2Cpostgres")
}

func TestSearchResumesAppliesExclusions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	b := NewBoard(BoardConfig{SearchURL: srv.URL}, nil)
	leads, err := b.SearchResumes(context.Background(), domain.Criteria{
		Position:   "developer",
		Exclusions: []string{"1c"},
	})
	require.NoError(t, err)

	require.Len(t, leads, 1)
	assert.Equal(t, "a-100", leads[0].ApplicantID)
}

func TestSearchResumesHonorsMaxResumes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	b := NewBoard(BoardConfig{SearchURL: srv.URL, MaxResumes: 1}, nil)
	leads, err := b.SearchResumes(context.Background(), domain.Criteria{Position: "developer"})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestSearchResumesRequiresURL(t *testing.T) {
	b := NewBoard(BoardConfig{}, nil)
	_, err := b.SearchResumes(context.Background(), domain.Criteria{Position: "dev"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search_url")
}

func TestSearchResumesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "captcha", http.StatusForbidden)
	}))
	defer srv.Close()

	b := NewBoard(BoardConfig{SearchURL: srv.URL}, nil)
	_, err := b.SearchResumes(context.Background(), domain.Criteria{Position: "dev"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestIDFromHref(t *testing.T) {
	cases := map[string]string{
		"https://board.example/resume/a-100":  "a-100",
		"https://board.example/resume/a-100/": "a-100",
		"/resume/a-200?from=search":           "a-200",
		"a-300":                               "",
	}
	for href, want := range cases {
		assert.Equal(t, want, idFromHref(href), href)
	}
}

func TestExcluded(t *testing.T) {
	lead := domain.ResumeLead{Title: "Senior 1C Developer", ResumeText: "enterprise forms"}
	assert.True(t, excluded(lead, []string{"1c"}))
	assert.False(t, excluded(lead, []string{"cobol"}))
	assert.False(t, excluded(lead, nil))
}
