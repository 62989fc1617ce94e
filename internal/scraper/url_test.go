package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storyloom/storyloom-backend/internal/common"
)

func TestValidateOriginURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid thread url", "https://musebox.dreamwidth.org/123456.html", false},
		{"valid with query", "https://musebox.dreamwidth.org/123456.html?page=2", false},
		{"http scheme accepted", "http://musebox.dreamwidth.org/123456.html", false},
		{"bare host", "https://dreamwidth.org/123456.html", false},
		{"wrong host", "https://musebox.livejournal.com/123456.html", true},
		{"host suffix trick", "https://evildreamwidth.org/123456.html", true},
		{"non-thread path", "https://musebox.dreamwidth.org/profile", true},
		{"non-numeric entry", "https://musebox.dreamwidth.org/abc.html", true},
		{"missing scheme", "musebox.dreamwidth.org/123456.html", true},
		{"ftp scheme", "ftp://musebox.dreamwidth.org/123456.html", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOriginURL(tt.url, "dreamwidth.org")
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidOriginURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeThreadURL(t *testing.T) {
	t.Run("flat mode forces site style and flat view", func(t *testing.T) {
		got, err := NormalizeThreadURL("https://musebox.dreamwidth.org/123456.html", false)
		assert.NoError(t, err)
		assert.Equal(t, "https://musebox.dreamwidth.org/123456.html?style=site&view=flat", got)
	})

	t.Run("flat mode overrides existing view", func(t *testing.T) {
		got, err := NormalizeThreadURL("https://musebox.dreamwidth.org/123456.html?view=top-only", false)
		assert.NoError(t, err)
		assert.Equal(t, "https://musebox.dreamwidth.org/123456.html?style=site&view=flat", got)
	})

	t.Run("threaded mode drops view but keeps site style", func(t *testing.T) {
		got, err := NormalizeThreadURL("https://musebox.dreamwidth.org/123456.html?view=flat", true)
		assert.NoError(t, err)
		assert.Equal(t, "https://musebox.dreamwidth.org/123456.html?style=site", got)
	})

	t.Run("existing page parameter survives", func(t *testing.T) {
		got, err := NormalizeThreadURL("https://musebox.dreamwidth.org/123456.html?page=3", false)
		assert.NoError(t, err)
		assert.Contains(t, got, "page=3")
		assert.Contains(t, got, "style=site")
		assert.Contains(t, got, "view=flat")
	})
}

func TestNormalizeIconURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"protocol relative", "//v.dreamwidth.org/123/456", "https://v.dreamwidth.org/123/456"},
		{"host relative", "/userpic/123/456", "https://www.dreamwidth.org/userpic/123/456"},
		{"http upgraded", "http://v.dreamwidth.org/123/456", "https://v.dreamwidth.org/123/456"},
		{"https untouched", "https://v.dreamwidth.org/123/456", "https://v.dreamwidth.org/123/456"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIconURL(tt.raw, "www.dreamwidth.org"))
		})
	}
}
