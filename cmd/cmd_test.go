package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/flickpick/annotation"
	"github.com/s0up4200/flickpick/config"
	"github.com/s0up4200/flickpick/display"
	"github.com/s0up4200/flickpick/identity"
	"github.com/s0up4200/flickpick/recommend"
	"github.com/s0up4200/flickpick/tmdb"
)

func TestParseMovieID(t *testing.T) {
	id, err := parseMovieID(" 550 ")
	require.NoError(t, err)
	assert.Equal(t, int64(550), id)

	for _, bad := range []string{"", "0", "-3", "abc", "1.5"} {
		_, err := parseMovieID(bad)
		assert.Error(t, err, bad)
	}
}

func TestFilterExpression(t *testing.T) {
	presets := config.FilterConfig{"classics": "Year < 1980"}

	tests := []struct {
		name       string
		expression string
		preset     string
		want       string
		wantErr    bool
	}{
		{name: "none", want: ""},
		{name: "filter wins", expression: "VoteAverage > 8", preset: "classics", want: "VoteAverage > 8"},
		{name: "preset", preset: "Classics", want: "Year < 1980"},
		{name: "unknown preset", preset: "noir", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filterExpression(tt.expression, tt.preset, presets)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExplainIdentity(t *testing.T) {
	err := explainIdentity(identity.ErrNoIdentity)
	require.ErrorIs(t, err, identity.ErrNoIdentity)
	assert.Contains(t, err.Error(), "--user")

	other := errors.New("other")
	assert.Equal(t, other, explainIdentity(other))
}

func TestCurrentUser(t *testing.T) {
	defer func(flag string, c *config.Config) { userFlag, cfg = flag, c }(userFlag, cfg)

	cfg = &config.Config{Identity: config.IdentityConfig{UserID: " u-config "}}
	userFlag = ""
	assert.Equal(t, "u-config", currentUser())

	userFlag = "u-flag"
	assert.Equal(t, "u-flag", currentUser())

	cfg = nil
	userFlag = ""
	assert.Equal(t, "", currentUser())
}

type browserFakes struct {
	marks       map[annotation.Kind]bool
	detailsErr  error
	toggleErr   error
	detailCalls []int64
}

func (f *browserFakes) details(_ context.Context, _ string, movieID int64) (*recommend.Card, error) {
	f.detailCalls = append(f.detailCalls, movieID)
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return &recommend.Card{Movie: tmdb.Movie{ID: movieID, Title: "Detailed"}}, nil
}

func (f *browserFakes) toggle(_ context.Context, userID string, _ int64, kind annotation.Kind) (bool, error) {
	if userID == "" {
		return false, identity.ErrNoIdentity
	}
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	f.marks[kind] = !f.marks[kind]
	return f.marks[kind], nil
}

func newTestBrowser(fakes *browserFakes, input, user string) (*browser, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &browser{
		details: fakes.details,
		toggle:  fakes.toggle,
		format:  display.NewConsoleFormatter(out, false),
		logger:  zerolog.Nop(),
		in:      strings.NewReader(input),
		out:     out,
		userID:  user,
	}, out
}

func testSession() *recommend.Session {
	return recommend.NewSession([]tmdb.Movie{
		{ID: 1, Title: "First"},
		{ID: 2, Title: "Second"},
		{ID: 3, Title: "Third"},
	})
}

func TestBrowserNavigation(t *testing.T) {
	fakes := &browserFakes{marks: map[annotation.Kind]bool{}}
	b, out := newTestBrowser(fakes, "p\nn\n\nn\nnext\nback\nq\n", "u1")

	require.NoError(t, b.run(context.Background(), testSession()))

	assert.Equal(t, []int64{1, 2, 3, 2}, fakes.detailCalls)
	assert.Contains(t, out.String(), "Already at the first recommendation.")
	assert.Contains(t, out.String(), "That was the last recommendation.")
	assert.Contains(t, out.String(), "[3/3]")
}

func TestBrowserToggles(t *testing.T) {
	fakes := &browserFakes{marks: map[annotation.Kind]bool{}}
	b, out := newTestBrowser(fakes, "f\nw\nf\nhuh\n", "u1")

	require.NoError(t, b.run(context.Background(), testSession()))

	assert.False(t, fakes.marks[annotation.Favorite])
	assert.True(t, fakes.marks[annotation.Watched])
	assert.Contains(t, out.String(), "✓ First marked as Favorite")
	assert.Contains(t, out.String(), "✓ First marked as Watched")
	assert.Contains(t, out.String(), "✗ First no longer marked as Favorite")
	assert.Contains(t, out.String(), "Unknown command")
	assert.Equal(t, []int64{1}, fakes.detailCalls, "toggling does not move the session")
}

func TestBrowserDegrades(t *testing.T) {
	t.Run("details failure shows the snapshot", func(t *testing.T) {
		fakes := &browserFakes{marks: map[annotation.Kind]bool{}, detailsErr: tmdb.ErrUpstream}
		b, out := newTestBrowser(fakes, "q\n", "u1")

		require.NoError(t, b.run(context.Background(), testSession()))
		assert.Contains(t, out.String(), "First")
	})

	t.Run("no identity keeps browsing", func(t *testing.T) {
		fakes := &browserFakes{marks: map[annotation.Kind]bool{}}
		b, out := newTestBrowser(fakes, "f\nn\nq\n", "")

		require.NoError(t, b.run(context.Background(), testSession()))
		assert.Contains(t, out.String(), "Could not update favorite")
		assert.Equal(t, []int64{1, 2}, fakes.detailCalls)
	})

	t.Run("empty session", func(t *testing.T) {
		b, out := newTestBrowser(&browserFakes{}, "", "u1")
		require.NoError(t, b.run(context.Background(), recommend.NewSession(nil)))
		assert.Contains(t, out.String(), "No recommendations found")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		b, _ := newTestBrowser(&browserFakes{}, "n\n", "u1")
		require.ErrorIs(t, b.run(ctx, testSession()), context.Canceled)
	})
}

func TestWriteStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("both kinds", func(t *testing.T) {
		out := &bytes.Buffer{}
		writeStatus(ctx, out, zerolog.Nop(), "u1", 550, func(_ context.Context, _ string, _ int64, kind annotation.Kind) (bool, error) {
			return kind == annotation.Watched, nil
		})

		assert.Equal(t, "Movie 550:\n├── Favorite: no\n╰── Watched: yes\n", out.String())
	})

	t.Run("backend failure is shown as unknown", func(t *testing.T) {
		out := &bytes.Buffer{}
		writeStatus(ctx, out, zerolog.Nop(), "u1", 550, func(_ context.Context, _ string, _ int64, kind annotation.Kind) (bool, error) {
			if kind == annotation.Favorite {
				return false, annotation.ErrBackend
			}
			return true, nil
		})

		assert.Contains(t, out.String(), "├── Favorite: unknown\n")
		assert.Contains(t, out.String(), "╰── Watched: yes\n")
		assert.Contains(t, out.String(), "temporarily unavailable")
	})
}
