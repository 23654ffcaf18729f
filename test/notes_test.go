//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/smartnotes/internal/notes"
	notesBox "github.com/2beens/smartnotes/internal/notes_box"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path string, form url.Values) (int, []byte) {
	t := s.T()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, body)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) listNotes(ctx context.Context, term string) notesBox.NotesListResponse {
	t := s.T()
	status, body := s.doRequest(ctx, http.MethodGet, "/notes?q="+url.QueryEscape(term), nil)
	require.Equal(t, http.StatusOK, status)

	var notesResp notesBox.NotesListResponse
	require.NoError(t, json.Unmarshal(body, &notesResp))
	return notesResp
}

// storedNotes reads the blob the service wrote straight from postgres.
func (s *IntegrationTestSuite) storedNotes(ctx context.Context) []notes.Note {
	t := s.T()

	var raw []byte
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT value FROM kv_store WHERE key = $1`,
		testNotesKey,
	).Scan(&raw)
	require.NoError(t, err)

	stored, err := notes.Unmarshal(raw)
	require.NoError(t, err)
	return stored
}

func (s *IntegrationTestSuite) TestNotesLifecycle() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	status, body := s.doRequest(ctx, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "smartnotes up, version: test-version-info", string(body))

	initial := s.listNotes(ctx, "")
	initialTotal := initial.Total

	status, body = s.doRequest(ctx, http.MethodPost, "/notes", url.Values{
		"title":   {"Milk"},
		"content": {"Buy milk"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var milk notesBox.AddNoteResponse
	require.NoError(t, json.Unmarshal(body, &milk))
	assert.Empty(t, milk.PersistError)
	assert.False(t, milk.Note.Urgent)

	status, body = s.doRequest(ctx, http.MethodPost, "/notes", url.Values{
		"title":    {"Taxes"},
		"content":  {"file them"},
		"deadline": {"2000-01-01T00:00:00Z"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var taxes notesBox.AddNoteResponse
	require.NoError(t, json.Unmarshal(body, &taxes))
	assert.True(t, taxes.Note.Urgent)
	assert.True(t, strings.HasSuffix(taxes.Note.Due, " ago"), taxes.Note.Due)
	assert.Greater(t, taxes.Note.ID, milk.Note.ID)

	status, _ = s.doRequest(ctx, http.MethodPost, "/notes", url.Values{
		"title":   {"   "},
		"content": {"nothing"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	listResp := s.listNotes(ctx, "")
	assert.Equal(t, initialTotal+2, listResp.Total)

	listResp = s.listNotes(ctx, "MILK")
	require.Len(t, listResp.Notes, 1)
	assert.Equal(t, milk.Note.ID, listResp.Notes[0].ID)

	stored := s.storedNotes(ctx)
	require.Len(t, stored, initialTotal+2)
	assert.Equal(t, "Taxes", stored[len(stored)-1].Title)
	require.NotNil(t, stored[len(stored)-1].Deadline)
	assert.Equal(t, 2000, stored[len(stored)-1].Deadline.UTC().Year())

	status, body = s.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/notes/%d", milk.Note.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var deleted notesBox.DeleteNoteResponse
	require.NoError(t, json.Unmarshal(body, &deleted))
	assert.Equal(t, initialTotal+1, deleted.Total)

	// deleting again is a no-op
	status, _ = s.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/notes/%d", milk.Note.ID), nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.doRequest(ctx, http.MethodGet, fmt.Sprintf("/notes/%d", milk.Note.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)

	stored = s.storedNotes(ctx)
	assert.Len(t, stored, initialTotal+1)
	for _, n := range stored {
		assert.NotEqual(t, milk.Note.ID, n.ID)
	}
}
