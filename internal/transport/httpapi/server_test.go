package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arth-22/nexuscortex/core/intake"
	"github.com/arth-22/nexuscortex/core/state"
	"github.com/arth-22/nexuscortex/internal/transport/httpapi"
)

func testSnapshot() state.Snapshot {
	return state.Snapshot{
		Tick:     3,
		Presence: state.Attentive,
		Outputs: map[state.OutputId]state.Output{
			"o1": {ID: "o1", Status: state.Draft, Content: "hello"},
		},
	}
}

func TestHealthzReturnsOk(t *testing.T) {
	srv := httpapi.New(testSnapshot, make(intake.Inbox, 1))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSnapshotReportsTickAndPresence(t *testing.T) {
	srv := httpapi.New(testSnapshot, make(intake.Inbox, 1))
	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["tick"])
	assert.Equal(t, "attentive", body["presence"])
}

func TestOutputsListsCurrentOutputs(t *testing.T) {
	srv := httpapi.New(testSnapshot, make(intake.Inbox, 1))
	req := httptest.NewRequest(http.MethodGet, "/api/outputs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Outputs []map[string]any `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Outputs, 1)
	assert.Equal(t, "o1", body.Outputs[0]["id"])
}

func TestAttachEnqueuesUiCommand(t *testing.T) {
	inbox := make(intake.Inbox, 1)
	srv := httpapi.New(testSnapshot, inbox)
	req := httptest.NewRequest(http.MethodPost, "/api/ui/attach", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	select {
	case ev := <-inbox:
		assert.Equal(t, intake.Attach, ev.UiCommand.Kind)
	default:
		t.Fatal("expected an attach command on the inbox")
	}
}
