package planner

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arth-22/nexuscortex/core/crystallizer"
	"github.com/arth-22/nexuscortex/core/state"
)

func TestDispatchSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind":"begin_response","confidence":0.9}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	c.Dispatch(crystallizer.PlannerSnapshot{Tick: 1}, 7)

	select {
	case res := <-c.Results():
		require.Equal(t, state.PlanningEpoch(7), res.Epoch)
		require.Equal(t, state.PlannerErrNone, res.Err)
		require.NotNil(t, res.Intent)
		assert.Equal(t, state.BeginResponse, res.Intent.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}

	stats := c.StatsSnapshot()
	assert.EqualValues(t, 1, stats.Succeeded)
}

func TestDispatchTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"kind":"do_nothing"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Millisecond)
	c.Dispatch(crystallizer.PlannerSnapshot{Tick: 1}, 3)

	select {
	case res := <-c.Results():
		assert.Equal(t, state.PlannerErrTimeout, res.Err)
		assert.Nil(t, res.Intent)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestAbortYieldsAbortedError(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
		close(block)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	c.Dispatch(crystallizer.PlannerSnapshot{Tick: 1}, 9)
	c.Abort(9)

	select {
	case res := <-c.Results():
		assert.Equal(t, state.PlannerErrAborted, res.Err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestMalformedResponseYieldsMalformedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	c.Dispatch(crystallizer.PlannerSnapshot{Tick: 1}, 1)

	select {
	case res := <-c.Results():
		assert.Equal(t, state.PlannerErrMalformed, res.Err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}
