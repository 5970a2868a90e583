package registry_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/registry"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

func newParams() session.CreateParams {
	return session.CreateParams{
		SourceModelID:       2001,
		DestinationModelID:  2005,
		InitiatorID:         35,
		InviteeID:           38,
		InputVariablesID:    []int{1},
		InputVariablesSize:  []int{50},
		OutputVariablesID:   nil,
		OutputVariablesSize: nil,
	}
}

func TestHappyPath(t *testing.T) {
	r := registry.New()
	id := r.Create(newParams())

	status, err := r.Status(id)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCreated, status)

	require.NoError(t, r.Join(id, 38))
	status, err = r.Status(id)
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, status)

	xs := make([]float64, 50)
	for i := range xs {
		xs[i] = 1.0
	}
	require.NoError(t, r.Send(id, 1, xs))

	flag, err := r.Flag(id, 1)
	require.NoError(t, err)
	assert.Equal(t, session.FlagFull, flag)

	got, err := r.Receive(id, 1)
	require.NoError(t, err)
	assert.Equal(t, xs, got)

	flag, err = r.Flag(id, 1)
	require.NoError(t, err)
	assert.Equal(t, session.FlagEmpty, flag)

	status, err = r.End(id, 35)
	require.NoError(t, err)
	assert.Equal(t, session.StatusPartialEnd, status)

	_, err = r.End(id, 38)
	require.NoError(t, err)

	_, err = r.Status(id)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestJoinWrongInvitee(t *testing.T) {
	r := registry.New()
	id := r.Create(newParams())

	err := r.Join(id, 99)
	assert.ErrorIs(t, err, session.ErrForbidden)

	status, err := r.Status(id)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCreated, status)
}

func TestDoubleSendConflict(t *testing.T) {
	r := registry.New()
	id := r.Create(newParams())

	require.NoError(t, r.Send(id, 1, []float64{1.0, 2.0}))
	err := r.Send(id, 1, []float64{3.0})
	assert.ErrorIs(t, err, session.ErrConflict)
}

func TestReceiveEmptyNotFound(t *testing.T) {
	r := registry.New()
	id := r.Create(newParams())

	_, err := r.Receive(id, 1)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestUnknownSessionNotFound(t *testing.T) {
	r := registry.New()
	_, err := r.Flag(session.ID{ClientID: "never-created"}, 1)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestJoinAlreadyActiveConflict(t *testing.T) {
	r := registry.New()
	id := r.Create(newParams())
	require.NoError(t, r.Join(id, 38))

	err := r.Join(id, 38)
	assert.ErrorIs(t, err, session.ErrConflict)
}

func TestDuplicateCreateYieldsDistinctIDs(t *testing.T) {
	r := registry.New()
	params := newParams()

	const n = 64
	ids := make([]session.ID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = r.Create(params)
		}(i)
	}
	wg.Wait()

	seen := make(map[session.ID]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate session id minted: %v", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestSendReceiveAlternationUnderConcurrency(t *testing.T) {
	r := registry.New()
	id := r.Create(newParams())

	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			for {
				if err := r.Send(id, 1, []float64{float64(i)}); err == nil {
					break
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			for {
				v, err := r.Receive(id, 1)
				if err == nil {
					require.Equal(t, []float64{float64(i)}, v)
					break
				}
			}
		}
	}()

	wg.Wait()
}

func TestJoinerOwnsComplementOfInitiatorVars(t *testing.T) {
	r := registry.New()
	params := session.CreateParams{
		SourceModelID:       1,
		DestinationModelID:  2,
		InitiatorID:         10,
		InviteeID:           20,
		InputVariablesID:    []int{1, 2},
		InputVariablesSize:  []int{4, 4},
		OutputVariablesID:   []int{3, 4},
		OutputVariablesSize: []int{8, 8},
	}
	id := r.Create(params)
	require.NoError(t, r.Join(id, 20))

	// End by the invitee should clear exactly variables 3 and 4, leaving 1
	// and 2 untouched.
	require.NoError(t, r.Send(id, 1, []float64{9}))
	require.NoError(t, r.Send(id, 3, []float64{9}))

	_, err := r.End(id, 20)
	require.NoError(t, err)

	flag, err := r.Flag(id, 1)
	require.NoError(t, err)
	assert.Equal(t, session.FlagFull, flag, "initiator-owned variable must survive invitee's partial end")

	flag, err = r.Flag(id, 3)
	require.NoError(t, err)
	assert.Equal(t, session.FlagEmpty, flag, "invitee-owned variable must be cleared on invitee's partial end")
}
