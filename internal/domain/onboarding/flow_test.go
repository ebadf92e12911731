package onboarding

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_AgentSetupForward(t *testing.T) {
	f, err := New(KindAgentSetup, nil)
	require.NoError(t, err)
	assert.Equal(t, StepInfo, f.Current())

	require.NoError(t, f.Next())
	assert.Equal(t, StepFee, f.Current())
	require.NoError(t, f.Next())
	assert.Equal(t, StepHours, f.Current())
	require.NoError(t, f.Next())
	assert.True(t, f.Done())

	var trErr *InvalidTransitionError
	require.ErrorAs(t, f.Next(), &trErr)
	assert.Equal(t, StepDone, trErr.From)
	assert.Equal(t, ActionNext, trErr.Action)
}

func TestFlow_BackFromFirstStep(t *testing.T) {
	f, err := New(KindBusinessSignup, nil)
	require.NoError(t, err)

	var trErr *InvalidTransitionError
	require.ErrorAs(t, f.Back(), &trErr)
	assert.Equal(t, StepAuth, trErr.From)
	assert.Equal(t, StepAuth, f.Current())
}

func TestFlow_BackAndForth(t *testing.T) {
	f, err := New(KindBusinessSignup, nil)
	require.NoError(t, err)

	require.NoError(t, f.Apply(ActionNext))
	require.NoError(t, f.Apply(ActionNext))
	assert.Equal(t, StepBrand, f.Current())
	require.NoError(t, f.Apply(ActionBack))
	assert.Equal(t, StepBusiness, f.Current())
}

func TestFlow_BackFromDoneRejected(t *testing.T) {
	f, err := New(KindAgentSetup, nil)
	require.NoError(t, err)
	for range 3 {
		require.NoError(t, f.Next())
	}

	var trErr *InvalidTransitionError
	require.ErrorAs(t, f.Back(), &trErr)
	assert.True(t, f.Done())
}

func TestFlow_GuardBlocksNext(t *testing.T) {
	errBadFee := errors.New("bad fee")
	valid := false
	f, err := New(KindAgentSetup, map[Step]Guard{
		StepFee: func() error {
			if !valid {
				return errBadFee
			}
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.Next())

	require.ErrorIs(t, f.Next(), errBadFee)
	assert.Equal(t, StepFee, f.Current())

	valid = true
	require.NoError(t, f.Next())
	assert.Equal(t, StepHours, f.Current())
}

func TestFlow_UnknownActionAndKind(t *testing.T) {
	_, err := New(Kind("wizard"), nil)
	require.ErrorIs(t, err, ErrUnknownKind)

	f, err := New(KindAgentSetup, nil)
	require.NoError(t, err)
	var trErr *InvalidTransitionError
	require.ErrorAs(t, f.Apply(Action("skip")), &trErr)
	assert.Equal(t, StepInfo, f.Current())
}

func TestFlow_StepsCopy(t *testing.T) {
	f, err := New(KindAgentSetup, nil)
	require.NoError(t, err)

	steps := f.Steps()
	steps[0] = StepDone
	assert.Equal(t, StepInfo, f.Current())
	assert.Equal(t, []Step{StepInfo, StepFee, StepHours, StepDone}, f.Steps())
}

func TestFlow_FinalAndCheck(t *testing.T) {
	errClosed := errors.New("closed")
	f, err := New(KindAgentSetup, map[Step]Guard{
		StepHours: func() error { return errClosed },
	})
	require.NoError(t, err)
	assert.False(t, f.Final())

	require.NoError(t, f.Next())
	require.NoError(t, f.Next())
	assert.True(t, f.Final())

	require.ErrorIs(t, f.Check(), errClosed)
	assert.Equal(t, StepHours, f.Current(), "check never moves")
	require.ErrorIs(t, f.Next(), errClosed)
	assert.False(t, f.Done())
}
