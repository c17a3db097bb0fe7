package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/testutil"
)

func TestSync(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantOut   string
		wantCalls []string
	}{
		{
			name:      "both directions to origin",
			wantOut:   "Fetched from origin\nPushed to origin\n",
			wantCalls: []string{"fetch origin", "push origin"},
		},
		{
			name:      "fetch only",
			args:      []string{"upstream", "--fetch"},
			wantOut:   "Fetched from upstream\n",
			wantCalls: []string{"fetch upstream"},
		},
		{
			name:      "push only",
			args:      []string{"--push"},
			wantOut:   "Pushed to origin\n",
			wantCalls: []string{"push origin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContainer(t)
			syncer := &testutil.MockSyncer{}
			c.Syncer = syncer

			out, err := run(t, newSyncCommand(c), tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, out)
			assert.Equal(t, tt.wantCalls, syncer.Calls)
		})
	}
}

func TestSync_Unsupported(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := run(t, newSyncCommand(c))

	assert.ErrorIs(t, err, domain.ErrSyncUnsupported)
}

func TestSync_FetchFailureStopsPush(t *testing.T) {
	c, _ := newTestContainer(t)
	boom := errors.New("connection refused")
	syncer := &testutil.MockSyncer{FetchErr: boom}
	c.Syncer = syncer

	_, err := run(t, newSyncCommand(c))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"fetch origin"}, syncer.Calls)
}

func TestSync_TooManyArgs(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := run(t, newSyncCommand(c), "a", "b")

	assert.Error(t, err)
}
