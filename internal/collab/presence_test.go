package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceManager_UpdateRemoveGetAll(t *testing.T) {
	pm := NewPresenceManager()

	pm.Update("client_1", &PresencePayload{
		Cursor:      &CursorPos{X: 12, Y: 34},
		Selection:   []string{"n1"},
		DisplayName: "Ada",
	})
	pm.Update("client_2", &PresencePayload{DisplayName: "Grace"})

	all := pm.GetAll()
	require.Len(t, all, 2)
	require.NotNil(t, all["client_1"].Cursor)
	assert.Equal(t, 12.0, all["client_1"].Cursor.X)

	// GetAll hands out a copy.
	delete(all, "client_1")
	assert.Len(t, pm.GetAll(), 2)

	pm.Update("client_1", &PresencePayload{DisplayName: "Ada", Selection: []string{"n2"}})
	assert.Equal(t, []string{"n2"}, pm.GetAll()["client_1"].Selection)

	pm.Remove("client_2")
	all = pm.GetAll()
	assert.Len(t, all, 1)
	assert.NotContains(t, all, "client_2")
}

func TestPresenceManager_StateMessageRoundTrip(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("client_1", &PresencePayload{
		DisplayName: "Ada",
		Drag: &DragPresence{
			NodeIDs:  []string{"n1", "n2"},
			TargetID: "frame",
			Position: "inside",
		},
	})

	msg := pm.StateMessage()
	require.NotNil(t, msg)
	assert.Equal(t, TypePresenceState, msg.Type)

	var state PresenceStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	require.Contains(t, state.Presences, "client_1")
	got := state.Presences["client_1"]
	require.NotNil(t, got.Drag)
	assert.Equal(t, "frame", got.Drag.TargetID)
	assert.Equal(t, "inside", got.Drag.Position)
	assert.Equal(t, []string{"n1", "n2"}, got.Drag.NodeIDs)
}
