package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// toDoc converts a model into a bson.D usable in mock responses
func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	data, err := bson.Marshal(v)
	require.NoError(t, err)

	var doc bson.D
	require.NoError(t, bson.Unmarshal(data, &doc))
	return doc
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func found(ns string, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docs...)
}

func findAndModified(doc any) bson.D {
	return bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: doc}}
}

func commandError(code int32) bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{Code: code, Message: "command failed", Name: "CommandFailed"})
}

// commandTargets lists "command:collection" for each command the client sent
func commandTargets(mt *mtest.T) []string {
	var targets []string
	for _, evt := range mt.GetAllStartedEvents() {
		targets = append(targets, evt.CommandName+":"+collectionOf(evt))
	}
	return targets
}

func collectionOf(evt *event.CommandStartedEvent) string {
	value, err := evt.Command.LookupErr(evt.CommandName)
	if err != nil {
		return ""
	}
	name, _ := value.StringValueOK()
	return name
}

func lastCommand(mt *mtest.T, name string) *event.CommandStartedEvent {
	var last *event.CommandStartedEvent
	for _, evt := range mt.GetAllStartedEvents() {
		if evt.CommandName == name {
			last = evt
		}
	}
	return last
}
