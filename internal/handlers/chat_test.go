package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jinsuh/supplyhub/internal/cache"
	"github.com/jinsuh/supplyhub/internal/chat"
	"github.com/jinsuh/supplyhub/internal/database/testutil"
	"github.com/jinsuh/supplyhub/internal/events"
	"github.com/jinsuh/supplyhub/internal/models"
	"github.com/jinsuh/supplyhub/internal/services"
	"github.com/jinsuh/supplyhub/pkg/response"
)

func newChatHandler(t *testing.T) (*ChatHandler, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	queue := chat.NewDeletionQueue(cache.NewDatabaseStore(db), chat.DefaultDeletionTTL)
	rooms := services.NewChatRoomService(db, queue)
	hub := chat.NewHub()
	messages := services.NewChatMessageService(db, rooms, hub, events.NewDispatcher())
	return NewChatHandler(rooms, messages, hub), db
}

func seedChatUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	user := models.User{
		BaseModel: models.BaseModel{ID: id},
		Username:  id,
		Email:     id + "@example.com",
		Name:      id,
		Role:      models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
}

func TestChatHandlerCreatePairwiseRoom(t *testing.T) {
	handler, db := newChatHandler(t)
	seedChatUser(t, db, "alice")
	seedChatUser(t, db, "bob")

	body, err := json.Marshal(gin.H{"kind": "pairwise", "participants": []string{"bob"}})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	c := authedContext(t, recorder, "alice", models.RoleUser, "/api/chat/rooms")
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat/rooms", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.CreateRoom(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.True(t, payload.Success)

	dataBytes, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	var room models.ChatRoom
	require.NoError(t, json.Unmarshal(dataBytes, &room))
	require.Equal(t, models.RoomPairwise, room.Kind)
	require.NotEmpty(t, room.ID)

	member, err := handler.rooms.IsMember(context.Background(), room.ID, "alice")
	require.NoError(t, err)
	require.True(t, member)
}

func TestChatHandlerCreateRoomRejectsBadKind(t *testing.T) {
	handler, _ := newChatHandler(t)

	body, err := json.Marshal(gin.H{"kind": "broadcast"})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	c := authedContext(t, recorder, "alice", models.RoleUser, "/api/chat/rooms")
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat/rooms", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.CreateRoom(c)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestChatHandlerJoinLeaveAndHistory(t *testing.T) {
	handler, db := newChatHandler(t)
	seedChatUser(t, db, "alice")
	seedChatUser(t, db, "bob")
	seedChatUser(t, db, "carol")

	room, err := handler.rooms.FindOrCreate(context.Background(), models.RoomGroup, "ops", []string{"alice", "bob"})
	require.NoError(t, err)

	joinRecorder := httptest.NewRecorder()
	c := authedContext(t, joinRecorder, "carol", models.RoleUser, "/api/chat/rooms")
	c.Params = gin.Params{gin.Param{Key: "id", Value: room.ID}}
	handler.Join(c)
	require.Equal(t, http.StatusOK, joinRecorder.Code)

	_, err = handler.messages.PostMessage(context.Background(), room.ID, "alice", "alice", "hello everyone")
	require.NoError(t, err)

	historyRecorder := httptest.NewRecorder()
	c2 := authedContext(t, historyRecorder, "carol", models.RoleUser, "/api/chat/rooms/"+room.ID+"/messages")
	c2.Params = gin.Params{gin.Param{Key: "id", Value: room.ID}}
	handler.History(c2)
	require.Equal(t, http.StatusOK, historyRecorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(historyRecorder.Body.Bytes(), &payload))
	require.NotNil(t, payload.Meta)
	require.Equal(t, int64(1), payload.Meta.Total)

	leaveRecorder := httptest.NewRecorder()
	c3 := authedContext(t, leaveRecorder, "carol", models.RoleUser, "/api/chat/rooms/"+room.ID+"/leave")
	c3.Params = gin.Params{gin.Param{Key: "id", Value: room.ID}}
	handler.Leave(c3)
	require.Equal(t, http.StatusOK, leaveRecorder.Code)

	member, err := handler.rooms.IsMember(context.Background(), room.ID, "carol")
	require.NoError(t, err)
	require.False(t, member)
}

func TestChatHandlerHistoryRequiresMembership(t *testing.T) {
	handler, db := newChatHandler(t)
	seedChatUser(t, db, "alice")
	seedChatUser(t, db, "bob")
	seedChatUser(t, db, "mallory")

	room, err := handler.rooms.FindOrCreate(context.Background(), models.RoomPairwise, "", []string{"alice", "bob"})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	c := authedContext(t, recorder, "mallory", models.RoleUser, "/api/chat/rooms/"+room.ID+"/messages")
	c.Params = gin.Params{gin.Param{Key: "id", Value: room.ID}}
	handler.History(c)

	require.Equal(t, http.StatusForbidden, recorder.Code)
}
