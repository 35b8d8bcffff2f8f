package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	controllers "learnhub/controllers/community"
	"learnhub/middleware"
	"learnhub/models"
	communityModels "learnhub/models/community"
	"learnhub/routers/communityRoutes"
	"learnhub/services/authz"
	"learnhub/services/community"
	"learnhub/storage"
	"learnhub/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "test-secret"

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := testutil.NewFakeAssetStore()
	svc := community.NewService(db, authz.NewResolver(db), store, storage.NewReleaser(store, db, log), storage.DefaultPolicy(), log)

	app := fiber.New()
	communityRoutes.SetupCommunityRoutes(app, controllers.NewHandler(svc, log), secret)
	return app, db
}

func token(t *testing.T, p models.Principal) string {
	t.Helper()
	tok, err := middleware.GenerateJWT(secret, p, time.Hour)
	require.NoError(t, err)
	return tok
}

func instructor(id uint) models.Principal {
	return models.Principal{UserID: id, Role: models.RoleInstructor, InstructorID: &id}
}

func student(id uint) models.Principal {
	return models.Principal{UserID: 1000 + id, Role: models.RoleStudent, StudentID: &id}
}

func call(t *testing.T, app *fiber.App, method, path, tok string, payload interface{}) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCommunityConversation(t *testing.T) {
	app, db := newApp(t)
	instr := testutil.Instructor(t, db)
	st := testutil.Student(t, db, instr.ID)
	instrTok, stTok := token(t, instructor(instr.ID)), token(t, student(st.ID))

	status, res := call(t, app, http.MethodPost, "/communities", instrTok, map[string]string{"name": "Gophers"})
	require.Equal(t, fiber.StatusCreated, status, res.Message)
	var created communityModels.Community
	require.NoError(t, json.Unmarshal(res.Data, &created))
	base := fmt.Sprintf("/communities/%d", created.ID)

	// reading requires membership
	status, _ = call(t, app, http.MethodGet, base+"/messages", stTok, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, http.MethodPost, base+"/join", stTok, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, res = call(t, app, http.MethodPost, base+"/messages", stTok, map[string]string{"content": "hello"})
	require.Equal(t, fiber.StatusCreated, status, res.Message)
	var first communityModels.Message
	require.NoError(t, json.Unmarshal(res.Data, &first))
	assert.Equal(t, models.RoleStudent, first.AuthorRole)

	status, _ = call(t, app, http.MethodPost, base+"/messages", instrTok, map[string]string{"content": "welcome"})
	require.Equal(t, fiber.StatusCreated, status)

	status, res = call(t, app, http.MethodPost, fmt.Sprintf("/messages/%d/pin", first.ID), instrTok, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Message pinned successfully!", res.Message)

	status, res = call(t, app, http.MethodGet, base+"/messages", stTok, nil)
	require.Equal(t, fiber.StatusOK, status)
	var page struct {
		Messages []communityModels.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.Len(t, page.Messages, 2)
	assert.Equal(t, first.ID, page.Messages[0].ID, "pinned first")

	status, _ = call(t, app, http.MethodPost, base+"/leave", stTok, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, app, http.MethodPost, base+"/messages", stTok, map[string]string{"content": "still here?"})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestOnlyInstructorsCreateAndPin(t *testing.T) {
	app, db := newApp(t)
	instr := testutil.Instructor(t, db)
	st := testutil.Student(t, db, instr.ID)
	stTok := token(t, student(st.ID))

	status, _ := call(t, app, http.MethodPost, "/communities", stTok, map[string]string{"name": "Shadow"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, http.MethodPost, "/messages/1/pin", stTok, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, res := call(t, app, http.MethodPost, "/communities", token(t, instructor(instr.ID)), map[string]string{"name": " "})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed!", res.Message)
}

func TestForeignMessageIsOpaque(t *testing.T) {
	app, db := newApp(t)
	owner := testutil.Instructor(t, db)
	other := testutil.Instructor(t, db)
	c := communityModels.Community{InstructorID: owner.ID, Name: "Owners"}
	require.NoError(t, db.Create(&c).Error)
	msg := communityModels.Message{CommunityID: c.ID, AuthorID: owner.ID, AuthorRole: models.RoleInstructor, Content: "rules"}
	require.NoError(t, db.Create(&msg).Error)

	tok := token(t, instructor(other.ID))
	foreignStatus, foreign := call(t, app, http.MethodDelete, fmt.Sprintf("/messages/%d", msg.ID), tok, nil)
	missingStatus, missing := call(t, app, http.MethodDelete, "/messages/99999", tok, nil)

	assert.Equal(t, fiber.StatusNotFound, foreignStatus)
	assert.Equal(t, missingStatus, foreignStatus)
	assert.Equal(t, missing, foreign)
}
