package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	controllers "learnhub/controllers/course"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/models/course"
	"learnhub/notify"
	"learnhub/routers/courseRoutes"
	"learnhub/services/authz"
	"learnhub/services/content"
	"learnhub/services/dashboard"
	"learnhub/services/enrollment"
	"learnhub/services/ordering"
	"learnhub/storage"
	"learnhub/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "test-secret"

type env struct {
	app   *fiber.App
	db    *gorm.DB
	store *testutil.FakeAssetStore
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := testutil.NewFakeAssetStore()
	releaser := storage.NewReleaser(store, db, log)
	resolver := authz.NewResolver(db)

	contentSvc := content.NewService(db, resolver, ordering.NewEngine(log), store, releaser, storage.DefaultPolicy(), log)
	enrollmentSvc := enrollment.NewService(db, resolver, notify.Noop{}, log)
	t.Cleanup(enrollmentSvc.Wait)

	h := controllers.NewHandler(contentSvc, enrollmentSvc, dashboard.NewService(db), log)
	app := fiber.New()
	courseRoutes.SetupInstructorRoutes(app, h, secret)
	courseRoutes.SetupCourseRoutes(app, h, secret)
	return &env{app: app, db: db, store: store}
}

func instructorToken(t *testing.T, id uint) string {
	t.Helper()
	tok, err := middleware.GenerateJWT(secret, models.Principal{UserID: id, Role: models.RoleInstructor, InstructorID: &id}, time.Hour)
	require.NoError(t, err)
	return tok
}

func studentToken(t *testing.T, id uint) string {
	t.Helper()
	tok, err := middleware.GenerateJWT(secret, models.Principal{UserID: 1000 + id, Role: models.RoleStudent, StudentID: &id}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *env) send(t *testing.T, method, path, token string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *env) sendJSON(t *testing.T, method, path, token string, payload interface{}) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.send(t, method, path, token, body, fiber.MIMEApplicationJSON)
}

type formFile struct {
	field, name, contentType string
	data                     []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (io.Reader, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestCreateAndListCourses(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)
	tok := instructorToken(t, instr.ID)

	status, res := e.sendJSON(t, http.MethodPost, "/instructor/courses", tok, map[string]interface{}{
		"title": "Concurrency in Go", "category": "programming", "level": "advanced", "type": "free",
	})
	require.Equal(t, fiber.StatusCreated, status, res.Message)
	assert.Equal(t, "Course created successfully!", res.Message)

	var created course.Course
	require.NoError(t, json.Unmarshal(res.Data, &created))
	assert.Equal(t, instr.ID, created.InstructorID)
	assert.False(t, created.IsPublished)

	status, res = e.sendJSON(t, http.MethodGet, "/instructor/courses?page=1&limit=5", tok, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Courses    []content.CourseSummary `json:"courses"`
		Pagination struct {
			Total int64 `json:"total"`
			Limit int   `json:"limit"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &list))
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "Concurrency in Go", list.Courses[0].Title)
	assert.EqualValues(t, 1, list.Pagination.Total)
	assert.Equal(t, 5, list.Pagination.Limit)
}

func TestCreateCourseValidationListsFields(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)

	status, res := e.sendJSON(t, http.MethodPost, "/instructor/courses", instructorToken(t, instr.ID), map[string]interface{}{
		"title": "  ", "type": "premium",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed!", res.Message)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(res.Data, &fields))
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "type")
}

func TestInstructorRoutesRequireInstructor(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)
	st := testutil.Student(t, e.db, instr.ID)

	status, _ := e.sendJSON(t, http.MethodGet, "/instructor/courses", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = e.sendJSON(t, http.MethodGet, "/instructor/courses", studentToken(t, st.ID), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, res := e.sendJSON(t, http.MethodGet, "/instructor/courses/abc", instructorToken(t, instr.ID), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid Course ID!", res.Message)
}

func TestForeignAndMissingContentLookIdentical(t *testing.T) {
	e := newEnv(t)
	owner := testutil.Instructor(t, e.db)
	other := testutil.Instructor(t, e.db)
	c := testutil.Course(t, e.db, owner.ID, false)
	m := testutil.Module(t, e.db, c.ID, 0)
	l := testutil.Lesson(t, e.db, m.ID, 0)
	tok := instructorToken(t, other.ID)

	for _, paths := range [][2]string{
		{fmt.Sprintf("/instructor/courses/%d", c.ID), "/instructor/courses/99999"},
		{fmt.Sprintf("/instructor/lessons/%d", l.ID), "/instructor/lessons/99999"},
	} {
		method := http.MethodGet
		if strings.Contains(paths[0], "lessons") {
			method = http.MethodDelete
		}
		foreignStatus, foreign := e.sendJSON(t, method, paths[0], tok, nil)
		missingStatus, missing := e.sendJSON(t, method, paths[1], tok, nil)

		assert.Equal(t, fiber.StatusNotFound, foreignStatus, paths[0])
		assert.Equal(t, missingStatus, foreignStatus, paths[0])
		assert.Equal(t, missing, foreign, paths[0])
	}

	var n int64
	require.NoError(t, e.db.Model(&course.Lesson{}).Where("id = ?", l.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCreateLessonMultipart(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)
	c := testutil.Course(t, e.db, instr.ID, false)
	m := testutil.Module(t, e.db, c.ID, 0)
	tok := instructorToken(t, instr.ID)
	path := fmt.Sprintf("/instructor/modules/%d/lessons", m.ID)

	body, ct := multipartBody(t, map[string]string{"title": "Goroutines", "allow_preview": "true"},
		formFile{field: "files", name: "slides.pdf", contentType: "application/pdf", data: testutil.PDFBytes},
		formFile{field: "files", name: "diagram.png", contentType: "image/png", data: testutil.PNGBytes},
	)
	status, res := e.send(t, http.MethodPost, path, tok, body, ct)
	require.Equal(t, fiber.StatusCreated, status, res.Message)

	var lesson course.Lesson
	require.NoError(t, json.Unmarshal(res.Data, &lesson))
	assert.Equal(t, 0, lesson.OrderIndex)
	assert.True(t, lesson.AllowPreview)
	require.Len(t, lesson.ResourceFiles, 2)
	assert.Equal(t, "slides.pdf", lesson.ResourceFiles[0].OriginalName)
	assert.Equal(t, 2, e.store.Len())

	// a disguised executable is rejected before anything is stored
	body, ct = multipartBody(t, map[string]string{"title": "Channels"},
		formFile{field: "files", name: "notes.pdf", contentType: "application/pdf", data: testutil.TXTBytes},
	)
	status, res = e.send(t, http.MethodPost, path, tok, body, ct)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed!", res.Message)
	assert.Equal(t, 2, e.store.Len())

	var count int64
	require.NoError(t, e.db.Model(&course.Lesson{}).Where("module_id = ?", m.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateLessonUploadFailureIsDependencyError(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)
	c := testutil.Course(t, e.db, instr.ID, false)
	m := testutil.Module(t, e.db, c.ID, 0)
	e.store.FailUpload = true

	body, ct := multipartBody(t, map[string]string{"title": "Select"},
		formFile{field: "files", name: "slides.pdf", contentType: "application/pdf", data: testutil.PDFBytes},
	)
	status, res := e.send(t, http.MethodPost, fmt.Sprintf("/instructor/modules/%d/lessons", m.ID), instructorToken(t, instr.ID), body, ct)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Failed to upload file!", res.Message)

	var count int64
	require.NoError(t, e.db.Model(&course.Lesson{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMoveModuleOverHTTP(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)
	c := testutil.Course(t, e.db, instr.ID, false)
	a := testutil.Module(t, e.db, c.ID, 0)
	b := testutil.Module(t, e.db, c.ID, 1)
	tok := instructorToken(t, instr.ID)

	status, _ := e.sendJSON(t, http.MethodPost, fmt.Sprintf("/instructor/modules/%d/move", a.ID), tok, map[string]int{"position": 1})
	require.Equal(t, fiber.StatusOK, status)

	var ordered []course.Module
	require.NoError(t, e.db.Where("course_id = ?", c.ID).Order("order_index").Find(&ordered).Error)
	require.Len(t, ordered, 2)
	assert.Equal(t, b.ID, ordered[0].ID)
	assert.Equal(t, a.ID, ordered[1].ID)

	status, res := e.sendJSON(t, http.MethodPost, fmt.Sprintf("/instructor/modules/%d/move", a.ID), tok, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed!", res.Message)
}

func TestStudentEnrollAndProgress(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)
	st := testutil.Student(t, e.db, instr.ID)
	c := testutil.Course(t, e.db, instr.ID, true)
	m := testutil.Module(t, e.db, c.ID, 0)
	l1 := testutil.Lesson(t, e.db, m.ID, 0)
	testutil.Lesson(t, e.db, m.ID, 1)
	tok := studentToken(t, st.ID)

	// not enrolled yet
	status, _ := e.sendJSON(t, http.MethodPut, fmt.Sprintf("/lessons/%d/progress", l1.ID), tok, map[string]interface{}{"completed": true})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, res := e.sendJSON(t, http.MethodPost, fmt.Sprintf("/courses/%d/enroll", c.ID), tok, nil)
	require.Equal(t, fiber.StatusCreated, status, res.Message)
	var enr course.Enrollment
	require.NoError(t, json.Unmarshal(res.Data, &enr))

	status, res = e.sendJSON(t, http.MethodPost, fmt.Sprintf("/courses/%d/enroll", c.ID), tok, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "You are already enrolled in this course!", res.Message)

	status, _ = e.sendJSON(t, http.MethodPut, fmt.Sprintf("/lessons/%d/progress", l1.ID), tok, map[string]interface{}{"completed": true, "watch_time": 90})
	require.Equal(t, fiber.StatusOK, status)

	status, res = e.sendJSON(t, http.MethodGet, fmt.Sprintf("/enrollments/%d/progress", enr.ID), tok, nil)
	require.Equal(t, fiber.StatusOK, status)
	var detail enrollment.ProgressDetail
	require.NoError(t, json.Unmarshal(res.Data, &detail))
	assert.EqualValues(t, 2, detail.TotalLessons)
	assert.EqualValues(t, 1, detail.CompletedLessons)
	assert.Equal(t, 50, detail.Percentage)

	status, _ = e.sendJSON(t, http.MethodPut, fmt.Sprintf("/lessons/%d/progress", l1.ID), tok, map[string]interface{}{"completed": true, "watch_time": -1})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestStudentCannotReadAnotherStudentsProgress(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)
	c := testutil.Course(t, e.db, instr.ID, true)
	owner := testutil.Student(t, e.db, instr.ID)
	intruder := testutil.Student(t, e.db, instr.ID)
	enr := testutil.Enrollment(t, e.db, owner.ID, c.ID)

	status, res := e.sendJSON(t, http.MethodGet, fmt.Sprintf("/enrollments/%d/progress", enr.ID), studentToken(t, intruder.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, res.Status)
}

func TestStudentContentIsPreviewGated(t *testing.T) {
	e := newEnv(t)
	instr := testutil.Instructor(t, e.db)
	st := testutil.Student(t, e.db, instr.ID)
	c := testutil.Course(t, e.db, instr.ID, true)
	m := testutil.Module(t, e.db, c.ID, 0)
	testutil.Lesson(t, e.db, m.ID, 0)
	preview := testutil.Lesson(t, e.db, m.ID, 1)
	require.NoError(t, e.db.Model(&preview).Update("allow_preview", true).Error)

	status, res := e.sendJSON(t, http.MethodGet, fmt.Sprintf("/courses/%d/content", c.ID), studentToken(t, st.ID), nil)
	require.Equal(t, fiber.StatusOK, status)

	var view struct {
		Enrolled bool `json:"enrolled"`
		Modules  []struct {
			Lessons []struct {
				ID uint `json:"id"`
			} `json:"lessons"`
		} `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &view))
	assert.False(t, view.Enrolled)
	require.Len(t, view.Modules, 1)
	require.Len(t, view.Modules[0].Lessons, 1)
	assert.Equal(t, preview.ID, view.Modules[0].Lessons[0].ID)
}
