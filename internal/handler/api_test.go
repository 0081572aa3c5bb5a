package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
	"github.com/FahmidKDAU/dcr-solution/internal/service"
	"github.com/FahmidKDAU/dcr-solution/internal/tests/mocks"
)

func doJSON(t *testing.T, h http.Handler, method, path, body, user string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandler_API(t *testing.T) {
	blobs := new(mocks.Blobs)
	r, repo, teardown := setupIntegration(t, blobs)
	defer teardown()
	ctx := context.Background()

	depts, err := repo.ListDepartments(ctx)
	require.NoError(t, err)
	deptID := map[string]int64{}
	for _, d := range depts {
		deptID[d.Title] = d.ID
	}

	t.Run("Me", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/me", "", "jane.doe@example.com")
		assert.Equal(t, http.StatusOK, w.Code)

		resp := decode[map[string]any](t, w)
		data := resp["data"].(map[string]any)
		assert.Equal(t, "Jane Doe", data["display_name"])
		assert.Equal(t, false, resp["loading"])
	})

	t.Run("Me_UnknownUser", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/me", "", "nobody@example.com")
		assert.Equal(t, http.StatusOK, w.Code)

		resp := decode[map[string]any](t, w)
		assert.Nil(t, resp["data"])
		assert.Equal(t, "Failed to load current user", resp["error"])
	})

	t.Run("FormOptions", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/form/options?refresh=lookups", "", "")
		assert.Equal(t, http.StatusOK, w.Code)

		resp := decode[map[string]map[string]any](t, w)
		assert.Len(t, resp["departments"]["data"], 3)
		assert.Len(t, resp["documents"]["data"], 3)
		lookups := resp["lookups"]["data"].(map[string]any)
		assert.Len(t, lookups["document_types"], 4)
		assert.Len(t, lookups["audience_groups"], 3)
	})

	t.Run("SearchPeople", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/people?search=JO", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string][]domain.Person](t, w)
		require.Len(t, resp["people"], 1)
		assert.Equal(t, "John Smith", resp["people"][0].DisplayName)

		w = doJSON(t, r, http.MethodGet, "/people?search=j", "", "")
		resp = decode[map[string][]domain.Person](t, w)
		assert.Empty(t, resp["people"])
	})

	t.Run("Documents", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/documents?sort=published&order=asc", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode[map[string][]domain.Document](t, w)
		require.Len(t, resp["documents"], 3)
		assert.Equal(t, "Travel Expense Policy", resp["documents"][0].Title)
		assert.Equal(t, "Contractor Induction Checklist", resp["documents"][2].Title)

		w = doJSON(t, r, http.MethodGet, "/documents?type=POLICY", "", "")
		resp = decode[map[string][]domain.Document](t, w)
		require.Len(t, resp["documents"], 1)

		w = doJSON(t, r, http.MethodGet, "/documents?sort=size", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	var crID int64
	t.Run("Submit_JSON", func(t *testing.T) {
		body := fmt.Sprintf(`{
			"title": "Safety Policy Update",
			"scope_of_change": "Annual review",
			"department_id": %d,
			"new_document": true,
			"stage": "part2"
		}`, deptID["Operations"])
		w := doJSON(t, r, http.MethodPost, "/changeRequests", body, "sam.submitter@example.com")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decode[map[string]any](t, w)
		crID = int64(resp["id"].(float64))
		assert.NotZero(t, crID)
		assert.Regexp(t, `^CR-\d{5}$`, resp["number"])
		draft := resp["draft"].(map[string]any)
		assert.Equal(t, "part1", draft["stage"])
		assert.Equal(t, "", draft["title"])

		cr, err := repo.GetChangeRequest(ctx, crID)
		require.NoError(t, err)
		require.NotNil(t, cr.ChangeAuthority)
		assert.Equal(t, findChangeAuthority(depts, "Operations"), cr.ChangeAuthority.ID)
		assert.Equal(t, "Jane Doe", cr.ChangeAuthority.DisplayName)
	})

	t.Run("Submit_ClientChangeAuthorityIgnored", func(t *testing.T) {
		body := fmt.Sprintf(`{
			"title": "Stale authority",
			"scope_of_change": "S",
			"department_id": %d,
			"new_document": true,
			"change_authority": {"id": %d}
		}`, deptID["Operations"], findChangeAuthority(depts, "Finance"))
		w := doJSON(t, r, http.MethodPost, "/changeRequests", body, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		id := int64(decode[map[string]any](t, w)["id"].(float64))
		cr, err := repo.GetChangeRequest(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, cr.ChangeAuthority)
		assert.Equal(t, findChangeAuthority(depts, "Operations"), cr.ChangeAuthority.ID)
	})

	t.Run("Submit_InvalidEnums", func(t *testing.T) {
		body := fmt.Sprintf(`{
			"title": "Bad enums",
			"scope_of_change": "S",
			"department_id": %d,
			"new_document": true,
			"urgency": "Whenever",
			"classification": "TopSecret"
		}`, deptID["Operations"])
		w := doJSON(t, r, http.MethodPost, "/changeRequests", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode[map[string]map[string]any](t, w)
		assert.Equal(t, "VALIDATION_FAILED", resp["error"]["code"])
		assert.Equal(t, []any{"Urgency", "Classification"}, resp["error"]["fields"])
		assert.Equal(t, "part2", resp["error"]["stage"])
	})

	t.Run("Submit_MissingPart1", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/changeRequests", `{"title": "x", "stage": "part2"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode[map[string]map[string]any](t, w)
		assert.Equal(t, "VALIDATION_FAILED", resp["error"]["code"])
		assert.Equal(t, []any{"Scope of Change", "Department", "Document"}, resp["error"]["fields"])
		assert.Equal(t, "part1", resp["draft"]["stage"])
	})

	t.Run("Submit_Multipart", func(t *testing.T) {
		blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, int64(5), mock.Anything).Return(nil).Once()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("draft", fmt.Sprintf(
			`{"title":"With file","scope_of_change":"S","department_id":%d,"new_document":true}`, deptID["Finance"])))
		fw, err := mw.CreateFormFile("files", "notes.txt")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("hello"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/changeRequests", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decode[map[string]any](t, w)
		atts := resp["attachments"].([]any)
		require.Len(t, atts, 1)
		assert.Equal(t, "notes.txt", atts[0].(map[string]any)["file_name"])

		id := int64(resp["id"].(float64))
		w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/changeRequests/%d/attachments", id), "", "")
		list := decode[map[string][]domain.Attachment](t, w)
		require.Len(t, list["attachments"], 1)

		blobs.On("Get", mock.Anything, mock.Anything).Return(io.NopCloser(strings.NewReader("hello")), nil).Once()
		w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/changeRequests/%d/attachments/%d", id, list["attachments"][0].ID), "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")
		blobs.AssertExpectations(t)
	})

	t.Run("Submit_UploadFailsAfterCreate", func(t *testing.T) {
		blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("bucket unavailable")).Once()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("draft", fmt.Sprintf(
			`{"title":"Upload fails","scope_of_change":"S","department_id":%d,"new_document":true}`, deptID["Finance"])))
		fw, err := mw.CreateFormFile("files", "broken.txt")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("data"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/changeRequests", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decode[map[string]any](t, w)
		assert.Equal(t, "ATTACHMENT_UPLOAD_FAILED", resp["error"].(map[string]any)["code"])
		assert.Equal(t, "Upload fails", resp["draft"].(map[string]any)["title"])

		id := int64(resp["id"].(float64))
		cr, err := repo.GetChangeRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, resp["number"], cr.Number)
	})

	t.Run("GetChangeRequest", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/changeRequests/%d", crID), "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		cr := decode[domain.ChangeRequest](t, w)
		assert.Equal(t, "Safety Policy Update", cr.Title)
		require.NotNil(t, cr.Submitter)
		assert.Equal(t, "Sam Submitter", cr.Submitter.DisplayName)

		w = doJSON(t, r, http.MethodGet, "/changeRequests/999999", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Prefill", func(t *testing.T) {
		docs, err := repo.ListDocumentSummaries(ctx)
		require.NoError(t, err)
		var fireID int64
		for _, d := range docs {
			if d.Title == "Fire Evacuation Plan" {
				fireID = d.ID
			}
		}
		w := doJSON(t, r, http.MethodPost, "/changeRequests/prefill",
			fmt.Sprintf(`{"title":"Mine","document_id":%d}`, fireID), "")
		assert.Equal(t, http.StatusOK, w.Code)

		resp := decode[prefillResponse](t, w)
		assert.True(t, resp.ExistingDocumentSelected)
		assert.Equal(t, "Mine", resp.Draft.Title)
		assert.Equal(t, domain.ClassificationInternal, resp.Draft.Classification)
		require.NotNil(t, resp.Draft.DepartmentID)
		assert.Equal(t, deptID["Operations"], *resp.Draft.DepartmentID)
	})

	t.Run("CommitField", func(t *testing.T) {
		path := fmt.Sprintf("/changeRequests/%d/fields/title", crID)
		w := doJSON(t, r, http.MethodPatch, path, `{"value":"Renamed"}`, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, fieldResult{Field: "title", Saved: true}, decode[fieldResult](t, w))

		w = doJSON(t, r, http.MethodPatch, path, `{"value":"  "}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		res := decode[fieldResult](t, w)
		assert.False(t, res.Saved)
		assert.NotEmpty(t, res.Error)
	})

	t.Run("PatchBatch_Lifecycle", func(t *testing.T) {
		path := fmt.Sprintf("/changeRequests/%d", crID)
		w := doJSON(t, r, http.MethodPatch, path, `{"status":"Rejected","urgency":"Urgent"}`, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(t, r, http.MethodPatch, path, `{"status":"Approved"}`, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decode[APIErrorResponse](t, w)
		assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)

		w = doJSON(t, r, http.MethodPatch, path, `{"colour":"red"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Tasks", func(t *testing.T) {
		jane, err := repo.GetPersonByEmail(ctx, "jane.doe@example.com")
		require.NoError(t, err)
		task, err := repo.CreateTask(ctx, domain.Task{
			Title:           "Approve safety update",
			TaskType:        domain.TaskTypeChangeAuthorityApproval,
			AssignedTo:      &jane,
			ChangeRequestID: crID,
		})
		require.NoError(t, err)

		w := doJSON(t, r, http.MethodGet, "/tasks?tab=pending&search=SAFETY", "", jane.Email)
		require.Equal(t, http.StatusOK, w.Code)
		hub := decode[map[string]map[string]any](t, w)
		assert.Len(t, hub["tasks"]["data"], 1)

		w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/tasks/%d", task.ID), "", "")
		require.Equal(t, http.StatusOK, w.Code)
		detail := decode[map[string]map[string]any](t, w)
		assert.Equal(t, "change_authority_approval", detail["workflow"]["kind"])
		assert.Equal(t, false, detail["workflow"]["primary_enabled"])

		action := fmt.Sprintf("/tasks/%d/actions", task.ID)
		w = doJSON(t, r, http.MethodPost, action, `{"action":"approve"}`, jane.Email)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		verr := decode[APIErrorResponse](t, w)
		assert.Equal(t, []string{"Release Authority", "Author"}, verr.Error.Fields)

		w = doJSON(t, r, http.MethodPost, action, `{"action":"complete"}`, jane.Email)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = doJSON(t, r, http.MethodPost, action, `{"action":"launch"}`, jane.Email)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, r, http.MethodPost, action, `{"action":"reject"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = doJSON(t, r, http.MethodPost, action,
			fmt.Sprintf(`{"action":"reassign","department_id":%d}`, deptID["Finance"]), jane.Email)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[map[string]any](t, w)
		assert.Empty(t, resp["tasks"])
		assert.Nil(t, resp["selected"])

		got, err := repo.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusReassigned, got.Status)
		assert.Equal(t, "John Smith", got.AssignedTo.DisplayName)
	})

	t.Run("Ready", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/readyz", "", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		state := decode[service.Readiness](t, w)
		assert.Equal(t, "up", state.Database)
	})
}

func findChangeAuthority(depts []domain.Department, title string) int64 {
	for _, d := range depts {
		if d.Title == title && d.ChangeAuthority != nil {
			return d.ChangeAuthority.ID
		}
	}
	return 0
}
