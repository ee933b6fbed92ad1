package handlers_fiber

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbrinkmeier/hoff/internal/github"
	"github.com/pbrinkmeier/hoff/internal/logic"
	"github.com/pbrinkmeier/hoff/internal/queue"
)

func newTestProject(owner, repository string) *Project {
	return &Project{
		Owner:      owner,
		Repository: repository,
		Branch:     "master",
		Intake:     queue.New[github.Envelope](4),
		Register:   logic.NewRegister(),
	}
}

func newTestApp(t *testing.T, secret string, projects ...*Project) *fiber.App {
	t.Helper()

	h := NewHandler(zaptest.NewLogger(t).Sugar(), secret, projects)
	app := fiber.New()
	h.Register(app)
	return app
}

func postHook(t *testing.T, app *fiber.App, headers map[string]string, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/hook/github", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func openedPayload(repository string, id int) string {
	return fmt.Sprintf(`{
		"action": "opened",
		"repository": {"full_name": %q},
		"pull_request": {
			"number": %d,
			"title": "Add feature",
			"user": {"login": "alice"},
			"head": {"ref": "feature/x", "sha": "aaa"}
		}
	}`, repository, id)
}

func TestHookMissingEventHeader(t *testing.T) {
	app := newTestApp(t, "", newTestProject("acme", "widgets"))

	resp := postHook(t, app, nil, openedPayload("acme/widgets", 1))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "X-GitHub-Event")
}

func TestHookPing(t *testing.T) {
	app := newTestApp(t, "", newTestProject("acme", "widgets"))

	resp := postHook(t, app, map[string]string{"X-GitHub-Event": "ping"}, `{"zen": "Design for failure."}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "pong", readBody(t, resp))
}

func TestHookUnhandledEventIgnored(t *testing.T) {
	project := newTestProject("acme", "widgets")
	app := newTestApp(t, "", project)

	resp := postHook(t, app, map[string]string{"X-GitHub-Event": "push"},
		fmt.Sprintf(`{"repository": {"full_name": %q}}`, "acme/widgets"))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hook ignored", readBody(t, resp))
	require.Equal(t, 0, project.Intake.Len())
}

func TestHookMalformedPayload(t *testing.T) {
	app := newTestApp(t, "", newTestProject("acme", "widgets"))

	resp := postHook(t, app, map[string]string{"X-GitHub-Event": "pull_request"}, "not json")

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHookUntrackedRepositoryIgnored(t *testing.T) {
	project := newTestProject("acme", "widgets")
	app := newTestApp(t, "", project)

	resp := postHook(t, app, map[string]string{"X-GitHub-Event": "pull_request"},
		openedPayload("acme/gadgets", 1))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hook ignored", readBody(t, resp))
	require.Equal(t, 0, project.Intake.Len())
}

func TestHookEnqueuesDelivery(t *testing.T) {
	project := newTestProject("acme", "widgets")
	app := newTestApp(t, "", project)
	payload := openedPayload("acme/widgets", 7)

	resp := postHook(t, app, map[string]string{
		"X-GitHub-Event":    "pull_request",
		"X-GitHub-Delivery": "delivery-1",
	}, payload)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, project.Intake.Len())

	envelope, ok := project.Intake.Dequeue(context.Background())
	require.True(t, ok)
	require.Equal(t, "delivery-1", envelope.DeliveryID)
	require.Equal(t, "pull_request", envelope.Name)
	require.Equal(t, payload, string(envelope.Payload))
}

func TestHookGeneratesDeliveryID(t *testing.T) {
	project := newTestProject("acme", "widgets")
	app := newTestApp(t, "", project)

	resp := postHook(t, app, map[string]string{"X-GitHub-Event": "pull_request"},
		openedPayload("acme/widgets", 7))

	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope, ok := project.Intake.Dequeue(context.Background())
	require.True(t, ok)
	require.NotEmpty(t, envelope.DeliveryID)
}

func TestHookRoutesToMatchingProject(t *testing.T) {
	widgets := newTestProject("acme", "widgets")
	gadgets := newTestProject("acme", "gadgets")
	app := newTestApp(t, "", widgets, gadgets)

	resp := postHook(t, app, map[string]string{"X-GitHub-Event": "pull_request"},
		openedPayload("acme/gadgets", 3))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 0, widgets.Intake.Len())
	require.Equal(t, 1, gadgets.Intake.Len())
}

func TestHookFullQueueAsksForRedelivery(t *testing.T) {
	project := newTestProject("acme", "widgets")
	project.Intake = queue.New[github.Envelope](1)
	app := newTestApp(t, "", project)
	headers := map[string]string{"X-GitHub-Event": "pull_request"}

	resp := postHook(t, app, headers, openedPayload("acme/widgets", 1))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postHook(t, app, headers, openedPayload("acme/widgets", 2))
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, 1, project.Intake.Len())
}

func TestHookSignatureChecks(t *testing.T) {
	secret := "s3cret"
	payload := openedPayload("acme/widgets", 7)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	signature := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	tests := []struct {
		name       string
		signature  string
		wantStatus int
	}{
		{name: "valid", signature: signature, wantStatus: http.StatusOK},
		{name: "tampered", signature: "sha256=" + strings.Repeat("0", 64), wantStatus: http.StatusBadRequest},
		{name: "missing", signature: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, secret, newTestProject("acme", "widgets"))

			headers := map[string]string{"X-GitHub-Event": "pull_request"}
			if tt.signature != "" {
				headers["X-Hub-Signature-256"] = tt.signature
			}

			resp := postHook(t, app, headers, payload)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHookNoSecretSkipsSignatureCheck(t *testing.T) {
	project := newTestProject("acme", "widgets")
	app := newTestApp(t, "", project)

	resp := postHook(t, app, map[string]string{"X-GitHub-Event": "pull_request"},
		openedPayload("acme/widgets", 7))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, project.Intake.Len())
}

func TestHookGetRejected(t *testing.T) {
	app := newTestApp(t, "", newTestProject("acme", "widgets"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/hook/github", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
