package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/backend"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/session"
)

func TestBackend(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Backend Suite")
}

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		client  *backend.Client
		lastReq map[string]any
		status  int
		reply   string
	)

	BeforeEach(func() {
		lastReq = nil
		status = http.StatusOK
		reply = "data: {\"type\":\"text-delta\",\"delta\":\"hi\"}\n\ndata: [DONE]\n\n"
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(r.Header.Get("Accept")).To(Equal("text/event-stream"))
			Expect(json.NewDecoder(r.Body).Decode(&lastReq)).To(Succeed())

			w.WriteHeader(status)
			io.WriteString(w, reply)
		}))
		client = backend.NewClient(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("StartTurn", func() {
		It("should post the turn request and return the raw stream", func() {
			body, err := client.StartTurn(context.Background(), session.TurnRequest{
				ThreadID: "th1",
				Query:    "hello",
				History: []chat.Message{
					{ID: "msg-1", Role: chat.RoleUser, Parts: []chat.ContentPart{chat.NewTextPart("earlier")}},
				},
				MentionedDocumentIDs: []string{"d1"},
			})
			Expect(err).ToNot(HaveOccurred())
			defer body.Close()

			raw, err := io.ReadAll(body)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(raw)).To(ContainSubstring("text-delta"))

			Expect(lastReq["thread_id"]).To(Equal("th1"))
			Expect(lastReq["query"]).To(Equal("hello"))
			Expect(lastReq["mentioned_document_ids"]).To(Equal([]any{"d1"}))

			history := lastReq["history"].([]any)
			Expect(history).To(HaveLen(1))
			entry := history[0].(map[string]any)
			Expect(entry["role"]).To(Equal("user"))
		})

		It("should surface a structured error response", func() {
			status = http.StatusTooManyRequests
			reply = `{"error":"rate limited"}`

			_, err := client.StartTurn(context.Background(), session.TurnRequest{ThreadID: "th1", Query: "hello"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 429"))
			Expect(err.Error()).To(ContainSubstring("rate limited"))
		})

		It("should fall back to the raw body for unstructured errors", func() {
			status = http.StatusInternalServerError
			reply = "upstream exploded"

			_, err := client.StartTurn(context.Background(), session.TurnRequest{ThreadID: "th1", Query: "hello"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("upstream exploded"))
		})
	})

	Describe("Regenerate", func() {
		It("should post the thread id and replacement query", func() {
			body, err := client.Regenerate(context.Background(), "th1", "revised")
			Expect(err).ToNot(HaveOccurred())
			body.Close()

			Expect(lastReq["thread_id"]).To(Equal("th1"))
			Expect(lastReq["query"]).To(Equal("revised"))
		})

		It("should omit an empty query", func() {
			body, err := client.Regenerate(context.Background(), "th1", "")
			Expect(err).ToNot(HaveOccurred())
			body.Close()

			Expect(lastReq).ToNot(HaveKey("query"))
		})
	})
})
