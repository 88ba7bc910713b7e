package store_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/store"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("Client", func() {
	var (
		server     *httptest.Server
		client     *store.Client
		lastMethod string
		lastPath   string
		lastBody   []byte
		status     int
		reply      string
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = "{}"
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastMethod = r.Method
			lastPath = r.URL.Path
			lastBody, _ = io.ReadAll(r.Body)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			io.WriteString(w, reply)
		}))
		client = store.NewClient(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("CreateThread", func() {
		It("should post the title and decode the thread", func() {
			reply = `{"id":"th-1","title":"New chat","visibility":"private"}`

			thread, err := client.CreateThread(context.Background(), "New chat")
			Expect(err).ToNot(HaveOccurred())
			Expect(thread.ID).To(Equal("th-1"))
			Expect(thread.Visibility).To(Equal(chat.VisibilityPrivate))

			Expect(lastMethod).To(Equal(http.MethodPost))
			Expect(lastPath).To(Equal("/v1/threads"))
			Expect(string(lastBody)).To(MatchJSON(`{"title":"New chat","visibility":"private"}`))
		})
	})

	Describe("Thread", func() {
		It("should fetch by id", func() {
			reply = `{"id":"th-1","title":"Quarterly numbers"}`

			thread, err := client.Thread(context.Background(), "th-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(thread.Title).To(Equal("Quarterly numbers"))
			Expect(lastPath).To(Equal("/v1/threads/th-1"))
		})

		It("should wrap server errors with status and body", func() {
			status = http.StatusNotFound
			reply = `{"error":"no such thread"}`

			_, err := client.Thread(context.Background(), "ghost")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 404"))
		})
	})

	Describe("Messages", func() {
		It("should decode the message list with typed content", func() {
			reply = `{"messages":[
				{"id":"msg-1","role":"user","content":[{"type":"text","text":"the question"}],"created_at":"2026-08-30T12:00:00Z"},
				{"id":"msg-2","role":"assistant","content":[
					{"type":"thinking_steps","steps":[{"id":"s1","title":"Plan","status":"completed"}]},
					{"type":"text","text":"the answer"}
				],"created_at":"2026-08-30T12:00:05Z"}
			]}`

			messages, err := client.Messages(context.Background(), "th-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(messages).To(HaveLen(2))
			Expect(lastPath).To(Equal("/v1/threads/th-1/messages"))

			Expect(messages[0].Text()).To(Equal("the question"))
			Expect(messages[1].Parts[0].Type).To(Equal(chat.PartThinkingSteps))
			Expect(messages[1].Parts[0].Steps[0].ID).To(Equal("s1"))
			Expect(messages[1].Timestamp.IsZero()).To(BeFalse())
		})

		It("should return an empty slice for an empty thread", func() {
			reply = `{"messages":[]}`

			messages, err := client.Messages(context.Background(), "th-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(messages).To(BeEmpty())
		})
	})

	Describe("AppendMessage", func() {
		It("should post the parts and return the server id", func() {
			reply = `{"id":"msg-9"}`
			parts := []chat.ContentPart{chat.NewTextPart("the answer")}

			id, err := client.AppendMessage(context.Background(), "th-1", chat.RoleAssistant, parts)
			Expect(err).ToNot(HaveOccurred())
			Expect(id).To(Equal("msg-9"))

			Expect(lastMethod).To(Equal(http.MethodPost))
			Expect(lastPath).To(Equal("/v1/threads/th-1/messages"))

			var sent map[string]any
			Expect(json.Unmarshal(lastBody, &sent)).To(Succeed())
			Expect(sent["role"]).To(Equal("assistant"))
		})
	})

	Describe("UpdateThreadTitle", func() {
		It("should patch the thread", func() {
			err := client.UpdateThreadTitle(context.Background(), "th-1", "Renamed")
			Expect(err).ToNot(HaveOccurred())

			Expect(lastMethod).To(Equal(http.MethodPatch))
			Expect(lastPath).To(Equal("/v1/threads/th-1"))
			Expect(string(lastBody)).To(MatchJSON(`{"title":"Renamed"}`))
		})
	})

	Describe("AttachTraceSession", func() {
		It("should link the session to the message", func() {
			err := client.AttachTraceSession(context.Background(), "th-1", "trace-9", "msg-2")
			Expect(err).ToNot(HaveOccurred())

			Expect(lastMethod).To(Equal(http.MethodPost))
			Expect(lastPath).To(Equal("/v1/threads/th-1/trace-sessions"))
			Expect(string(lastBody)).To(MatchJSON(`{"trace_session_id":"trace-9","message_id":"msg-2"}`))
		})
	})
})
