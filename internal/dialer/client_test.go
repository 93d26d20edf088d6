package dialer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/dialer"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		client   *dialer.Client
		received map[string]interface{}
	)

	BeforeEach(func() {
		received = nil
		mux := http.NewServeMux()
		mux.HandleFunc("/start_call", func(w http.ResponseWriter, r *http.Request) {
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"call_sid":"CA123","status":"queued"}`))
		})
		mux.HandleFunc("/all_transcripts", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"transcripts":[{"id":"t1","call_sid":"CA1","phone_number":"+100","last_updated":"2026-05-01T10:00:00Z"},{"id":42,"call_sid":"CA2","phone_number":"+200","last_updated":"2026-05-02T10:00:00Z"},{"id":null,"call_sid":"CA3"}]}`))
		})
		mux.HandleFunc("/transcript/CA1", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"transcript":"[{\"role\":\"agent\",\"text\":\"hi\"}]","summary":"short"}`))
		})
		mux.HandleFunc("/transcript/CA2", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"transcript":[{"role":"user","text":"yo"}]}`))
		})
		mux.HandleFunc("/transcript/missing", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		})
		server = httptest.NewServer(mux)
		client = dialer.NewClient(internal.DialerConfig{BaseURL: server.URL + "/", Timeout: time.Second}, logger.Discard())
	})

	AfterEach(func() {
		server.Close()
	})

	It("posts start_call and omits absent messages", func() {
		resp, err := client.StartCall(context.Background(), dialer.StartCallRequest{ToNumber: "+100"})

		Expect(err).NotTo(HaveOccurred())
		Expect(resp.OK()).To(BeTrue())
		Expect(received).To(Equal(map[string]interface{}{"to_number": "+100"}))
		doc, ok := resp.JSON()
		Expect(ok).To(BeTrue())
		Expect(dialer.CallSid(doc)).To(Equal("CA123"))
	})

	It("lists transcripts", func() {
		ts, err := client.AllTranscripts(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(ts).To(HaveLen(3))
		Expect(ts[0].CallSid).To(Equal("CA1"))
		Expect(ts[0].ID).To(Equal(dialer.TranscriptID("t1")))
	})

	It("accepts numeric and missing transcript ids", func() {
		ts, err := client.AllTranscripts(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(ts[1].ID).To(Equal(dialer.TranscriptID("42")))
		Expect(ts[2].ID).To(BeEmpty())
	})

	It("decodes a transcript sent as a JSON string", func() {
		doc, err := client.Transcript(context.Background(), "CA1")

		Expect(err).NotTo(HaveOccurred())
		Expect(doc["transcript"]).To(HaveLen(1))
		Expect(doc["summary"]).To(Equal("short"))
	})

	It("keeps a transcript sent as an array", func() {
		doc, err := client.Transcript(context.Background(), "CA2")

		Expect(err).NotTo(HaveOccurred())
		Expect(doc["transcript"]).To(HaveLen(1))
	})

	It("maps 404 to ErrTranscriptNotFound", func() {
		_, err := client.Transcript(context.Background(), "missing")

		Expect(err).To(MatchError(dialer.ErrTranscriptNotFound))
	})

	It("refuses to call without a base url", func() {
		bare := dialer.NewClient(internal.DialerConfig{}, logger.Discard())

		_, err := bare.StartCall(context.Background(), dialer.StartCallRequest{ToNumber: "+1"})

		Expect(bare.Configured()).To(BeFalse())
		Expect(err).To(MatchError(dialer.ErrNotConfigured))
	})

	It("reads the sid under its alternative names", func() {
		Expect(dialer.CallSid(map[string]interface{}{"callSid": "A"})).To(Equal("A"))
		Expect(dialer.CallSid(map[string]interface{}{"sid": "B"})).To(Equal("B"))
		Expect(dialer.CallSid(map[string]interface{}{})).To(BeEmpty())
	})
})
