package memory_test

import (
	"context"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/memory"
	testutils "github.com/papercomputeco/specialist/pkg/utils/test"
)

var _ = Describe("LLMReconciler", func() {
	var (
		ctx      context.Context
		client   *testutils.MockClient
		rec      *memory.LLMReconciler
		existing []memory.Record
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = testutils.NewMockClient()
		rec = memory.NewLLMReconciler(memory.ReconcilerConfig{
			Client: client,
			Model:  "qwen2.5",
			NewID:  testutils.NewSeqIDFunc("new-"),
		})
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		existing = []memory.Record{
			memory.NewRecord("rec-a", "Name is John", "s1", now),
			memory.NewRecord("rec-b", "Likes cheese pizza", "s1", now.Add(time.Second)),
		}
	})

	It("returns nothing for no facts without calling the model", func() {
		Expect(rec.DetermineOperations(ctx, nil, existing)).To(BeEmpty())
		Expect(client.Calls()).To(Equal(0))
	})

	It("shows positional ids to the model in a single system message", func() {
		client.Replies = []string{`{"memory": []}`}
		rec.DetermineOperations(ctx, []string{"Loves <pizza> & pasta"}, existing)

		req := client.LastRequest()
		Expect(req.Messages).To(HaveLen(1))
		Expect(req.Messages[0].Role).To(Equal("system"))

		prompt := req.Messages[0].GetText()
		Expect(prompt).To(ContainSubstring("smart memory manager"))
		Expect(prompt).To(ContainSubstring("[\n  {\n    \"id\": \"0\",\n    \"text\": \"Name is John\"\n  },"))
		Expect(prompt).To(ContainSubstring(`"id": "1"`))
		Expect(prompt).To(ContainSubstring("[\n  \"Loves <pizza> & pasta\"\n]"))
		Expect(prompt).NotTo(ContainSubstring("rec-a"))
		Expect(prompt).NotTo(ContainSubstring("{retrieved_old_memory_dict}"))
		Expect(prompt).NotTo(ContainSubstring("{response_content}"))
	})

	It("substitutes both placeholders in one pass", func() {
		client.Replies = []string{`{"memory": []}`}
		existing = append(existing, memory.NewRecord("rec-c", "Writes {response_content} in templates", "s1", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))

		rec.DetermineOperations(ctx, []string{"Likes tea"}, existing)

		prompt := client.LastRequest().Messages[0].GetText()
		Expect(prompt).To(ContainSubstring(`"text": "Writes {response_content} in templates"`))
		Expect(strings.Count(prompt, `"Likes tea"`)).To(Equal(1))
		Expect(prompt).To(ContainSubstring("[\n  \"Likes tea\"\n]"))
	})

	It("maps positional ids back to record ids", func() {
		client.Replies = []string{`{"memory": [
			{"id": "0", "text": "Name is John Smith", "event": "UPDATE"},
			{"id": "1", "text": "Likes cheese pizza", "event": "DELETE"},
			{"id": "2", "text": "Has a dog", "event": "ADD"}
		]}`}

		ops := rec.DetermineOperations(ctx, []string{"Name is John Smith", "Dislikes pizza", "Has a dog"}, existing)
		Expect(ops).To(Equal([]memory.Operation{
			{ID: "rec-a", Text: "Name is John Smith", Event: memory.EventUpdate, PreviousText: "Name is John"},
			{ID: "rec-b", Text: "Likes cheese pizza", Event: memory.EventDelete},
			{ID: "new-1", Text: "Has a dog", Event: memory.EventAdd},
		}))
	})

	It("never lets ADD reuse an existing record id", func() {
		client.Replies = []string{`[{"id": "0", "text": "Plays chess", "event": "ADD"}]`}

		ops := rec.DetermineOperations(ctx, []string{"Plays chess"}, existing)
		Expect(ops).To(HaveLen(1))
		Expect(ops[0].ID).To(Equal("new-1"))
	})

	It("fills NONE text from the existing record", func() {
		client.Replies = []string{`[{"id": 0, "event": "NONE"}]`}

		ops := rec.DetermineOperations(ctx, []string{"Name is John"}, existing)
		Expect(ops).To(Equal([]memory.Operation{{ID: "rec-a", Text: "Name is John", Event: memory.EventNone}}))
	})

	It("assigns fresh ids to unknown positional ids", func() {
		client.Replies = []string{`[{"id": "7", "text": "Lives in Oslo", "event": "UPDATE"}]`}

		ops := rec.DetermineOperations(ctx, []string{"Lives in Oslo"}, existing)
		Expect(ops[0].ID).To(Equal("new-1"))
		Expect(ops[0].Event).To(Equal(memory.EventUpdate))
	})

	Context("fallback", func() {
		facts := []string{"X", "Y", "Z"}

		expectAllAdded := func(ops []memory.Operation) {
			Expect(ops).To(HaveLen(len(facts)))
			seen := map[string]bool{}
			for i, op := range ops {
				Expect(op.Event).To(Equal(memory.EventAdd))
				Expect(op.Text).To(Equal(facts[i]))
				Expect(seen).NotTo(HaveKey(op.ID))
				seen[op.ID] = true
			}
		}

		It("adds every fact when the model fails", func() {
			client.Fail = true
			expectAllAdded(rec.DetermineOperations(ctx, facts, existing))
		})

		It("adds every fact when the answer is not JSON", func() {
			client.Replies = []string{"I think you should add them."}
			expectAllAdded(rec.DetermineOperations(ctx, facts, existing))
		})

		It("adds every fact when an item is invalid", func() {
			client.Replies = []string{`[{"id": "0", "event": "UPDATE"}]`}
			expectAllAdded(rec.DetermineOperations(ctx, facts, existing))
		})

		It("uses uuids by default", func() {
			r := memory.NewLLMReconciler(memory.ReconcilerConfig{Client: client})
			client.Fail = true
			ops := r.DetermineOperations(ctx, facts, nil)
			Expect(ops[0].ID).To(HaveLen(36))
		})
	})
})

var _ = Describe("AddAllReconciler", func() {
	It("adds every fact with generated ids", func() {
		r := memory.AddAllReconciler{NewID: testutils.NewSeqIDFunc("id-")}
		ops := r.DetermineOperations(context.Background(), []string{"X", "Y"}, nil)
		Expect(ops).To(Equal([]memory.Operation{
			{ID: "id-1", Text: "X", Event: memory.EventAdd},
			{ID: "id-2", Text: "Y", Event: memory.EventAdd},
		}))
	})
})
