package v1

import (
	"context"
	"errors"
	"testing"
)

type scriptedGenerator struct {
	tokens []string
	fail   bool
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, onToken func(string)) (string, error) {
	if g.fail {
		return "", errors.New("model offline")
	}
	var out string
	for _, tok := range g.tokens {
		out += tok
		if onToken != nil {
			onToken(tok)
		}
	}
	return out, nil
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithDataDir(t.TempDir())}, opts...)

	c, err := New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientAsk(t *testing.T) {
	c := newTestClient(t, WithGenerator(&scriptedGenerator{tokens: []string{"Sure", "!"}}))

	var streamed string
	answer, err := c.Ask(context.Background(), "can you help", func(tok string) {
		streamed += tok
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if answer.Text != "Sure!" || streamed != "Sure!" {
		t.Errorf("answer = %q, streamed = %q, want Sure!", answer.Text, streamed)
	}
	if answer.Fallback {
		t.Error("successful answer flagged as fallback")
	}

	records, err := c.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].Input != "can you help" {
		t.Errorf("records = %+v, want the exchange stored", records)
	}
}

func TestClientAskFallback(t *testing.T) {
	c := newTestClient(t,
		WithGenerator(&scriptedGenerator{fail: true}),
		WithFallback("no answer"),
	)

	answer, err := c.Ask(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !answer.Fallback || answer.Text != "no answer" {
		t.Errorf("answer = %+v, want the fallback", answer)
	}

	records, _ := c.Records(context.Background())
	if len(records) != 0 {
		t.Error("fallback answers must not be stored")
	}
}

func TestClientRememberPersists(t *testing.T) {
	dir := t.TempDir()

	c, err := New(context.Background(), WithDataDir(dir))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Remember(context.Background(), "favorite color", "green"); err != nil {
		t.Fatalf("remember: %v", err)
	}
	_ = c.Close()

	c2, err := New(context.Background(), WithDataDir(dir))
	if err != nil {
		t.Fatalf("reopen client: %v", err)
	}
	defer c2.Close()

	records, err := c2.Records(context.Background())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].Output != "green" {
		t.Errorf("records after reopen = %+v", records)
	}
}

func TestClientCapacityEviction(t *testing.T) {
	c := newTestClient(t, WithCapacity(2))

	for _, in := range []string{"a", "b", "c"} {
		if _, err := c.Remember(context.Background(), in, "out"); err != nil {
			t.Fatalf("remember %s: %v", in, err)
		}
	}

	records, _ := c.Records(context.Background())
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Input != "b" {
		t.Errorf("oldest surviving record = %q, want b", records[0].Input)
	}
}

func TestClientSearchWithoutEmbedder(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.Remember(context.Background(), "q", "a"); err != nil {
		t.Fatalf("remember: %v", err)
	}

	results, err := c.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0 without an embedder", len(results))
	}
}
