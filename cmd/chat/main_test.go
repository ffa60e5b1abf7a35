package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/WessleyAI/autorag/engine/rag"
)

type scriptedRAG struct {
	answer *rag.Answer
	err    error
	asked  []string
}

func (s *scriptedRAG) Query(_ context.Context, question string) (*rag.Answer, error) {
	s.asked = append(s.asked, question)
	return s.answer, s.err
}

func TestREPLAnswersThenExits(t *testing.T) {
	svc := &scriptedRAG{answer: &rag.Answer{
		Text: "The compact city car.",
		Sources: []rag.Source{
			{ID: "c1", Document: "A compact city car.", Score: 0.9},
		},
	}}
	in := strings.NewReader("Which car is small?\nexit\n")
	var out strings.Builder

	if err := repl(context.Background(), in, &out, svc); err != nil {
		t.Fatalf("repl: %v", err)
	}

	got := out.String()
	if len(svc.asked) != 1 || svc.asked[0] != "Which car is small?" {
		t.Errorf("asked = %v", svc.asked)
	}
	if !strings.Contains(got, `Source 1 (ID: c1): "A compact city car."`) {
		t.Errorf("output missing source line:\n%s", got)
	}
	if !strings.Contains(got, "Bot: The compact city car.") {
		t.Errorf("output missing answer:\n%s", got)
	}
	if !strings.Contains(got, "Bot: Goodbye!") {
		t.Errorf("output missing goodbye:\n%s", got)
	}
}

func TestREPLSkipsBlankInput(t *testing.T) {
	svc := &scriptedRAG{answer: &rag.Answer{Text: "x"}}
	in := strings.NewReader("\n   \nquit\n")
	var out strings.Builder

	if err := repl(context.Background(), in, &out, svc); err != nil {
		t.Fatalf("repl: %v", err)
	}
	if len(svc.asked) != 0 {
		t.Errorf("asked = %v, want none", svc.asked)
	}
}

func TestREPLPropagatesQueryError(t *testing.T) {
	svc := &scriptedRAG{err: errors.New("qdrant unreachable")}
	in := strings.NewReader("anything\n")

	err := repl(context.Background(), in, &strings.Builder{}, svc)
	if err == nil || !strings.Contains(err.Error(), "qdrant unreachable") {
		t.Errorf("err = %v", err)
	}
}

func TestREPLEndsOnEOF(t *testing.T) {
	svc := &scriptedRAG{answer: &rag.Answer{Text: "x"}}
	in := strings.NewReader("a question\n")
	var out strings.Builder

	if err := repl(context.Background(), in, &out, svc); err != nil {
		t.Fatalf("repl: %v", err)
	}
	if len(svc.asked) != 1 {
		t.Errorf("asked = %v", svc.asked)
	}
}

func TestIsExit(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"exit", true},
		{"quit", true},
		{"EXIT", true},
		{"  Quit  ", true},
		{"exits", false},
		{"quite", false},
		{"hello", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isExit(tt.in); got != tt.want {
			t.Errorf("isExit(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug").String() != "DEBUG" {
		t.Error("debug level not parsed")
	}
	if parseLevel("nonsense").String() != "INFO" {
		t.Error("unknown level should default to info")
	}
}
