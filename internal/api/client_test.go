package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"excel-interview-bot/internal/interview"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/session" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"session_id":"S1","question":{"type":"text","prompt":"Explain VLOOKUP","index":0}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	res, err := c.CreateSession()
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if res.SessionID != "S1" {
		t.Fatalf("unexpected session id: %s", res.SessionID)
	}
	if res.Question == nil || res.Question.Type != interview.QuestionText || res.Question.Prompt != "Explain VLOOKUP" {
		t.Fatalf("unexpected question: %+v", res.Question)
	}
}

func TestCreateSessionWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.CreateSession(); err == nil {
		t.Fatalf("expected error for response without session_id")
	}
}

func TestSubmitAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/session/S1/message" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		if req["answer"] != "It looks up..." {
			t.Errorf("unexpected answer field: %q", req["answer"])
		}

		fmt.Fprint(w, `{"evaluation":{"score":8},"next_question":{"type":"file","prompt":"Upload your pivot table","index":1},"session_done":false}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	res, err := c.SubmitAnswer("S1", "It looks up...")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !res.HasEvaluation() {
		t.Fatalf("expected evaluation")
	}
	if res.NextQuestion == nil || res.NextQuestion.Type != interview.QuestionFile {
		t.Fatalf("unexpected next question: %+v", res.NextQuestion)
	}
}

func TestSubmitFileMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/S1/submit" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("not a multipart request: %v", err)
		}

		file, header, err := r.FormFile("excel_file")
		if err != nil {
			t.Errorf("missing excel_file part: %v", err)
		} else {
			defer file.Close()
			if header.Filename != "pivot.xlsx" {
				t.Errorf("unexpected filename: %s", header.Filename)
			}
			content, _ := io.ReadAll(file)
			if string(content) != "workbook-bytes" {
				t.Errorf("unexpected file content: %q", content)
			}
		}

		if note := r.FormValue("answer"); note != "see sheet 2" {
			t.Errorf("unexpected note: %q", note)
		}

		fmt.Fprint(w, `{"evaluation":{"score":5},"next_question":null,"session_done":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	res, err := c.SubmitFile("S1", interview.FileAnswer{
		Name: "pivot.xlsx",
		Data: []byte("workbook-bytes"),
		Note: "see sheet 2",
	})
	if err != nil {
		t.Fatalf("submit file failed: %v", err)
	}
	if res.NextQuestion != nil || !res.SessionDone {
		t.Fatalf("expected terminal turn: %+v", res)
	}
}

func TestFetchTranscript(t *testing.T) {
	raw := `{"session_id":"S1","transcript":[],"final_score":12.5}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/session/S1/transcript" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, raw)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	rep, err := c.FetchTranscript("S1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(rep) != raw {
		t.Fatalf("report must be stored verbatim: %s", rep)
	}
}

func TestServiceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"session not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.SubmitAnswer("missing", "answer")
	if err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("error should mention the status: %v", err)
	}
}
