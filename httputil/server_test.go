// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
)

func TestServer(t *testing.T) {
	ctx := context.Background()

	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1")}
	id, err := s.StartTCP(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Port == 0 {
		t.Fatalf("want port to be updated")
	}

	s.AddHandler("/hello", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "world")
	}))
	u := fmt.Sprintf("http://%s/hello", addr)
	resp, err := http.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(data) != "world" {
		t.Fatalf("want world, got %q", data)
	}

	if !s.RemoveHandler("/hello") {
		t.Fatalf("want handler to be removed")
	}
	if s.RemoveHandler("/hello") {
		t.Fatalf("want false for removing a missing handler")
	}
	resp, err = http.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 after removal, got %d", resp.StatusCode)
	}

	if err := s.Stop(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(id); err == nil {
		t.Fatalf("want error for stopping twice")
	}
}

func TestJSONHandler(t *testing.T) {
	type Request struct {
		Name string
	}
	type Response struct {
		Greeting string
	}
	h := JSONHandler(func(ctx context.Context, req *Request) (*Response, error) {
		switch req.Name {
		case "":
			return nil, fmt.Errorf("name is required: %w", os.ErrInvalid)
		case "ghost":
			return nil, fmt.Errorf("no such user: %w", os.ErrNotExist)
		case "twin":
			return nil, fmt.Errorf("already there: %w", os.ErrExist)
		}
		return &Response{Greeting: "hello " + req.Name}, nil
	})

	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1")}
	if _, err := s.StartTCP(context.Background(), addr); err != nil {
		t.Fatal(err)
	}
	s.AddHandler("/greet", h)
	u := fmt.Sprintf("http://%s/greet", addr)

	checks := []struct {
		body string
		code int
	}{
		{`{"Name":"bob"}`, http.StatusOK},
		{`{"Name":""}`, http.StatusBadRequest},
		{`{"Name":"ghost"}`, http.StatusNotFound},
		{`{"Name":"twin"}`, http.StatusConflict},
		{`not json`, http.StatusBadRequest},
	}
	for _, c := range checks {
		resp, err := http.Post(u, "application/json", bytes.NewBufferString(c.body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != c.code {
			t.Fatalf("%s: want status %d, got %d", c.body, c.code, resp.StatusCode)
		}
	}

	resp, err := http.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("want 405 for GET, got %d", resp.StatusCode)
	}
}
