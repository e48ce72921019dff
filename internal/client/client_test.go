package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"example.com/cansubmit/internal/session"
)

func newFakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/makes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["BMW","Lada"]`))
	})
	mux.HandleFunc("/api/models", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("make") != "BMW" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"make is required"}`))
			return
		}
		w.Write([]byte(`["3 Series"]`))
	})
	mux.HandleFunc("/api/generations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":46,"label":"E46"}]`))
	})
	mux.HandleFunc("/api/parameters", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`[{"id":10,"name":"Engine RPM"}]`))
	})
	mux.HandleFunc("/api/bus-types", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/submissions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"saved":2}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchesTaxonomy(t *testing.T) {
	srv := newFakeDaemon(t)
	c := New(srv.URL + "/")
	ctx := context.Background()

	makes, err := c.Makes(ctx)
	if err != nil {
		t.Fatalf("Makes: %v", err)
	}
	if !reflect.DeepEqual(makes, []string{"BMW", "Lada"}) {
		t.Fatalf("makes = %v", makes)
	}

	models, err := c.Models(ctx, "BMW")
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	if !reflect.DeepEqual(models, []string{"3 Series"}) {
		t.Fatalf("models = %v", models)
	}

	gens, err := c.Generations(ctx, "BMW", "3 Series")
	if err != nil {
		t.Fatalf("Generations: %v", err)
	}
	if len(gens) != 1 || gens[0].ID != 46 || gens[0].Label != "E46" {
		t.Fatalf("generations = %v", gens)
	}
}

func TestClientParameters(t *testing.T) {
	srv := newFakeDaemon(t)
	c := New(srv.URL)

	params, err := c.Parameters(context.Background(), "RPM", 5)
	if err != nil {
		t.Fatalf("Parameters: %v", err)
	}
	if len(params) != 1 || params[0].ID != 10 || params[0].Name != "Engine RPM" {
		t.Fatalf("parameters = %v", params)
	}
}

func TestClientSurfacesDetail(t *testing.T) {
	srv := newFakeDaemon(t)
	c := New(srv.URL)

	_, err := c.Models(context.Background(), "")
	var apiErr *SubmissionError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want SubmissionError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Error() != "make is required" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestClientMetadataDegrades(t *testing.T) {
	srv := newFakeDaemon(t)
	c := New(srv.URL)

	if types := c.BusTypes(context.Background()); types != nil {
		t.Fatalf("bus types = %v, want nil", types)
	}
}

func TestClientSubmit(t *testing.T) {
	srv := newFakeDaemon(t)
	c := New(srv.URL)

	res, err := c.Submit(context.Background(), session.Payload{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ID != 7 || res.Saved != 2 {
		t.Fatalf("res = %+v", res)
	}
}

func TestClientSubmitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"item 1: can_id is required"}`))
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.Submit(context.Background(), session.Payload{})
	var apiErr *SubmissionError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want SubmissionError", err)
	}
	if apiErr.Detail != "item 1: can_id is required" {
		t.Fatalf("detail = %q", apiErr.Detail)
	}
}

func TestClientErrorWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.Makes(context.Background())
	var apiErr *SubmissionError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want SubmissionError", err)
	}
	if apiErr.Error() != "HTTP 502" {
		t.Fatalf("Error() = %q", apiErr.Error())
	}
}
