package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenMeteoFetchDay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("start_date"); got != "2026-02-05" {
			t.Errorf("start_date = %s, want 2026-02-05", got)
		}
		if got := r.URL.Query().Get("temperature_unit"); got != "fahrenheit" {
			t.Errorf("temperature_unit = %s, want fahrenheit", got)
		}
		if got := r.URL.Query().Get("timezone"); got != "America/Los_Angeles" {
			t.Errorf("timezone = %s, want America/Los_Angeles", got)
		}
		w.Write([]byte(`{
			"daily": {
				"time": ["2026-02-05"],
				"temperature_2m_max": [61.3],
				"temperature_2m_min": [44.2],
				"wind_speed_10m_max": [12.8]
			}
		}`))
	}))
	defer server.Close()

	om := NewOpenMeteo(37.4478, -122.136, "America/Los_Angeles")
	om.baseURL = server.URL

	day, err := om.FetchDay(context.Background(), "2026-02-05")
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if day.Source != "open-meteo-archive" {
		t.Errorf("Source = %s, want open-meteo-archive", day.Source)
	}
	if day.TempHighF == nil || *day.TempHighF != 61.3 {
		t.Errorf("TempHighF = %v, want 61.3", day.TempHighF)
	}
	if day.TempLowF == nil || *day.TempLowF != 44.2 {
		t.Errorf("TempLowF = %v, want 44.2", day.TempLowF)
	}
	if day.WindMaxMPH == nil || *day.WindMaxMPH != 12.8 {
		t.Errorf("WindMaxMPH = %v, want 12.8", day.WindMaxMPH)
	}
}

func TestOpenMeteoFetchDayNullValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily": {"time": ["2026-02-05"], "temperature_2m_max": [null], "temperature_2m_min": [null], "wind_speed_10m_max": [null]}}`))
	}))
	defer server.Close()

	om := NewOpenMeteo(37.4478, -122.136, "America/Los_Angeles")
	om.baseURL = server.URL

	day, err := om.FetchDay(context.Background(), "2026-02-05")
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if day.TempHighF != nil {
		t.Errorf("TempHighF = %v, want nil for null archive value", day.TempHighF)
	}
}

func TestOpenMeteoFetchDayEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily": {"time": []}}`))
	}))
	defer server.Close()

	om := NewOpenMeteo(37.4478, -122.136, "America/Los_Angeles")
	om.baseURL = server.URL

	if _, err := om.FetchDay(context.Background(), "2026-02-05"); !errors.Is(err, ErrObservationUnavailable) {
		t.Fatalf("err = %v, want ErrObservationUnavailable", err)
	}
}

func TestOpenMeteoFetchDayServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no data", http.StatusBadRequest)
	}))
	defer server.Close()

	om := NewOpenMeteo(37.4478, -122.136, "America/Los_Angeles")
	om.baseURL = server.URL

	if _, err := om.FetchDay(context.Background(), "2026-02-05"); !errors.Is(err, ErrObservationUnavailable) {
		t.Fatalf("err = %v, want ErrObservationUnavailable", err)
	}
}

func TestHTTPFieldSource(t *testing.T) {
	initTime := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/atlas_fields_2026020500.json":
			w.Write([]byte(`{"lat": [37.5], "lon": [237.75], "steps": 1, "variables": {"t2m": [283.15]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	source := NewHTTPFieldSource(server.URL)

	field, err := source.FetchField(context.Background(), initTime)
	if err != nil {
		t.Fatalf("FetchField: %v", err)
	}
	if !field.Has("t2m") {
		t.Error("field missing t2m")
	}

	_, err = source.FetchField(context.Background(), initTime.Add(6*time.Hour))
	if !errors.Is(err, ErrCycleUnavailable) {
		t.Fatalf("missing cycle err = %v, want ErrCycleUnavailable", err)
	}
}
