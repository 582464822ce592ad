package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/pointcast/internal/httputil"
	"github.com/lox/pointcast/internal/metrics"
	"github.com/lox/pointcast/internal/models"
)

// ErrObservationUnavailable indicates the archive has no usable observations
// for the requested date yet. The accuracy run treats this as a no-op, not a
// failure; archives typically lag a day or two behind.
var ErrObservationUnavailable = errors.New("ingest: observations unavailable")

const openMeteoBaseURL = "https://archive-api.open-meteo.com/v1/archive"

// OpenMeteo fetches observed daily ground truth from the Open-Meteo
// historical archive, in the same units as forecast payloads (°F, mph).
type OpenMeteo struct {
	client   *http.Client
	baseURL  string
	lat      float64
	lon      float64
	timezone string
}

func NewOpenMeteo(lat, lon float64, timezone string) *OpenMeteo {
	return &OpenMeteo{
		client:   httputil.NewClient(),
		baseURL:  openMeteoBaseURL,
		lat:      lat,
		lon:      lon,
		timezone: timezone,
	}
}

type openMeteoResponse struct {
	Daily struct {
		Time         []string   `json:"time"`
		TempMax      []*float64 `json:"temperature_2m_max"`
		TempMin      []*float64 `json:"temperature_2m_min"`
		WindSpeedMax []*float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// FetchDay returns the observed day for a YYYY-MM-DD date, or
// ErrObservationUnavailable when the archive has nothing usable.
func (o *OpenMeteo) FetchDay(ctx context.Context, date string) (*models.ObservedDay, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.5f", o.lat))
	params.Set("longitude", fmt.Sprintf("%.5f", o.lon))
	params.Set("start_date", date)
	params.Set("end_date", date)
	params.Set("daily", "temperature_2m_max,temperature_2m_min,wind_speed_10m_max")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("wind_speed_unit", "mph")
	params.Set("timezone", o.timezone)

	var body []byte
	operation := func() error {
		req, err := httputil.NewRequest(o.baseURL + "?" + params.Encode())
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := o.client.Do(req.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("fetch observations: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch observations: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 60 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		metrics.ObservationFetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrObservationUnavailable, err)
	}

	var data openMeteoResponse
	if err := json.Unmarshal(body, &data); err != nil {
		metrics.ObservationFetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrObservationUnavailable, err)
	}

	if len(data.Daily.Time) == 0 {
		metrics.ObservationFetchesTotal.WithLabelValues("empty").Inc()
		return nil, ErrObservationUnavailable
	}

	day := &models.ObservedDay{
		Date:   date,
		Source: "open-meteo-archive",
	}
	if len(data.Daily.TempMax) > 0 {
		day.TempHighF = data.Daily.TempMax[0]
	}
	if len(data.Daily.TempMin) > 0 {
		day.TempLowF = data.Daily.TempMin[0]
	}
	if len(data.Daily.WindSpeedMax) > 0 {
		day.WindMaxMPH = data.Daily.WindSpeedMax[0]
	}

	metrics.ObservationFetchesTotal.WithLabelValues("ok").Inc()
	return day, nil
}
