// Package openweather extracts live readings from the OpenWeatherMap
// current-weather endpoint.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/altocumulus/weather-etl/internal/domain"
)

// DefaultBaseURL is the production current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client calls the current-weather endpoint with retries and a circuit
// breaker. Transient failures (network errors, 429, 5xx) are retried with
// exponential backoff; other non-2xx statuses fail immediately.
type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	duration prometheus.Observer
}

// NewClient creates a Client. timeout bounds each individual HTTP attempt,
// and duration receives the elapsed seconds of every attempt, retries
// included.
func NewClient(apiKey, baseURL string, timeout time.Duration, duration prometheus.Observer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		duration: duration,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openweather",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// currentResponse mirrors the endpoint's payload. Fields the API omits for
// some stations are pointers so defaults can be applied during mapping.
type currentResponse struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Dt       int64 `json:"dt"`
	Timezone int   `json:"timezone"`
	Main     struct {
		Temp      float64  `json:"temp"`
		FeelsLike float64  `json:"feels_like"`
		TempMin   float64  `json:"temp_min"`
		TempMax   float64  `json:"temp_max"`
		Humidity  float64  `json:"humidity"`
		Pressure  float64  `json:"pressure"`
		SeaLevel  *float64 `json:"sea_level"`
		GrndLevel *float64 `json:"grnd_level"`
	} `json:"main"`
	Wind struct {
		Speed float64  `json:"speed"`
		Gust  *float64 `json:"gust"`
		Deg   float64  `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Visibility *float64 `json:"visibility"`
	Rain       struct {
		OneH float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneH float64 `json:"1h"`
	} `json:"snow"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// Current fetches the live reading for one city and maps it into the
// canonical record shape.
func (c *Client) Current(ctx context.Context, city domain.City) (domain.WeatherRecord, error) {
	values := url.Values{}
	values.Set("q", fmt.Sprintf("%s,%s", city.Name, city.Country))
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	values.Set("lang", "es")
	endpoint := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	var body []byte
	operation := func() error {
		_, err := c.breaker.Execute(func() (any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			start := time.Now()
			resp, err := c.http.Do(req)
			c.duration.Observe(time.Since(start).Seconds())
			if err != nil {
				return nil, fmt.Errorf("fetch current: %w", err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusOK:
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return nil, fmt.Errorf("fetch current: status %d", resp.StatusCode)
			default:
				b, _ := io.ReadAll(resp.Body)
				return nil, backoff.Permanent(fmt.Errorf("fetch current: status %d: %s", resp.StatusCode, b))
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}
			return nil, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return domain.WeatherRecord{}, err
	}

	var data currentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("unmarshal current: %w", err)
	}
	return mapResponse(city, data), nil
}

// mapResponse converts the payload, applying the documented station defaults:
// a station without a gust reading reports the sustained speed, missing
// sea-level and ground-level pressures fall back to surface pressure, and
// missing visibility means the 10 km maximum.
func mapResponse(city domain.City, data currentResponse) domain.WeatherRecord {
	rec := domain.WeatherRecord{
		CityName:         data.Name,
		CountryCode:      data.Sys.Country,
		CountryName:      "México",
		Latitude:         data.Coord.Lat,
		Longitude:        data.Coord.Lon,
		Timezone:         strconv.Itoa(data.Timezone),
		MeasuredAt:       time.Unix(data.Dt, 0).UTC(),
		TemperatureC:     domain.Float(data.Main.Temp),
		FeelsLikeC:       domain.Float(data.Main.FeelsLike),
		TempMinC:         domain.Float(data.Main.TempMin),
		TempMaxC:         domain.Float(data.Main.TempMax),
		HumidityPct:      domain.Float(data.Main.Humidity),
		PressureHPa:      domain.Float(data.Main.Pressure),
		WindSpeedMPS:     domain.Float(data.Wind.Speed),
		WindDirectionDeg: domain.Float(data.Wind.Deg),
		CloudinessPct:    domain.Float(data.Clouds.All),
		PrecipitationMM:  domain.Float(data.Rain.OneH),
		SnowMM:           domain.Float(data.Snow.OneH),
		UVIndex:          domain.Float(0),
		MoonPhase:        domain.Float(0),
		AirQualityIndex:  domain.Int(1),
		WeatherAlert:     domain.Bool(false),
		SunriseTime:      time.Unix(data.Sys.Sunrise, 0).UTC().Format("15:04:05"),
		SunsetTime:       time.Unix(data.Sys.Sunset, 0).UTC().Format("15:04:05"),
		Source:           domain.SourceAPI,
	}
	if rec.CityName == "" {
		rec.CityName = city.Name
	}

	rec.SeaLevelPressureHPa = orDefault(data.Main.SeaLevel, data.Main.Pressure)
	rec.GroundLevelPressureHPa = orDefault(data.Main.GrndLevel, data.Main.Pressure)
	rec.WindGustMPS = orDefault(data.Wind.Gust, data.Wind.Speed)
	rec.VisibilityMeters = orDefault(data.Visibility, 10000)

	if len(data.Weather) > 0 {
		w := data.Weather[0]
		rec.ConditionMain = w.Main
		rec.ConditionDescription = domain.TranslateCondition(w.Main, w.Description)
		rec.ConditionIcon = w.Icon
	}
	return rec
}

func orDefault(v *float64, fallback float64) *float64 {
	if v != nil {
		return v
	}
	return domain.Float(fallback)
}
