package service

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"signal_scanner/internal/models"
)

const (
	mexcBaseURL    = "https://contract.mexc.com"
	mexcTickerPath = "/api/v1/contract/ticker"
	mexcKlinePath  = "/api/v1/contract/kline/"
	mexcMaxCandles = 2000
)

// MexcClient reads perpetual contract tickers and klines from the public MEXC REST API.
type MexcClient struct {
	rest restClient
	now  func() time.Time
}

func NewMexcClient(o Options) *MexcClient {
	return &MexcClient{rest: newRESTClient("mexc", mexcBaseURL, o), now: time.Now}
}

type mexcTicker struct {
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"lastPrice"`
	Amount24  float64 `json:"amount24"`
}

type mexcEnvelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// mexcKline is column oriented: index i of every slice is one bar. Time is in seconds.
type mexcKline struct {
	Time   []int64   `json:"time"`
	Open   []float64 `json:"open"`
	Close  []float64 `json:"close"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Vol    []float64 `json:"vol"`
	Amount []float64 `json:"amount"`
}

func (c *MexcClient) fetch(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	var env mexcEnvelope
	if err := c.rest.getJSON(ctx, path, q, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, errors.Errorf("mexc %s: success=false code=%d", path, env.Code)
	}
	return env.Data, nil
}

// ListInstruments returns contracts quoted in quote ordered by 24h turnover, dropping those below minVolume.
func (c *MexcClient) ListInstruments(ctx context.Context, quote string, minVolume float64) ([]string, error) {
	data, err := c.fetch(ctx, mexcTickerPath, nil)
	if err != nil {
		return nil, err
	}

	var tickers []mexcTicker
	if err := sonic.Unmarshal(data, &tickers); err != nil {
		var one mexcTicker
		if err1 := sonic.Unmarshal(data, &one); err1 != nil || one.Symbol == "" {
			return nil, errors.Wrap(err, "mexc tickers: unexpected data shape")
		}
		tickers = []mexcTicker{one}
	}

	suffix := "_" + strings.ToUpper(quote)
	arr := make([]mexcTicker, 0, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, suffix) || t.LastPrice <= 0 || t.Amount24 < minVolume {
			continue
		}
		arr = append(arr, t)
	}
	sort.SliceStable(arr, func(i, j int) bool { return arr[i].Amount24 > arr[j].Amount24 })

	out := make([]string, len(arr))
	for i, t := range arr {
		out[i] = t.Symbol
	}
	return out, nil
}

// GetCandles asks for a window wide enough to hold count bars ending now and keeps the newest count.
func (c *MexcClient) GetCandles(ctx context.Context, instID, timeframe string, count int) (models.Series, error) {
	interval, err := mexcInterval(timeframe)
	if err != nil {
		return models.Series{}, err
	}
	step, err := TimeframeDuration(timeframe)
	if err != nil {
		return models.Series{}, err
	}
	if count <= 0 || count > mexcMaxCandles {
		count = mexcMaxCandles
	}

	end := c.now()
	start := end.Add(-step * time.Duration(count+1))
	q := url.Values{
		"interval": {interval},
		"start":    {strconv.FormatInt(start.Unix(), 10)},
		"end":      {strconv.FormatInt(end.Unix(), 10)},
	}
	data, err := c.fetch(ctx, mexcKlinePath+url.PathEscape(instID), q)
	if err != nil {
		return models.Series{}, err
	}

	var k mexcKline
	if err := sonic.Unmarshal(data, &k); err != nil {
		return models.Series{}, errors.Wrapf(err, "mexc kline %s", instID)
	}
	n := len(k.Time)
	if len(k.Open) != n || len(k.Close) != n || len(k.High) != n || len(k.Low) != n || len(k.Vol) != n || len(k.Amount) != n {
		return models.Series{}, errors.Errorf("mexc kline %s: ragged columns", instID)
	}

	candles := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		candles = append(candles, models.Candle{
			OpenTime: time.Unix(k.Time[i], 0).UTC(),
			Open:     k.Open[i],
			High:     k.High[i],
			Low:      k.Low[i],
			Close:    k.Close[i],
			Volume:   k.Vol[i],
			Turnover: k.Amount[i],
		})
	}
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return models.NewSeries(instID, normTF(timeframe), candles), nil
}
