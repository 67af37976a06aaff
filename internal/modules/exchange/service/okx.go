package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"signal_scanner/internal/models"
)

const (
	okxBaseURL     = "https://www.okx.com"
	okxMaxCandles  = 300
	okxTickersPath = "/api/v5/market/tickers"
	okxCandlesPath = "/api/v5/market/candles"
	okxSuccessCode = "0"
)

// OKXClient reads spot tickers and candles from the public OKX v5 REST API.
type OKXClient struct {
	rest restClient
}

func NewOKXClient(o Options) *OKXClient {
	return &OKXClient{rest: newRESTClient("okx", okxBaseURL, o)}
}

type okxTicker struct {
	InstType  string `json:"instType"`
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	VolCcy24h string `json:"volCcy24h"`
}

type okxTickerResp struct {
	Code string      `json:"code"`
	Msg  string      `json:"msg"`
	Data []okxTicker `json:"data"`
}

type okxCandleResp struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// ListInstruments returns spot instruments quoted in quote, by 24h quote volume descending,
// dropping those below minVolume.
func (c *OKXClient) ListInstruments(ctx context.Context, quote string, minVolume float64) ([]string, error) {
	var wrap okxTickerResp
	if err := c.rest.getJSON(ctx, okxTickersPath, url.Values{"instType": {"SPOT"}}, &wrap); err != nil {
		return nil, err
	}
	if wrap.Code != okxSuccessCode {
		return nil, errors.Errorf("okx tickers error: code=%s msg=%s", wrap.Code, wrap.Msg)
	}

	type rec struct {
		id  string
		vol float64
	}
	suffix := "-" + strings.ToUpper(quote)
	arr := make([]rec, 0, len(wrap.Data))
	for _, t := range wrap.Data {
		if !strings.HasSuffix(t.InstID, suffix) {
			continue
		}
		vol, err := parseNumber(t.VolCcy24h)
		if err != nil || vol < minVolume {
			continue
		}
		arr = append(arr, rec{id: t.InstID, vol: vol})
	}

	sort.SliceStable(arr, func(i, j int) bool { return arr[i].vol > arr[j].vol })
	out := make([]string, len(arr))
	for i, r := range arr {
		out[i] = r.id
	}
	return out, nil
}

// GetCandles returns up to count bars oldest-first. Rows come newest-first as
// [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm]; volCcy is the quote turnover for spot.
func (c *OKXClient) GetCandles(ctx context.Context, instID, timeframe string, count int) (models.Series, error) {
	bar, err := okxBar(timeframe)
	if err != nil {
		return models.Series{}, err
	}
	if count <= 0 || count > okxMaxCandles {
		count = okxMaxCandles
	}

	q := url.Values{
		"instId": {instID},
		"bar":    {bar},
		"limit":  {strconv.Itoa(count)},
	}
	var wrap okxCandleResp
	if err := c.rest.getJSON(ctx, okxCandlesPath, q, &wrap); err != nil {
		return models.Series{}, err
	}
	if wrap.Code != okxSuccessCode {
		return models.Series{}, errors.Errorf("okx candles %s error: code=%s msg=%s", instID, wrap.Code, wrap.Msg)
	}

	candles := make([]models.Candle, 0, len(wrap.Data))
	for i := len(wrap.Data) - 1; i >= 0; i-- {
		row := wrap.Data[i]
		if len(row) < 7 {
			return models.Series{}, errors.Errorf("okx candles %s: short row %v", instID, row)
		}
		cd, err := okxCandle(row)
		if err != nil {
			return models.Series{}, errors.Wrapf(err, "okx candles %s", instID)
		}
		candles = append(candles, cd)
	}
	return models.NewSeries(instID, normTF(timeframe), candles), nil
}

func okxCandle(row []string) (models.Candle, error) {
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("timestamp %q: %w", row[0], err)
	}
	var v [6]float64
	for i := range v {
		if v[i], err = parseNumber(row[i+1]); err != nil {
			return models.Candle{}, err
		}
	}
	return models.Candle{
		OpenTime: time.UnixMilli(ts).UTC(),
		Open:     v[0],
		High:     v[1],
		Low:      v[2],
		Close:    v[3],
		Volume:   v[4],
		Turnover: v[5],
	}, nil
}

// parseNumber reads exchange decimal strings; empty strings count as zero.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}
