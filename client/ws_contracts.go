package client

import "encoding/json"

const (
	TickerEventType = "24hrTicker"
	KlineEventType  = "kline"
)

// WsTickerEvent is the Binance 24hr rolling window ticker payload
type WsTickerEvent struct {
	Event              string `json:"e"`
	Time               int64  `json:"E"`
	Symbol             string `json:"s"`
	PriceChange        string `json:"p"`
	PriceChangePercent string `json:"P"`
	WeightedAvgPrice   string `json:"w"`
	LastPrice          string `json:"c"`
	LastQty            string `json:"Q"`
	OpenPrice          string `json:"o"`
	HighPrice          string `json:"h"`
	LowPrice           string `json:"l"`
	Volume             string `json:"v"`
	QuoteVolume        string `json:"q"`
	OpenTime           int64  `json:"O"`
	CloseTime          int64  `json:"C"`
	FirstTradeID       int64  `json:"F"`
	LastTradeID        int64  `json:"L"`
	TradeCount         int64  `json:"n"`
}

// WsKlineEvent is the Binance candlestick payload
type WsKlineEvent struct {
	Event  string  `json:"e"`
	Time   int64   `json:"E"`
	Symbol string  `json:"s"`
	Kline  WsKline `json:"k"`
}

type WsKline struct {
	StartTime           int64  `json:"t"`
	EndTime             int64  `json:"T"`
	Symbol              string `json:"s"`
	Interval            string `json:"i"`
	FirstTradeID        int64  `json:"f"`
	LastTradeID         int64  `json:"L"`
	Open                string `json:"o"`
	Close               string `json:"c"`
	High                string `json:"h"`
	Low                 string `json:"l"`
	Volume              string `json:"v"`
	TradeCount          int64  `json:"n"`
	IsFinal             bool   `json:"x"`
	QuoteVolume         string `json:"q"`
	TakerBuyBaseVolume  string `json:"V"`
	TakerBuyQuoteVolume string `json:"Q"`
}

// multiStreamEnvelope wraps every combined stream frame
type multiStreamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type MultiStreamWsTickerEvent struct {
	Stream string        `json:"stream"`
	Data   WsTickerEvent `json:"data"`
}

type MultiStreamWsKlineEvent struct {
	Stream string       `json:"stream"`
	Data   WsKlineEvent `json:"data"`
}

// MessageHandler handle raw []byte messages
type MessageHandler func(message []byte)

// ErrorHandler handles errors
type ErrorHandler func(err error)

type MultiStreamWsTickerHandler func(event *MultiStreamWsTickerEvent)

type MultiStreamWsKlineHandler func(event *MultiStreamWsKlineEvent)

// StreamHandlers receives decoded combined stream events. A nil handler
// drops its events.
type StreamHandlers struct {
	Ticker MultiStreamWsTickerHandler
	Kline  MultiStreamWsKlineHandler
}
