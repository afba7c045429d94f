package stream

import (
	"fmt"
	"time"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoding is the wire format of the stream messages
type Encoding int

const (
	// EncodingJSON sends and receives JSON text frames. This is the default.
	EncodingJSON Encoding = iota
	// EncodingMsgpack sends and receives msgpack binary frames with the same
	// field names as the JSON encoding.
	EncodingMsgpack
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingMsgpack:
		return "msgpack"
	}
	return "unknown"
}

const (
	directiveSubscribe   = "subscribe"
	directiveUnsubscribe = "unsubscribe"

	msgTypeTrade = "trade"
	msgTypePing  = "ping"
	msgTypeError = "error"
)

// event is a decoded server message
type event struct {
	Type   string
	Msg    string
	Trades []Trade
}

func (e Encoding) encodeDirective(directive, symbol string) ([]byte, error) {
	switch e {
	case EncodingJSON:
		w := jwriter.Writer{}
		w.RawString(`{"type":`)
		w.String(directive)
		w.RawString(`,"symbol":`)
		w.String(symbol)
		w.RawByte('}')
		return w.BuildBytes()
	case EncodingMsgpack:
		return msgpack.Marshal(map[string]string{
			"type":   directive,
			"symbol": symbol,
		})
	}
	return nil, fmt.Errorf("unsupported encoding: %d", e)
}

func (e Encoding) decodeEvent(b []byte) (event, error) {
	switch e {
	case EncodingJSON:
		return decodeEventJSON(b)
	case EncodingMsgpack:
		return decodeEventMsgpack(b)
	}
	return event{}, fmt.Errorf("unsupported encoding: %d", e)
}

func decodeEventJSON(b []byte) (event, error) {
	var ev event
	in := jlexer.Lexer{Data: b}
	if in.IsNull() {
		in.Skip()
		return ev, in.Error()
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "type":
			ev.Type = in.String()
		case "msg":
			ev.Msg = in.String()
		case "data":
			in.Delim('[')
			for !in.IsDelim(']') {
				var t Trade
				decodeTradeJSON(&in, &t)
				ev.Trades = append(ev.Trades, t)
				in.WantComma()
			}
			in.Delim(']')
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	return ev, in.Error()
}

func decodeTradeJSON(in *jlexer.Lexer, t *Trade) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "s":
			t.Symbol = in.String()
		case "p":
			t.Price = in.Float64()
		case "v":
			t.Volume = in.Float64()
		case "t":
			t.Timestamp = time.UnixMilli(in.Int64()).UTC()
		case "c":
			in.Delim('[')
			for !in.IsDelim(']') {
				t.Conditions = append(t.Conditions, in.String())
				in.WantComma()
			}
			in.Delim(']')
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

type msgpackTrade struct {
	Symbol     string   `msgpack:"s"`
	Price      float64  `msgpack:"p"`
	Volume     float64  `msgpack:"v"`
	Timestamp  int64    `msgpack:"t"`
	Conditions []string `msgpack:"c"`
}

type msgpackEvent struct {
	Type string         `msgpack:"type"`
	Msg  string         `msgpack:"msg"`
	Data []msgpackTrade `msgpack:"data"`
}

func decodeEventMsgpack(b []byte) (event, error) {
	var m msgpackEvent
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return event{}, err
	}
	ev := event{Type: m.Type, Msg: m.Msg}
	for _, t := range m.Data {
		ev.Trades = append(ev.Trades, Trade{
			Symbol:     t.Symbol,
			Price:      t.Price,
			Volume:     t.Volume,
			Timestamp:  time.UnixMilli(t.Timestamp).UTC(),
			Conditions: t.Conditions,
		})
	}
	return ev, nil
}
