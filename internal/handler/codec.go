package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/domain/menu"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
	"github.com/xenking/kart-billing/internal/register"
)

const maxBodySize = 64 << 10

// readBody reads the request body. Whitespace-only bodies count as empty.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, badRequest("read body: %v", err)
	}
	if len(body) > maxBodySize {
		return nil, badRequest("body exceeds %d bytes", maxBodySize)
	}
	for _, c := range body {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return body, nil
		}
	}
	return nil, nil
}

type selectionReq struct {
	Item     string
	Quantity int
}

type lineReq struct {
	Item     string
	Quantity int
	Price    decimal.Decimal
}

func decodeSelection(body []byte) (selectionReq, error) {
	var req selectionReq
	err := decodeObject(body, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "item":
			req.Item, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func decodeLine(body []byte) (lineReq, error) {
	var req lineReq
	err := decodeObject(body, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "item":
			req.Item, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		case "price":
			req.Price, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func decodePayment(body []byte) (billing.PaymentType, error) {
	var name string
	err := decodeObject(body, func(d *jx.Decoder, key string) (err error) {
		if key == "paymentType" {
			name, err = d.Str()
			return err
		}
		return d.Skip()
	})
	if err != nil {
		return "", err
	}
	return billing.ParsePaymentType(name)
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	num, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	v, err := decimal.NewFromString(strings.Trim(num.String(), `"`))
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse decimal")
	}
	return v, nil
}

func decodeObject(body []byte, f func(d *jx.Decoder, key string) error) error {
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if err := f(d, key); err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		return nil
	}); err != nil {
		return badRequest("invalid body: %v", err)
	}
	return nil
}

func money(e *jx.Encoder, v decimal.Decimal) {
	e.Float64(v.InexactFloat64())
}

func encodeMenu(items []menu.Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		money(&e, it.Price)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func writeBill(e *jx.Encoder, b billing.Bill) {
	e.FieldStart("number")
	e.Str(b.Number())
	e.FieldStart("date")
	e.Str(b.Date())
	e.FieldStart("time")
	e.Str(b.Time())
	e.FieldStart("status")
	e.Str(string(b.Status()))
	e.FieldStart("paymentType")
	if b.PaymentType().IsSet() {
		e.Str(b.PaymentType().String())
	} else {
		e.Null()
	}

	sel := b.Selection()
	e.FieldStart("selection")
	e.ObjStart()
	e.FieldStart("item")
	e.Str(sel.Item)
	e.FieldStart("quantity")
	e.Int(sel.Quantity)
	e.FieldStart("price")
	money(e, sel.Price)
	e.ObjEnd()

	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range b.Lines() {
		e.ObjStart()
		e.FieldStart("id")
		e.Int(l.ID)
		e.FieldStart("item")
		e.Str(l.Item)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("price")
		money(e, l.Price)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("total")
	money(e, b.Total())
}

func writeSession(e *jx.Encoder, s register.Session) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID)
	writeBill(e, s.Bill)
	e.ObjEnd()
}

func encodeSession(s register.Session) []byte {
	var e jx.Encoder
	writeSession(&e, s)
	return e.Bytes()
}

func encodeConfirmation(c *register.Confirmation) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("receipt")
	e.ObjStart()
	e.FieldStart("billNumber")
	e.Str(c.Receipt.Bill.Number())
	e.FieldStart("total")
	money(&e, c.Receipt.Total)
	e.FieldStart("rows")
	e.Int(c.Receipt.Rows)
	e.FieldStart("message")
	e.Str(c.Receipt.Message)
	e.FieldStart("bill")
	e.ObjStart()
	writeBill(&e, c.Receipt.Bill)
	e.ObjEnd()
	e.ObjEnd()
	e.FieldStart("next")
	writeSession(&e, c.Next)
	e.ObjEnd()
	return e.Bytes()
}

func encodeRows(rows []orderlog.Row) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, r := range rows {
		e.ObjStart()
		e.FieldStart("billNumber")
		e.Str(r.BillNumber)
		e.FieldStart("item")
		e.Str(r.Item)
		e.FieldStart("quantity")
		e.Int(r.Quantity)
		e.FieldStart("price")
		money(&e, r.Price)
		e.FieldStart("date")
		e.Str(r.Date)
		e.FieldStart("time")
		e.Str(r.Time)
		e.FieldStart("paymentType")
		e.Str(r.PaymentType.String())
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func encodeSales(by orderlog.GroupBy, sales []orderlog.Sales) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("group")
	e.Str(string(by))
	e.FieldStart("sales")
	e.ArrStart()
	for _, s := range sales {
		e.ObjStart()
		e.FieldStart("key")
		e.Str(s.Key)
		e.FieldStart("quantity")
		e.Int(s.Quantity)
		e.FieldStart("revenue")
		money(&e, s.Revenue)
		e.FieldStart("bills")
		e.Int(s.Bills)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}
